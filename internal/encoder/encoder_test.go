package encoder

import (
	"bytes"
	"testing"
)

func TestSetMagnification(t *testing.T) {
	got := New().SetMagnification(3, 2).Bytes()
	want := []byte{GS, '!', 0x21}
	if !bytes.Equal(got, want) {
		t.Errorf("SetMagnification(3,2) = % X, want % X", got, want)
	}
}

func TestSetLabelSize(t *testing.T) {
	got := New().SetLabelSize(432, 256).Bytes()
	want := []byte{FS, 'L', 0xB0, 0x01, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("SetLabelSize(432,256) = % X, want % X", got, want)
	}
}

func TestSetWindow(t *testing.T) {
	got := New().SetWindow(1, 2, 3, 4).Bytes()
	want := []byte{ESC, 'W', 1, 0, 2, 0, 3, 0, 4, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("SetWindow(1,2,3,4) = % X, want % X", got, want)
	}
}

func TestPrintAndAdvance(t *testing.T) {
	got := New().PrintAndAdvance(2, 'U').Bytes()
	want := []byte{ESC, '{', 'U', GS, 0x0C, GS, 0x0C, ESC, 'S'}
	if !bytes.Equal(got, want) {
		t.Errorf("PrintAndAdvance(2,'U') = % X, want % X", got, want)
	}
}

func TestCancel(t *testing.T) {
	got := New().Cancel().Bytes()
	want := []byte{CAN}
	if !bytes.Equal(got, want) {
		t.Errorf("Cancel() = % X, want % X", got, want)
	}
}

func TestChaining(t *testing.T) {
	got := New().Init().SetOrientation(1).SetFont(0).Bytes()
	want := []byte{ESC, '@', ESC, 'T', 1, ESC, 'M', 0}
	if !bytes.Equal(got, want) {
		t.Errorf("chained calls = % X, want % X", got, want)
	}
}
