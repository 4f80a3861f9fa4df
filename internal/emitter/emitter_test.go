package emitter

import (
	"bytes"
	"testing"

	"device-service/internal/model"
)

func TestResolveTextNumericID(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[1] = "7"
	got := ResolveText(job, "1", "fallback")
	if got != "0007" {
		t.Errorf("ResolveText(numeric id) = %q, want %q", got, "0007")
	}
}

func TestResolveTextJobDocumentFallback(t *testing.T) {
	job := model.NewJobState()
	job.JobDocument["store_name"] = "Example Store"
	got := ResolveText(job, "store_name", "fallback")
	if got != "Example Store" {
		t.Errorf("ResolveText(doc fallback) = %q, want %q", got, "Example Store")
	}
}

func TestResolveTextLiteralFallback(t *testing.T) {
	job := model.NewJobState()
	got := ResolveText(job, "unknown_key", "Fresh Produce")
	if got != "Fresh Produce" {
		t.Errorf("ResolveText(literal) = %q, want %q", got, "Fresh Produce")
	}
}

func TestResolveTextNoIDReturnsFallback(t *testing.T) {
	job := model.NewJobState()
	got := ResolveText(job, "", "Fresh Produce")
	if got != "Fresh Produce" {
		t.Errorf("ResolveText(no id) = %q, want %q", got, "Fresh Produce")
	}
}

func TestTextEmitDoesNotResolveLiteral(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[1] = "7"
	job.UOM = model.UOMPieces
	got := TextEmit(job, TextSpec{Literal: "1", Lines: 1, Font: 1, XMul: 1, YMul: 1, PrintStatus: '1'}, true)
	if !bytes.Contains(got, []byte("1")) || bytes.Contains(got, []byte("0007")) {
		t.Errorf("TextEmit(~T-style, non-resolvable) resolved its literal via the variable resolver, want verbatim %q", "1")
	}
}

func TestTextEmitResolvesWhenResolvable(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[1] = "7"
	job.UOM = model.UOMPieces
	got := TextEmit(job, TextSpec{ID: "1", Literal: "fallback", Resolvable: true, Lines: 1, Font: 1, XMul: 1, YMul: 1, PrintStatus: '1'}, true)
	if !bytes.Contains(got, []byte("0007")) {
		t.Errorf("TextEmit(~V-style, resolvable) did not resolve its id, want %q in output", "0007")
	}
}

func TestDecodeEscapes(t *testing.T) {
	got := decodeEscapes(`line1\nline2\,comma\\slash`)
	want := "line1\nline2,comma\\slash"
	if got != want {
		t.Errorf("decodeEscapes = %q, want %q", got, want)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\nb", 4)
	want := []string{"a", "b", "", ""}
	if len(got) != len(want) {
		t.Fatalf("splitLines length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitLines[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTextEmitSuppressedByGate(t *testing.T) {
	job := model.NewJobState()
	got := TextEmit(job, TextSpec{Literal: "hello"}, false)
	if got != nil {
		t.Errorf("TextEmit(shouldPrint=false) = %v, want nil", got)
	}
}

func TestBarcodeEmitSuppressedByGate(t *testing.T) {
	job := model.NewJobState()
	tmpl := &model.BarcodeTemplateRecord{Data: "6L"}
	got, err := BarcodeEmit(job, BarcodeSpec{}, tmpl, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("BarcodeEmit(shouldPrint=false) = %v, want nil", got)
	}
}

func TestBarcodeEmitNilTemplate(t *testing.T) {
	job := model.NewJobState()
	got, err := BarcodeEmit(job, BarcodeSpec{}, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("BarcodeEmit(nil template) = %v, want nil", got)
	}
}

func TestRectangleEmitSuppressedByGate(t *testing.T) {
	if got := RectangleEmit(RectangleSpec{}, false); got != nil {
		t.Errorf("RectangleEmit(shouldPrint=false) = %v, want nil", got)
	}
}

func TestCircleEmitSuppressedByGate(t *testing.T) {
	if got := CircleEmit(CircleSpec{}, false); got != nil {
		t.Errorf("CircleEmit(shouldPrint=false) = %v, want nil", got)
	}
}

func TestBitmapEmitAllZeroRasterSkipped(t *testing.T) {
	spec := BitmapSpec{WidthMM: 4, HeightMM: 4, XMag: 1, YMag: 1}
	raster := make([]byte, 16)
	got := BitmapEmit(spec, raster, true)
	if got != nil {
		t.Errorf("BitmapEmit(all-zero raster) = %v, want nil", got)
	}
}

func TestEncodeSymbologyEAN13(t *testing.T) {
	got, err := encodeSymbology("123456789012", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x1D, 'k', 2}
	want = append(want, "123456789012"...)
	want = append(want, 0x00)
	if !bytes.Equal(got, want) {
		t.Errorf("encodeSymbology(EAN13) = % X, want % X", got, want)
	}
}

func TestEncodeSymbologyCode128SubsetC(t *testing.T) {
	got, err := encodeSymbology("1234", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x1D, 'k', 73, byte(len("1234") + 2), '{', 'C'}
	want = append(want, "1234"...)
	if !bytes.Equal(got, want) {
		t.Errorf("encodeSymbology(code128 subset C) = % X, want % X", got, want)
	}
}

func TestHriCode(t *testing.T) {
	tests := []struct {
		hri  byte
		want byte
	}{
		{'N', 0}, {'A', 1}, {'B', 2}, {'2', 3}, {'?', 0},
	}
	for _, tc := range tests {
		if got := hriCode(tc.hri); got != tc.want {
			t.Errorf("hriCode(%q) = %d, want %d", tc.hri, got, tc.want)
		}
	}
}

func TestGate(t *testing.T) {
	job := model.NewJobState()
	job.UOM = model.UOMPieces
	job.Datapoints[5] = "10.00"
	job.Datapoints[73] = "10.00"
	if !Gate(job, '5') {
		t.Errorf("Gate('5') with unchanged pcs price = false, want true")
	}
	job.Datapoints[73] = "12.00"
	if Gate(job, '5') {
		t.Errorf("Gate('5') with changed pcs price = true, want false")
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(0, 1, 6); got != 1 {
		t.Errorf("clamp(0,1,6) = %d, want 1", got)
	}
	if got := clamp(9, 1, 6); got != 6 {
		t.Errorf("clamp(9,1,6) = %d, want 6", got)
	}
	if got := clamp(3, 1, 6); got != 3 {
		t.Errorf("clamp(3,1,6) = %d, want 3", got)
	}
}
