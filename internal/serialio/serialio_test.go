package serialio

import (
	"testing"

	"go.uber.org/zap"
)

func newTestManager() *Manager {
	return New(PortConfig{Device: "/dev/null"}, PortConfig{Device: "/dev/null"}, zap.NewNop())
}

func TestManagerStartsClosed(t *testing.T) {
	m := newTestManager()
	if m.PrinterOpen() {
		t.Error("PrinterOpen() = true before OpenPrinter, want false")
	}
	if m.ScaleOpen() {
		t.Error("ScaleOpen() = true before OpenScale, want false")
	}
}

func TestPrinterWriterErrorsWhenClosed(t *testing.T) {
	m := newTestManager()
	_, err := m.PrinterWriter().Write([]byte("hello"))
	if err == nil {
		t.Error("PrinterWriter().Write() with closed printer, want error")
	}
}

func TestWriteScaleErrorsWhenClosed(t *testing.T) {
	m := newTestManager()
	if err := m.WriteScale([]byte{0x05}); err == nil {
		t.Error("WriteScale() with closed scale, want error")
	}
}

func TestReadScaleResponseErrorsWhenClosed(t *testing.T) {
	m := newTestManager()
	if _, err := m.ReadScaleResponse(0); err == nil {
		t.Error("ReadScaleResponse() with closed scale, want error")
	}
}

func TestReadScaleWeightErrorsWhenClosed(t *testing.T) {
	m := newTestManager()
	if _, err := m.ReadScaleWeight(); err == nil {
		t.Error("ReadScaleWeight() with closed scale, want error")
	}
}

func TestCloseIsSafeWhenNeverOpened(t *testing.T) {
	m := newTestManager()
	if err := m.Close(); err != nil {
		t.Errorf("Close() on never-opened manager = %v, want nil", err)
	}
}

func TestOpenModeParity(t *testing.T) {
	tests := []struct {
		parity string
	}{{"odd"}, {"even"}, {"none"}, {""}}
	for _, tc := range tests {
		mode := openMode(PortConfig{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: tc.parity})
		if mode.BaudRate != 9600 || mode.DataBits != 8 {
			t.Errorf("openMode(%q) = %+v, want baud 9600 databits 8", tc.parity, mode)
		}
	}
}
