package scale

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type fakePort struct {
	written  []byte
	response string
	readErr  error
	writeErr error
}

func (f *fakePort) WriteScale(b []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, b...)
	return nil
}

func (f *fakePort) ReadScaleResponse(wait time.Duration) (string, error) {
	return f.response, f.readErr
}

func TestProcessModeWeight(t *testing.T) {
	port := &fakePort{}
	reply, err := Process("MODE:WEIGHT", port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Kind != KindAck || reply.Text != "OK:WEIGHT\n" {
		t.Errorf("Process(MODE:WEIGHT) = %+v, want ack OK:WEIGHT", reply)
	}
}

func TestProcessReadWeightSuccess(t *testing.T) {
	port := &fakePort{response: "12.345 kg"}
	reply, err := Process("RD_WEIGHT", port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(port.written, []byte{0x05}) {
		t.Errorf("written bytes = % X, want % X", port.written, []byte{0x05})
	}
	if reply.Kind != KindData || reply.Text != "12.345 kg" {
		t.Errorf("Process(RD_WEIGHT) = %+v, want data 12.345 kg", reply)
	}
}

func TestProcessReadWeightNoResponse(t *testing.T) {
	port := &fakePort{response: ""}
	reply, err := Process("RD_WEIGHT", port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Kind != KindError {
		t.Errorf("Process(RD_WEIGHT empty) kind = %v, want KindError", reply.Kind)
	}
}

func TestProcessTare(t *testing.T) {
	port := &fakePort{}
	reply, err := Process("XC_TARE", port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(port.written, []byte{'T', 't'}) {
		t.Errorf("written bytes = % X, want %q", port.written, "Tt")
	}
	if reply.Kind != KindAck {
		t.Errorf("Process(XC_TARE) kind = %v, want KindAck", reply.Kind)
	}
}

func TestProcessKeyCalPayload(t *testing.T) {
	port := &fakePort{}
	_, err := Process("XC_KEYCAL00123", port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := append([]byte{0x13}, "00123"...)
	if !bytes.Equal(port.written, want) {
		t.Errorf("written bytes = % X, want % X", port.written, want)
	}
}

func TestProcessUnknownCommand(t *testing.T) {
	reply, err := Process("NOT_A_COMMAND", &fakePort{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Kind != KindUnknown {
		t.Errorf("Process(unknown) kind = %v, want KindUnknown", reply.Kind)
	}
}

func TestProcessWriteError(t *testing.T) {
	port := &fakePort{writeErr: errors.New("port closed")}
	_, err := Process("XC_REZERO", port)
	if err == nil {
		t.Error("Process(XC_REZERO) with write error, want error")
	}
}
