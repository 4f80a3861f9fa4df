// internal/scale/scale.go
package scale

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies a weighing-scale reply so callers branch on a typed value
// instead of string-comparing the original firmware's mixed ack/error text.
type Kind int

const (
	KindAck Kind = iota
	KindData
	KindError
	KindUnknown
)

// Reply is the result of one scale command.
type Reply struct {
	Kind Kind
	Text string
}

// Port is the narrow serial dependency scale commands need: a single
// command byte (plus optional payload) out, and a read-with-wait in.
type Port interface {
	WriteScale(b []byte) error
	ReadScaleResponse(wait time.Duration) (string, error)
}

const scaleReadWait = 200 * time.Millisecond

// Process dispatches one MODE:WEIGHT line to the scale's command catalog
// (§4.8), matching the original firmware's byte values, wait durations and
// ack strings exactly.
func Process(line string, port Port) (Reply, error) {
	cmd := strings.TrimSpace(line)

	switch {
	case cmd == "MODE:WEIGHT":
		return Reply{Kind: KindAck, Text: "OK:WEIGHT\n"}, nil

	case cmd == "RD_WEIGHT":
		return readCommand(port, 0x05, "Error: No response from weight machine.")

	case cmd == "XC_TARE":
		if err := port.WriteScale([]byte{'T', 't'}); err != nil {
			return Reply{}, err
		}
		return Reply{Kind: KindAck, Text: "XC_TARE: Tare command sent."}, nil

	case cmd == "XC_REZERO":
		return sendOnly(port, 0x10, "XC_REZERO sent.")

	case cmd == "XC_SON":
		return sendOnly(port, 0x12, "XC_SON: Calibration start.")

	case strings.HasPrefix(cmd, "XC_KEYCAL"):
		payload := cmd[len("XC_KEYCAL"):]
		if err := port.WriteScale(append([]byte{0x13}, payload...)); err != nil {
			return Reply{}, err
		}
		return Reply{Kind: KindAck, Text: "XC_KEYCAL sent with weight payload."}, nil

	case cmd == "XC_CALZERO":
		return sendOnly(port, 0x14, "XC_CALZERO: Zero point set.")

	case cmd == "XC_CALSPAN":
		return sendOnly(port, 0x15, "XC_CALSPAN: Span set.")

	case cmd == "XC_CALIBRATE":
		return sendOnly(port, 0x16, "XC_CALIBRATE: Calibration finalize.")

	case cmd == "XC_RDRAWCT":
		return readCommand(port, 0x11, "Error: No raw data response.")

	case cmd == "XC_LOAD_DEFAULTS":
		return sendOnly(port, 0x17, "XC_LOAD_DEFAULTS sent.")

	case cmd == "WR_TECHSPEC":
		return sendOnly(port, 0x18, "WR_TECHSPEC sent.")

	case cmd == "WR_CUSSPEC":
		return sendOnly(port, 0x1A, "WR_CUSSPEC sent.")

	case cmd == "RD_CUSSPEC":
		return readCommand(port, 0x1B, "Error: no data from scale")

	case cmd == "RD_TECHSPEC":
		return readCommand(port, 0x19, "Error: no data from scale")

	case cmd == "XC_RESTART":
		return sendOnly(port, 0x1C, "XC_RESTART sent.")

	default:
		return Reply{Kind: KindUnknown, Text: "Error: Unknown command"}, nil
	}
}

func sendOnly(port Port, b byte, ack string) (Reply, error) {
	if err := port.WriteScale([]byte{b}); err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindAck, Text: ack}, nil
}

func readCommand(port Port, b byte, errText string) (Reply, error) {
	if err := port.WriteScale([]byte{b}); err != nil {
		return Reply{Kind: KindError, Text: errText}, nil
	}
	resp, err := port.ReadScaleResponse(scaleReadWait)
	if err != nil || resp == "" {
		return Reply{Kind: KindError, Text: errText}, nil
	}
	return Reply{Kind: KindData, Text: resp}, nil
}

// String satisfies fmt.Stringer for logging.
func (r Reply) String() string {
	return fmt.Sprintf("%s", r.Text)
}
