// internal/encoder/encoder.go
package encoder

import "bytes"

// Control bytes shared by every primitive in this package.
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	FS  byte = 0x1C
	LF  byte = 0x0A
	CAN byte = 0x18
)

// Encoder builds one directive's worth of ESC/POS bytes into a buffer. A
// fresh Encoder is used per directive so that a parse/render failure never
// leaves a partial byte sequence on the wire (§8, property c): callers
// render into the buffer and hand the complete result to the serial writer
// in a single Write call.
type Encoder struct {
	buf bytes.Buffer
}

// New returns an empty Encoder.
func New() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated byte sequence.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func le16(v int) (lo, hi byte) {
	if v < 0 {
		v = 0
	}
	return byte(v & 0xFF), byte((v >> 8) & 0xFF)
}

// SetLabelSize emits FS L w_lo w_hi h_lo h_hi.
func (e *Encoder) SetLabelSize(wDots, hDots int) *Encoder {
	wl, wh := le16(wDots)
	hl, hh := le16(hDots)
	e.buf.Write([]byte{FS, 'L', wl, wh, hl, hh})
	return e
}

// EnterPageMode emits ESC S.
func (e *Encoder) EnterPageMode() *Encoder {
	e.buf.Write([]byte{ESC, 'S'})
	return e
}

// SetWindow emits ESC W followed by the 8-byte (x,y,dx,dy) region, each a
// little-endian 16-bit pair.
func (e *Encoder) SetWindow(x, y, dx, dy int) *Encoder {
	xl, xh := le16(x)
	yl, yh := le16(y)
	dxl, dxh := le16(dx)
	dyl, dyh := le16(dy)
	e.buf.Write([]byte{ESC, 'W', xl, xh, yl, yh, dxl, dxh, dyl, dyh})
	return e
}

// SetOrientation emits ESC T n, n in {0,1,2,3} for 0/90/180/270 degrees.
func (e *Encoder) SetOrientation(code int) *Encoder {
	e.buf.Write([]byte{ESC, 'T', byte(code)})
	return e
}

// SetFont emits ESC M n (0 selects 12x24, 1 selects 9x17).
func (e *Encoder) SetFont(n int) *Encoder {
	e.buf.Write([]byte{ESC, 'M', byte(n)})
	return e
}

// SetMagnification emits GS ! ((xmag-1)<<4)|(ymag-1).
func (e *Encoder) SetMagnification(xmag, ymag int) *Encoder {
	b := byte(((xmag - 1) & 0x0F) << 4) | byte((ymag-1)&0x0F)
	e.buf.Write([]byte{GS, '!', b})
	return e
}

// SetLineSpacing emits ESC 3 n.
func (e *Encoder) SetLineSpacing(dots int) *Encoder {
	e.buf.Write([]byte{ESC, '3', byte(dots)})
	return e
}

// SetInvert emits GS B n.
func (e *Encoder) SetInvert(on bool) *Encoder {
	e.buf.Write([]byte{GS, 'B', boolByte(on)})
	return e
}

// SetEmphasize emits ESC E n.
func (e *Encoder) SetEmphasize(on bool) *Encoder {
	e.buf.Write([]byte{ESC, 'E', boolByte(on)})
	return e
}

// SetUnderline emits ESC - n.
func (e *Encoder) SetUnderline(on bool) *Encoder {
	e.buf.Write([]byte{ESC, '-', boolByte(on)})
	return e
}

// SetPositionX emits ESC $ lo hi.
func (e *Encoder) SetPositionX(dots int) *Encoder {
	lo, hi := le16(dots)
	e.buf.Write([]byte{ESC, '$', lo, hi})
	return e
}

// SetPositionY emits GS $ lo hi.
func (e *Encoder) SetPositionY(dots int) *Encoder {
	lo, hi := le16(dots)
	e.buf.Write([]byte{GS, '$', lo, hi})
	return e
}

// SetAbsolutePosition emits the combined ESC $ / GS $ pair used by the
// barcode emitter's position step, distinct from the separate
// SetPositionX/SetPositionY primitives the text emitter uses.
func (e *Encoder) SetAbsolutePosition(xDots, yDots int) *Encoder {
	e.SetPositionX(xDots)
	e.SetPositionY(yDots)
	return e
}

// PrintAndAdvance emits ESC { dir, then copies repetitions of GS FF, then
// ESC S (the ~P directive's sequence).
func (e *Encoder) PrintAndAdvance(copies int, dir byte) *Encoder {
	e.buf.Write([]byte{ESC, '{', dir})
	for i := 0; i < copies; i++ {
		e.buf.Write([]byte{GS, 0x0C})
	}
	e.buf.Write([]byte{ESC, 'S'})
	return e
}

// Cancel emits CAN (0x18), used by ~A to clear a temporary window.
func (e *Encoder) Cancel() *Encoder {
	e.buf.WriteByte(CAN)
	return e
}

// Intensity emits the ~I directive's DC2-prefixed heat-level command.
func (e *Encoder) Intensity(level int) *Encoder {
	e.buf.Write([]byte{0x12, 0x7E, byte(level)})
	return e
}

// LineFeed emits a bare LF.
func (e *Encoder) LineFeed() *Encoder {
	e.buf.WriteByte(LF)
	return e
}

// Raw appends bytes verbatim (the ~c directive).
func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf.Write(b)
	return e
}

// RawBytes is an alias kept for call sites that prefer the imperative name.
func (e *Encoder) RawBytes(b []byte) *Encoder {
	return e.Raw(b)
}

// Init emits ESC @ (the printer reset sequence at job start).
func (e *Encoder) Init() *Encoder {
	e.buf.Write([]byte{ESC, '@'})
	return e
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
