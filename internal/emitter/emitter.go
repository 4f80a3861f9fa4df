// internal/emitter/emitter.go
package emitter

import (
	"strings"

	"device-service/internal/barcode"
	"device-service/internal/encoder"
	"device-service/internal/model"
	"device-service/internal/printstatus"
	"device-service/internal/resolver"
)

const dotsPerMM = 8

func mmToDots(mm float64) int {
	return int(mm*dotsPerMM + 0.5)
}

// Justify selects horizontal alignment for Text/Barcode drawables.
type Justify byte

const (
	JustifyLeft   Justify = 'L'
	JustifyCenter Justify = 'C'
	JustifyRight  Justify = 'R'
	JustifyNone   Justify = 'N'
)

// TextSpec describes a ~T/~V drawable's fields (§4.4 Text). ~T never
// resolves Literal; ~V does, using ID first and falling back to Literal
// (see Resolvable and ResolveText).
type TextSpec struct {
	X, Y             float64
	Angle            int
	Font             int // 1 or 2
	XMul, YMul       int // clamped 1..6
	Literal          string
	ID               string // ~V only: variable id or job-document key
	Resolvable       bool   // true for ~V, false for ~T
	DataLength       int
	Offset           int
	Justify          Justify
	Lines            int
	LineSpacingMM    float64
	Emphasize        bool
	Underline        bool
	Invert           bool
	PrintStatus      byte
}

func glyphBaseSize(font int) (w, h int) {
	if font == 2 {
		return 9, 17
	}
	return 12, 24
}

// ResolveText implements the ~V id-or-literal resolution order: a numeric id
// tries the Variable Resolver first, then a named id is looked up in the job
// document, and only then does fallback (the directive's own literal/raw
// text, already escape-decoded) get returned as-is. ~T never calls this.
func ResolveText(job *model.JobState, id, fallback string) string {
	if id == "" {
		return fallback
	}
	if n, ok := allDigits(id); ok {
		if v, err := resolver.Resolve(job, n); err == nil {
			return v
		}
	}
	if v := job.JobDocumentString(id); v != "" {
		return v
	}
	return fallback
}

func allDigits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return 0, false
	}
	return n, true
}

// decodeEscapes applies the shared \n/\,/\\ escape decoding used by ~T and
// ~V's comma tokenizer.
func decodeEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case ',':
				b.WriteByte(',')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// TextEmit renders a ~T/~V drawable into encoder bytes, or nil if the print
// status gate suppresses it.
func TextEmit(job *model.JobState, spec TextSpec, shouldPrint bool) []byte {
	if !shouldPrint {
		return nil
	}

	text := decodeEscapes(spec.Literal)
	if spec.Resolvable {
		text = ResolveText(job, spec.ID, text)
	}
	lines := splitLines(text, spec.Lines)

	xmul, ymul := clamp(spec.XMul, 1, 6), clamp(spec.YMul, 1, 6)
	baseW, baseH := glyphBaseSize(spec.Font)
	cellW, cellH := baseW*xmul, baseH*ymul

	spacing := mmToDots(spec.LineSpacingMM)
	if spacing < cellH {
		spacing = cellH
	}

	var maxWidth int
	for _, l := range lines {
		w := len(l) * cellW
		if w > maxWidth {
			maxWidth = w
		}
	}
	boxWidth := spec.DataLength * cellW
	if spec.DataLength == 0 {
		boxWidth = maxWidth
	}

	xpos := mmToDots(spec.X)
	ypos := mmToDots(spec.Y)

	e := encoder.New()
	orientationCode(e, spec.Angle)
	e.SetFont(spec.Font - 1)
	e.SetMagnification(xmul, ymul)
	e.SetLineSpacing(spacing)
	if spec.Emphasize {
		e.SetEmphasize(true)
	}
	if spec.Underline {
		e.SetUnderline(true)
	}
	if spec.Invert {
		e.SetInvert(true)
	}

	dx := boxWidth
	margin := 2 * xmul
	extentH := spacing*spec.Lines + margin

	var winX, winY, winDX, winDY int
	switch spec.Angle {
	case 90:
		winX, winY = xpos, ypos-(dx-1)
		winDX, winDY = extentH, dx
	case 180:
		winX, winY = xpos-(dx-1), ypos-(spacing-1)
		winDX, winDY = dx, extentH
	case 270:
		winX, winY = xpos-(extentH-1), ypos
		winDX, winDY = extentH, dx
	default:
		winX, winY = xpos, ypos
		winDX, winDY = dx, extentH
	}
	e.SetWindow(winX, winY, winDX, winDY)

	for i, l := range lines {
		textWidth := len(l) * cellW
		lx := xpos
		switch spec.Justify {
		case JustifyCenter:
			lx += (boxWidth - textWidth) / 2
		case JustifyRight:
			lx += boxWidth - textWidth
		}
		ly := ypos + i*spacing
		e.SetPositionX(lx)
		e.SetPositionY(ly)
		e.Raw([]byte(l))
		e.LineFeed()
	}

	e.SetEmphasize(false)
	e.SetUnderline(false)
	e.SetInvert(false)
	e.SetMagnification(1, 1)
	e.SetLineSpacing(32)

	return e.Bytes()
}

func splitLines(s string, n int) []string {
	parts := strings.Split(s, "\n")
	if n <= 0 {
		return parts
	}
	if len(parts) > n {
		return parts[:n]
	}
	for len(parts) < n {
		parts = append(parts, "")
	}
	return parts
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orientationCode(e *encoder.Encoder, angle int) {
	switch angle {
	case 90:
		e.SetOrientation(1)
	case 180:
		e.SetOrientation(2)
	case 270:
		e.SetOrientation(3)
	default:
		e.SetOrientation(0)
	}
}

// BarcodeSpec describes a ~B drawable's fields (§4.4 Barcode).
type BarcodeSpec struct {
	X, Y               float64
	Angle              int
	Font               int
	ModuleWidthMM      float64
	BarHeightMM        float64
	DataLength         int
	Offset             int
	Justify            Justify
	HRI                byte // N, A, B, '2'
	Mode               string
	BarcodeNumber      int
	LabelWidthMM       float64
	LabelHeightMM      float64
}

// BarcodeEmit renders a ~B drawable, fetching barcode template `tmpl` and
// running it through the Barcode Content Engine.
func BarcodeEmit(job *model.JobState, spec BarcodeSpec, tmpl *model.BarcodeTemplateRecord, shouldPrint bool) ([]byte, error) {
	if !shouldPrint || tmpl == nil {
		return nil, nil
	}

	payload, err := barcode.Generate(tmpl.Data, job)
	if err != nil {
		return nil, err
	}
	if spec.DataLength > 0 && len(payload) > spec.DataLength {
		payload = payload[:spec.DataLength]
	}

	e := encoder.New()
	e.SetFont(0)
	e.SetMagnification(1, 1)
	e.SetEmphasize(false)
	e.SetLineSpacing(24)

	labelW := mmToDots(spec.LabelWidthMM)
	labelH := mmToDots(spec.LabelHeightMM)
	e.SetWindow(0, 0, labelW, labelH)

	moduleW := mmToDots(spec.ModuleWidthMM)
	barH := mmToDots(spec.BarHeightMM)
	barcodeWidth := len(payload) * moduleW

	xpos := mmToDots(spec.X)
	ypos := mmToDots(spec.Y)
	switch spec.Justify {
	case JustifyCenter:
		xpos += (labelW - barcodeWidth) / 2
	case JustifyRight:
		xpos += labelW - barcodeWidth
	}

	xpos, ypos = rotateBarcode(spec.Angle, xpos, ypos, barcodeWidth, labelW, labelH)

	e.SetAbsolutePosition(xpos, ypos)
	e.Raw([]byte{0x1D, 'w', byte(moduleW)})
	loH, hiH := byte(barH&0xFF), byte((barH>>8)&0xFF)
	e.Raw([]byte{0x1D, 'h', loH, hiH})
	e.Raw([]byte{0x1D, 'f', 1})
	e.Raw([]byte{0x1D, 'H', hriCode(spec.HRI)})

	symbologyBytes, err := encodeSymbology(payload, tmpl.Type)
	if err != nil {
		return nil, err
	}
	e.Raw(symbologyBytes)

	e.SetFont(0)
	e.SetMagnification(1, 1)
	e.SetLineSpacing(32)

	emitFieldLabels(e, job, tmpl, spec, xpos, ypos+barH, barcodeWidth, moduleW)

	return e.Bytes(), nil
}

func rotateBarcode(angle, x, y, barcodeWidth, labelW, labelH int) (int, int) {
	switch angle {
	case 90:
		return x, labelH - y
	case 180:
		return labelW - x - barcodeWidth, labelH - y
	case 270:
		return labelW - x - barcodeWidth, y
	default:
		return x, y
	}
}

func hriCode(hri byte) byte {
	switch hri {
	case 'N':
		return 0
	case 'A':
		return 1
	case 'B':
		return 2
	case '2':
		return 3
	default:
		return 0
	}
}

// encodeSymbology selects EAN-13, QR or CODE-128 based on payload shape.
func encodeSymbology(payload, hintedType string) ([]byte, error) {
	var out []byte
	if len(payload) == 12 && isAllDigits(payload) {
		out = append(out, 0x1D, 'k', 2)
		out = append(out, payload...)
		out = append(out, 0x00)
		return out, nil
	}
	if strings.EqualFold(hintedType, "QRCODE") && len(payload) >= 1 && len(payload) <= 120 {
		out = append(out, 0x1D, '(', 'k', 3, 0, 49, 69, 49)
		out = append(out, 0x1D, '(', 'k', 3, 0, 49, 67, 6)
		sl := len(payload) + 3
		out = append(out, 0x1D, '(', 'k', byte(sl&0xFF), byte((sl>>8)&0xFF), 49, 80, 48)
		out = append(out, payload...)
		return out, nil
	}

	data := payload
	if isAllDigits(data) && len(data)%2 == 1 {
		data = "0" + data
	}
	subset := byte('A')
	if isAllDigits(data) {
		subset = 'C'
	} else if hasLowerOrPunct(data) {
		subset = 'B'
	}
	out = append(out, 0x1D, 'k', 73, byte(len(data)+2), '{', subset)
	out = append(out, data...)
	return out, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func hasLowerOrPunct(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '!' && r <= '/') {
			return true
		}
	}
	return false
}

// emitFieldLabels prints fld1/fld2 below the barcode when their condition
// permits, positioned via compute_shift (§4.4 Barcode step 8) and 2 mm / 4 mm
// below belowDots, the y coordinate of the bars' lower edge.
func emitFieldLabels(e *encoder.Encoder, job *model.JobState, tmpl *model.BarcodeTemplateRecord, spec BarcodeSpec, xDots, belowDots, barcodeWidth, moduleW int) {
	type field struct {
		text, cond, shift string
	}
	fields := []field{
		{tmpl.Fld1, tmpl.Cond1, tmpl.Shift1},
		{tmpl.Fld2, tmpl.Cond2, tmpl.Shift2},
	}
	for idx, f := range fields {
		if f.text == "" || !conditionMet(job, f.cond) {
			continue
		}
		n := atoiSafe(f.shift)
		var shiftX int
		left := strings.HasPrefix(f.shift, "L")
		if left {
			shiftX = xDots - n*moduleW
		} else {
			shiftX = xDots + barcodeWidth + n*moduleW
		}
		yOffset := 2
		if idx == 1 {
			yOffset = 4
		}
		e.SetAbsolutePosition(shiftX, belowDots+yOffset*dotsPerMM)
		e.Raw([]byte(f.text))
		e.LineFeed()
	}
}

func conditionMet(job *model.JobState, cond string) bool {
	switch strings.ToLower(cond) {
	case "", "any", "no":
		return true
	case "weight":
		return job.WeightOrQuantity.IsPositive()
	case "quantity":
		return job.WeightOrQuantity.IsPositive()
	default:
		return true
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// RectangleSpec describes a ~R drawable.
type RectangleSpec struct {
	X, Y, Angle          float64
	W, H, Thickness      float64
	Invert               bool
	PrintStatus          byte
	LabelWidthMM         float64
	LabelHeightMM        float64
}

// RectangleEmit renders a ~R drawable.
func RectangleEmit(spec RectangleSpec, shouldPrint bool) []byte {
	if !shouldPrint {
		return nil
	}
	x, y, w, h := mmToDots(spec.X), mmToDots(spec.Y), mmToDots(spec.W), mmToDots(spec.H)
	var xloc, yloc, dx, dy int
	switch int(spec.Angle) {
	case 90:
		xloc, yloc, dx, dy = x, y-w, h, w
	case 180:
		xloc, yloc, dx, dy = x-w, y-h, w, h
	case 270:
		xloc, yloc, dx, dy = x-h, y, h, w
	default:
		xloc, yloc, dx, dy = x, y, w, h
	}

	e := encoder.New()
	e.SetWindow(0, 0, mmToDots(spec.LabelWidthMM), mmToDots(spec.LabelHeightMM))
	e.SetOrientation(0)
	e.SetInvert(spec.Invert)

	x1, y1 := xloc+dx, yloc+dy
	thickness := mmToDots(spec.Thickness)
	e.Raw([]byte{0x1C, 'R'})
	e.Raw(le16Pair(xloc))
	e.Raw(le16Pair(yloc))
	e.Raw(le16Pair(x1))
	e.Raw(le16Pair(y1))
	e.Raw([]byte{byte(thickness)})

	return e.Bytes()
}

func le16Pair(v int) []byte {
	if v < 0 {
		v = 0
	}
	return []byte{byte(v & 0xFF), byte((v >> 8) & 0xFF)}
}

// CircleSpec describes a ~C drawable.
type CircleSpec struct {
	X, Y, Radius, Thickness float64
	Invert                  bool
	LabelWidthMM            float64
	LabelHeightMM           float64
}

// CircleEmit renders a ~C drawable.
func CircleEmit(spec CircleSpec, shouldPrint bool) []byte {
	if !shouldPrint {
		return nil
	}
	e := encoder.New()
	e.SetWindow(0, 0, mmToDots(spec.LabelWidthMM), mmToDots(spec.LabelHeightMM))
	e.SetOrientation(0)
	e.SetInvert(spec.Invert)

	x, y := mmToDots(spec.X), mmToDots(spec.Y)
	radius := mmToDots(spec.Radius)
	thickness := mmToDots(spec.Thickness)

	e.Raw([]byte{0x1C, 'c'})
	e.Raw(le16Pair(x))
	e.Raw(le16Pair(y))
	e.Raw(le16Pair(radius))
	e.Raw([]byte{byte(thickness)})

	return e.Bytes()
}

// BitmapSpec describes a ~d drawable.
type BitmapSpec struct {
	X, Y             float64
	Angle            int
	XMag, YMag       int
	WidthMM, HeightMM float64
	LabelWidthMM     float64
	LabelHeightMM    float64
	Invert           bool
	Emphasize        bool
	Underline        bool
}

// BitmapEmit renders a ~d drawable given pre-decoded raster bytes.
// raster must already be bytesPerRow*imgH bytes (decode_escaped_binary is
// applied by the template interpreter before this call).
func BitmapEmit(spec BitmapSpec, raster []byte, shouldPrint bool) []byte {
	if !shouldPrint {
		return nil
	}
	imgW := mmToDots(spec.WidthMM) * spec.XMag
	imgH := mmToDots(spec.HeightMM) * spec.YMag
	bytesPerRow := (imgW + 7) / 8

	if !hasSetBit(raster) {
		return nil
	}

	if spec.Angle == 0 {
		raster = transpose(raster, bytesPerRow, imgH)
	}

	x, y := mmToDots(spec.X), mmToDots(spec.Y)
	var winW, winH int
	switch spec.Angle {
	case 90:
		y -= imgW - 1
		winW, winH = imgH, imgW
	case 180:
		x -= imgW - 1
		y -= imgH - 1
		winW, winH = imgW, imgH
	case 270:
		x -= imgH - 1
		winW, winH = imgH, imgW
	default:
		winW, winH = imgW, imgH
	}
	x, y = clampWindow(x, y, winW, winH, mmToDots(spec.LabelWidthMM), mmToDots(spec.LabelHeightMM))

	e := encoder.New()
	e.SetWindow(x, y, winW, winH)
	orientationCode(e, spec.Angle)
	e.SetInvert(spec.Invert)
	e.SetEmphasize(spec.Emphasize)
	e.SetUnderline(spec.Underline)
	e.SetPositionX(0)
	e.SetPositionY(0)

	magnify := byte(0)
	if spec.XMag > 1 {
		magnify |= 1
	}
	if spec.YMag > 1 {
		magnify |= 2
	}
	e.Raw([]byte{0x1D, 'v', '0', magnify})
	e.Raw(le16Pair(bytesPerRow))
	e.Raw(le16Pair(imgH))
	e.Raw(raster)

	return e.Bytes()
}

func hasSetBit(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return true
		}
	}
	return false
}

// transpose bit-transposes the raster in place at angle 0, matching the
// hardware raster orientation quirk observed in the original driver.
func transpose(raster []byte, bytesPerRow, rows int) []byte {
	out := make([]byte, len(raster))
	copy(out, raster)
	for r := 0; r < rows; r++ {
		for c := 0; c < bytesPerRow; c++ {
			idx := r*bytesPerRow + c
			if idx < len(out) {
				out[idx] = reverseBits(raster[idx])
			}
		}
	}
	return out
}

func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func clampWindow(x, y, w, h, labelW, labelH int) (int, int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > labelW {
		x = labelW - w
	}
	if y+h > labelH {
		y = labelH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// Gate evaluates the Print-Status Gate for a drawable's status char using
// the job's unit price and actual unit price.
func Gate(job *model.JobState, statusChar byte) bool {
	return printstatus.ShouldPrint(statusChar, job.UOM, job.GetDecimal(5), job.GetDecimal(73))
}
