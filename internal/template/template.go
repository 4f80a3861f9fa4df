// internal/template/template.go
package template

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"device-service/internal/emitter"
	"device-service/internal/model"
)

const maxLineBytes = 512

// TemplateStore resolves barcode template records by number, needed by the
// ~B directive to fetch its content pattern.
type TemplateStore interface {
	GetBarcodeTemplate(number int) (*model.BarcodeTemplateRecord, error)
}

// Writer is the narrow interface the interpreter writes rendered directive
// bytes to (the printer serial FD, in production).
type Writer interface {
	Write([]byte) (int, error)
}

// Run walks a label template blob line by line, dispatching each directive
// and writing its rendered bytes to w. Geometry is established by the first
// ~S directive encountered; directives before it use zero extents.
func Run(blob []byte, job *model.JobState, store TemplateStore, w Writer) error {
	scanner := bufio.NewScanner(bytes.NewReader(blob))
	scanner.Buffer(make([]byte, maxLineBytes), 1<<20)

	var geom model.Geometry

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes] // silent truncation, matches fgets
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" || !strings.HasPrefix(line, "~") {
			continue
		}

		directive := line[1]
		rawFields := line[2:]
		fields := tokenize(rawFields)

		switch directive {
		case 'S':
			geom = parseGeometry(fields)
			job.Geometry = geom

		case 's':
			if len(fields) >= 1 {
				if f, err := strconv.ParseFloat(fields[0], 64); err == nil {
					if _, err := w.Write(setLineSpacingBytes(f)); err != nil {
						return err
					}
				}
			}

		case 'A':
			if b, err := renderWindowBlock(fields, geom); err == nil {
				if _, err := w.Write(b); err != nil {
					return err
				}
			}

		case 'T':
			if len(fields) < 13 {
				continue // hard field-count gate, matches original_source
			}
			spec := parseTextSpec(fields, geom)
			b := emitter.TextEmit(job, spec, emitter.Gate(job, spec.PrintStatus))
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'V':
			spec, ok := parseVariableSpec(rawFields, geom)
			if !ok {
				continue
			}
			b := emitter.TextEmit(job, spec, emitter.Gate(job, spec.PrintStatus))
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'B':
			spec, barcodeNum := parseBarcodeSpec(fields, geom)
			var tmpl *model.BarcodeTemplateRecord
			if store != nil {
				tmpl, _ = store.GetBarcodeTemplate(barcodeNum)
			}
			b, err := emitter.BarcodeEmit(job, spec, tmpl, emitter.Gate(job, '1'))
			if err != nil {
				return fmt.Errorf("template: barcode: %w", err)
			}
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'R':
			spec := parseRectangleSpec(fields, geom)
			status := byte('1')
			if len(fields) >= 8 {
				status = statusByte(fields[7])
			}
			b := emitter.RectangleEmit(spec, emitter.Gate(job, status))
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'C':
			spec := parseCircleSpec(fields, geom)
			b := emitter.CircleEmit(spec, emitter.Gate(job, '1'))
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'c':
			b := parseRawBytes(fields)
			if len(b) > 64 {
				b = b[:64]
			}
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'd':
			spec, raster, err := parseBitmapSpec(fields, geom, scanner)
			if err != nil {
				return fmt.Errorf("template: bitmap: %w", err)
			}
			b := emitter.BitmapEmit(spec, raster, emitter.Gate(job, '1'))
			if _, err := w.Write(b); err != nil {
				return err
			}

		case 'Y':
			time.Sleep(time.Duration(clampMS(fields)) * time.Millisecond)

		case 'I':
			if len(fields) >= 1 {
				level := clampInt(atoi(fields[0]), 60, 140)
				if _, err := w.Write([]byte{0x12, 0x7E, byte(level)}); err != nil {
					return err
				}
			}

		case 'e':
			// accepted and ignored: nothing is read from the printer and no
			// expected response is waited for.

		case 'P':
			if len(fields) >= 2 {
				copies := atoi(fields[0])
				dir := byte(0)
				if len(fields[1]) > 0 {
					dir = fields[1][0]
				}
				b := printAndAdvanceBytes(copies, dir)
				if _, err := w.Write(b); err != nil {
					return err
				}
			}
		}
	}

	return scanner.Err()
}

// tokenize splits a directive's field list on unescaped commas, matching
// the interpreter's shared comma tokenizer (\, is a literal comma).
func tokenize(s string) []string {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if s[i] == ',' {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	fields = append(fields, cur.String())
	return fields
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampMS(fields []string) int {
	if len(fields) < 1 {
		return 5
	}
	return clampInt(atoi(fields[0]), 5, 5000)
}

func statusByte(s string) byte {
	if s == "" {
		return '1'
	}
	return s[0]
}

func parseGeometry(fields []string) model.Geometry {
	var g model.Geometry
	if len(fields) >= 1 {
		g.WidthMM = atof(fields[0])
	}
	if len(fields) >= 2 {
		g.HeightMM = atof(fields[1])
	}
	return g
}

func setLineSpacingBytes(mm float64) []byte {
	n := int(mm*8 + 0.5)
	return []byte{0x1B, '3', byte(n)}
}

func renderWindowBlock(fields []string, geom model.Geometry) ([]byte, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("~A: need 4 fields, got %d", len(fields))
	}
	x := int(atof(fields[0])*8 + 0.5)
	y := int(atof(fields[1])*8 + 0.5)
	dx := int(atof(fields[2])*8 + 0.5)
	dy := int(atof(fields[3])*8 + 0.5)

	var buf bytes.Buffer
	buf.Write([]byte{0x1B, 'W'})
	buf.Write(le16(x))
	buf.Write(le16(y))
	buf.Write(le16(dx))
	buf.Write(le16(dy))
	buf.WriteByte(0x18) // CAN
	buf.Write([]byte{0x1B, 'W'})
	buf.Write(le16(0))
	buf.Write(le16(0))
	buf.Write(le16(int(geom.WidthMM*8 + 0.5)))
	buf.Write(le16(int(geom.HeightMM*8 + 0.5)))
	return buf.Bytes(), nil
}

func le16(v int) []byte {
	if v < 0 {
		v = 0
	}
	return []byte{byte(v & 0xFF), byte((v >> 8) & 0xFF)}
}

// parseTextSpec builds a ~T TextSpec from the shared escape-aware tokenizer.
// ~T's literal is never resolved (Resolvable stays false), matching
// send_text being called directly with the decoded literal.
func parseTextSpec(fields []string, geom model.Geometry) emitter.TextSpec {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	spec := emitter.TextSpec{
		X:             atof(get(0)),
		Y:             atof(get(1)),
		Angle:         atoi(get(2)),
		Font:          atoi(get(3)),
		XMul:          int(atof(get(4))),
		YMul:          int(atof(get(5))),
		Literal:       get(6),
		DataLength:    atoi(get(7)),
		Offset:        atoi(get(8)),
		Justify:       emitter.Justify(statusByte(get(9))),
		Lines:         atoi(get(10)),
		LineSpacingMM: atof(get(11)),
		PrintStatus:   statusByte(get(12)),
	}
	for _, f := range fields {
		switch f {
		case "E":
			spec.Emphasize = true
		case "U":
			spec.Underline = true
		case "I":
			spec.Invert = true
		}
	}
	if spec.Font == 0 {
		spec.Font = 1
	}
	return spec
}

// parseVariableSpec parses a ~V directive's raw (untokenized) field string.
// Unlike ~T, ~V's id/fallback-text field may legally contain an unescaped
// comma, so it cannot go through the shared forward tokenizer without
// desynchronizing every field that follows. Instead the trailing six fields
// (len, offset, justify, lines, spacing, mode) are peeled off the tail via a
// plain last-comma search, the leading six positional fields are peeled off
// the front the same way, and everything between becomes the id plus its
// fallback text — split at the id's own terminating comma, if any.
func parseVariableSpec(raw string, geom model.Geometry) (emitter.TextSpec, bool) {
	s := raw

	printStatus := byte('1')
	if idx := strings.LastIndexByte(s, ','); idx >= 0 {
		tail := s[idx+1:]
		if len(tail) == 1 && tail[0] >= '0' && tail[0] <= '9' {
			printStatus = tail[0]
			s = s[:idx]
		}
	}

	mode, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	spacingStr, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	linesStr, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	justifyStr, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	offsetStr, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	lenStr, s, ok := peelLastField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}

	xStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	yStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	angleStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	fontStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	xmulStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}
	ymulStr, s, ok := peelFirstField(s)
	if !ok {
		return emitter.TextSpec{}, false
	}

	id, fallback, hasFallback := peelFirstField(s)
	if !hasFallback {
		id, fallback = s, ""
	}

	spec := emitter.TextSpec{
		X:             atof(xStr),
		Y:             atof(yStr),
		Angle:         atoi(angleStr),
		Font:          atoi(fontStr),
		XMul:          int(atof(xmulStr)),
		YMul:          int(atof(ymulStr)),
		ID:            strings.TrimSpace(id),
		Literal:       fallback,
		DataLength:    atoi(lenStr),
		Offset:        atoi(offsetStr),
		Justify:       emitter.Justify(statusByte(justifyStr)),
		Lines:         atoi(linesStr),
		LineSpacingMM: atof(spacingStr),
		PrintStatus:   printStatus,
		Resolvable:    true,
	}
	switch strings.TrimSpace(mode) {
	case "E":
		spec.Emphasize = true
	case "U":
		spec.Underline = true
	case "I":
		spec.Invert = true
	}
	if spec.Font == 0 {
		spec.Font = 1
	}
	return spec, true
}

// peelLastField splits s at its last comma, matching the original
// interpreter's strrchr-from-the-tail field extraction (not escape-aware:
// the fields it is used for never contain commas themselves).
func peelLastField(s string) (field, rest string, ok bool) {
	idx := strings.LastIndexByte(s, ',')
	if idx < 0 {
		return "", "", false
	}
	return s[idx+1:], s[:idx], true
}

// peelFirstField splits s at its first comma, matching sscanf's "%[^,],"
// leading-field extraction.
func peelFirstField(s string) (field, rest string, ok bool) {
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseBarcodeSpec(fields []string, geom model.Geometry) (emitter.BarcodeSpec, int) {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	spec := emitter.BarcodeSpec{
		X:             atof(get(0)),
		Y:             atof(get(1)),
		Angle:         atoi(get(2)),
		Font:          atoi(get(3)),
		ModuleWidthMM: atof(get(4)),
		BarHeightMM:   atof(get(5)),
		DataLength:    atoi(get(7)),
		Offset:        atoi(get(8)),
		Justify:       emitter.Justify(statusByte(get(9))),
		HRI:           statusByte(get(10)),
		Mode:          get(11),
		LabelWidthMM:  geom.WidthMM,
		LabelHeightMM: geom.HeightMM,
	}
	barcodeNum := atoi(get(6))
	return spec, barcodeNum
}

func parseRectangleSpec(fields []string, geom model.Geometry) emitter.RectangleSpec {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return emitter.RectangleSpec{
		X:             atof(get(0)),
		Y:             atof(get(1)),
		Angle:         atof(get(2)),
		W:             atof(get(3)),
		H:             atof(get(4)),
		Thickness:     atof(get(5)),
		Invert:        get(6) == "I" || statusByte(get(6)) == 'I',
		LabelWidthMM:  geom.WidthMM,
		LabelHeightMM: geom.HeightMM,
	}
}

func parseCircleSpec(fields []string, geom model.Geometry) emitter.CircleSpec {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return emitter.CircleSpec{
		X:             atof(get(0)),
		Y:             atof(get(1)),
		Radius:        atof(get(2)),
		Thickness:     atof(get(3)),
		Invert:        statusByte(get(4)) == 'I',
		LabelWidthMM:  geom.WidthMM,
		LabelHeightMM: geom.HeightMM,
	}
}

func parseRawBytes(fields []string) []byte {
	b := make([]byte, 0, len(fields))
	for _, f := range fields {
		b = append(b, byte(atoi(f)))
	}
	return b
}

func printAndAdvanceBytes(copies int, dir byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x1B, '{', dir})
	for i := 0; i < copies; i++ {
		buf.Write([]byte{0x1D, 0x0C})
	}
	buf.Write([]byte{0x1B, 'S'})
	return buf.Bytes()
}

func parseBitmapSpec(fields []string, geom model.Geometry, scanner *bufio.Scanner) (emitter.BitmapSpec, []byte, error) {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	spec := emitter.BitmapSpec{
		X:             atof(get(0)),
		Y:             atof(get(1)),
		Angle:         atoi(get(2)),
		XMag:          maxInt(atoi(get(3)), 1),
		YMag:          maxInt(atoi(get(4)), 1),
		WidthMM:       atof(get(5)),
		HeightMM:      atof(get(6)),
		LabelWidthMM:  geom.WidthMM,
		LabelHeightMM: geom.HeightMM,
	}
	for _, f := range fields {
		switch f {
		case "I":
			spec.Invert = true
		case "E":
			spec.Emphasize = true
		case "U":
			spec.Underline = true
		}
	}

	if !scanner.Scan() {
		return spec, nil, fmt.Errorf("missing bitmap payload line")
	}
	raw := scanner.Bytes()
	raster := decodeEscapedBinary(raw)
	return spec, raster, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// decodeEscapedBinary implements the ~d payload's escape rule: if the
// first byte is '\', the line is \HH hex-escaped with bare \n/\r skipped
// and any other byte copied verbatim; otherwise the line is raw bytes.
func decodeEscapedBinary(raw []byte) []byte {
	if len(raw) == 0 || raw[0] != '\\' {
		return raw
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+2 < len(raw) && isHex(raw[i+1]) && isHex(raw[i+2]) {
			v := hexVal(raw[i+1])<<4 | hexVal(raw[i+2])
			out = append(out, v)
			i += 2
			continue
		}
		if raw[i] == '\\' && i+1 < len(raw) && (raw[i+1] == 'n' || raw[i+1] == 'r') {
			i++
			continue
		}
		out = append(out, raw[i])
	}
	return out
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
