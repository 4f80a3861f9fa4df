// internal/barcode/barcode.go
package barcode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"device-service/internal/model"
)

// Generate expands a Barcode Content Engine pattern (§4.3) against job
// state into the concatenated payload string handed to the symbology
// selector. Implemented as a pure function, per the Design Notes: the
// riskiest part of the original source mixed parser state with emission in
// a single pointer-arithmetic loop; here parsing and emission are the same
// step but the function has no side effects beyond building the result.
func Generate(pattern string, job *model.JobState) (string, error) {
	var out strings.Builder
	i := 0
	n := len(pattern)

	for i < n {
		if pattern[i] == ' ' {
			i++
			continue
		}

		w, consumed := parseWidth(pattern[i:])
		i += consumed
		if i >= n {
			break
		}
		code := pattern[i]
		i++

		switch code {
		case '%':
			// Next space-delimited literal, truncated to w chars.
			start := i
			for i < n && pattern[i] != ' ' {
				i++
			}
			lit := pattern[start:i]
			out.WriteString(truncate(lit, w))

		case '*':
			// Per-item expansion: a second width may follow but is unused —
			// each item line is emitted at its natural width.
			_, consumed2 := parseWidth(pattern[i:])
			i += consumed2
			for _, item := range job.Items {
				var qty string
				if item.GUOM == "KG" {
					qty = fmt.Sprintf("%d", item.WeightOrQuantity.Mul(decimal.NewFromInt(1000)).Round(0).IntPart())
				} else {
					qty = fmt.Sprintf("%d", item.WeightOrQuantity.Round(0).IntPart())
				}
				out.WriteString(item.PLU)
				out.WriteByte(',')
				out.WriteString(qty)
				out.WriteString("\r\n")
			}

		case '{', '/', '}':
			out.WriteString(dateCode(job, code))

		case '[', '\\', ']':
			out.WriteString(timeCode(job, code))

		default:
			out.WriteString(singleCode(job, code, w))
		}
	}

	return out.String(), nil
}

// parseWidth parses an optional leading decimal width (default 1) and
// returns the width plus the number of bytes consumed.
func parseWidth(s string) (int, int) {
	j := 0
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == 0 {
		return 1, 0
	}
	w, _ := strconv.Atoi(s[:j])
	if w <= 0 {
		w = 1
	}
	return w, j
}

func truncate(s string, w int) string {
	if w > 0 && len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}

// padNum formats an integer zero-padded to width w; per the overflow rule
// (§4.3), a value wider than w is emitted at its natural width rather than
// truncated — Go's fmt verbs never truncate numeric output, so %0*d already
// satisfies this without special-casing.
func padNum(w, v int) string {
	return fmt.Sprintf("%0*d", w, v)
}

func padFloatInt(w int, v decimal.Decimal) string {
	return fmt.Sprintf("%0*d", w, v.Round(0).IntPart())
}

func singleCode(job *model.JobState, code byte, w int) string {
	switch code {
	case 'A':
		return padFloatInt(w, docDecimal(job, "total_amount").Mul(decimal.NewFromInt(100)))
	case 'B':
		d, _, _ := billDate(job)
		return padNum(w, d)
	case 'b':
		_, m, _ := billDate(job)
		return padNum(w, m)
	case 'C':
		return truncate(job.Get(3), w)
	case 'D':
		return padNum(w, atoiSafe(job.Get(21)))
	case 'E':
		return padFloatInt(w, docDecimal(job, "total_weight").Mul(decimal.NewFromInt(1000)))
	case 'F':
		return truncate(job.JobDocumentString("barcode_flag"), w)
	case 'G':
		return padNum(w, atoiSafe(job.Get(19)))
	case 'H':
		return padFloatInt(w, docDecimal(job, "total_quantity"))
	case 'I':
		return padFloatInt(w, docDecimal(job, "total_tax").Mul(decimal.NewFromInt(100)))
	case 'J':
		return padFloatInt(w, docDecimal(job, "total_discount").Mul(decimal.NewFromInt(100)))
	case 'K':
		return time.Now().Format("020106")
	case 'k':
		d, m, y := billDate(job)
		return fmt.Sprintf("%02d%02d%02d", d, m, y%100)
	case 'L':
		return padNum(w, atoiSafe(job.Get(1)))
	case 'M':
		return truncate(job.Get(4), w)
	case 'N':
		return padNum(w, atoiSafe(job.JobDocumentString("no_of_items")))
	case 'n':
		return padNum(w, atoiSafe(job.JobDocumentString("scale_no")))
	case 'O':
		return padNum(w, atoiSafe(job.JobDocumentString("operator_no")))
	case 'P':
		return padFloatInt(w, docDecimal(job, "total_price").Mul(decimal.NewFromInt(100)))
	case 'Q':
		if job.Get(4) == "pcs" {
			return padFloatInt(w, job.WeightOrQuantity)
		}
		return padNum(w, 0)
	case 'R':
		return padNum(w, 0)
	case 'S', 's':
		return padFloatInt(w, effectiveUnitPrice(job).Mul(decimal.NewFromInt(100)))
	case 'T':
		return padNum(w, 0)
	case 't':
		return truncate(job.JobDocumentString("bill_text"), w)
	case 'U':
		return padFloatInt(w, job.GetDecimal(5).Mul(decimal.NewFromInt(100)))
	case 'V', 'v':
		return padFloatInt(w, job.WeightOrQuantity.Mul(decimal.NewFromInt(1000)))
	case 'W':
		if job.Get(4) == "kg" {
			return padFloatInt(w, job.WeightOrQuantity.Mul(decimal.NewFromInt(1000)))
		}
		return padNum(w, 0)
	case 'w':
		return padFloatInt(w, job.GetDecimal(8).Mul(decimal.NewFromInt(1000)))
	case 'X':
		return padFloatInt(w, job.WeightOrQuantity.Mul(decimal.NewFromInt(1000)))
	case 'x':
		return padFloatInt(w, job.CurrentGrossWeight.Mul(decimal.NewFromInt(1000)))
	case 'Y':
		return time.Now().Format("150405")
	case 'y':
		h, m, s := billTime(job)
		return fmt.Sprintf("%02d%02d%02d", h, m, s)
	case 'Z':
		return truncate(job.JobDocumentString("scale_name"), w)
	case 'z':
		return padNum(w, atoiSafe(job.JobDocumentString("tare_no")))
	default:
		s := string(code)
		if len(s) < w {
			return strings.Repeat(" ", w-len(s)) + s
		}
		return s
	}
}

// docDecimal parses a job-document field as a decimal, defaulting to zero.
// Aggregate bill-level totals (total_amount, total_weight, total_tax,
// total_discount, total_quantity, total_price) have no dedicated numbered
// datapoint in the §4.2 catalog — they live only in the raw job document.
func docDecimal(job *model.JobState, key string) decimal.Decimal {
	v, err := decimal.NewFromString(job.JobDocumentString(key))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func atoiSafe(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func effectiveUnitPrice(job *model.JobState) decimal.Decimal {
	spl := job.GetDecimal(6)
	if spl.GreaterThan(decimal.Zero) {
		return spl
	}
	return job.GetDecimal(5)
}

func billDate(job *model.JobState) (day, month, year int) {
	s := job.JobDocumentString("bill_date") // YYYYMMDD
	if len(s) == 8 {
		year = atoiSafe(s[0:4])
		month = atoiSafe(s[4:6])
		day = atoiSafe(s[6:8])
		return
	}
	now := time.Now()
	return now.Day(), int(now.Month()), now.Year()
}

func billTime(job *model.JobState) (hour, minute, second int) {
	s := job.JobDocumentString("bill_time") // HHMMSS
	if len(s) == 6 {
		hour = atoiSafe(s[0:2])
		minute = atoiSafe(s[2:4])
		second = atoiSafe(s[4:6])
		return
	}
	now := time.Now()
	return now.Hour(), now.Minute(), now.Second()
}

func dateCode(job *model.JobState, code byte) string {
	var id int
	switch code {
	case '{':
		id = 10 // packed_date
	case '/':
		id = 12 // sellby_date
	case '}':
		id = 14 // useby_date
	}
	day, month, year := parseYYYYMMDD(job.Get(id))
	if job.LongDateFormat {
		return fmt.Sprintf("%02d%02d%04d", day, month, year)
	}
	return fmt.Sprintf("%02d%02d%02d", day, month, year%100)
}

func timeCode(job *model.JobState, code byte) string {
	var id int
	switch code {
	case '[':
		id = 11 // packed_time
	case '\\':
		id = 13 // sellby_time
	case ']':
		id = 15 // useby_time
	}
	raw := job.Get(id)
	hour, minute, second := parseHHMMSS(raw)
	if job.LongTimeFormat {
		return fmt.Sprintf("%02d%02d%02d", hour, minute, second)
	}
	return fmt.Sprintf("%02d%02d", hour, minute)
}

func parseYYYYMMDD(s string) (day, month, year int) {
	if len(s) != 8 {
		return 0, 0, 0
	}
	year = atoiSafe(s[0:4])
	month = atoiSafe(s[4:6])
	day = atoiSafe(s[6:8])
	return
}

func parseHHMMSS(s string) (hour, minute, second int) {
	if len(s) != 6 {
		return 0, 0, 0
	}
	hour = atoiSafe(s[0:2])
	minute = atoiSafe(s[2:4])
	second = atoiSafe(s[4:6])
	return
}
