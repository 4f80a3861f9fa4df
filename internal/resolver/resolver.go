// internal/resolver/resolver.go
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"device-service/internal/model"
)

// ErrUnknownVariable is returned when a datapoint id falls outside the
// closed 1..96 catalog (§7 error taxonomy: UnknownVariable).
var ErrUnknownVariable = errors.New("resolver: unknown variable")

// Resolve maps a numeric data-id to its formatted string per the catalog
// in §4.2. Ids outside 1..96 resolve to "" with ErrUnknownVariable; every
// id inside the catalog always returns a string and a nil error, even when
// no special formatting rule applies (it falls back to the raw stored
// value, matching the original's behavior of simply printing whatever the
// job document supplied for datapoints the switch statement didn't treat
// specially).
func Resolve(job *model.JobState, dataID int) (string, error) {
	if dataID < 1 || dataID > 96 {
		return "", ErrUnknownVariable
	}

	switch dataID {
	case 1: // plu_id
		return fmt.Sprintf("%04d", atoi(job.Get(1))), nil
	case 2, 3: // plu_name, plu_code
		return job.Get(dataID), nil
	case 4: // unit-of-measure label
		return uomLabel(job), nil
	case 5: // unit_price
		return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(5))), nil
	case 6: // special unit price, falls through to unit_price
		spl := job.GetDecimal(6)
		if spl.GreaterThan(decimal.Zero) {
			return fmt.Sprintf("%.2f", toFloat(spl)), nil
		}
		return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(5))), nil
	case 7: // quantity
		return fmt.Sprintf("%02d", atoi(job.Get(7))), nil
	case 8: // tare_wt
		return fmt.Sprintf("%.3f", toFloat(job.GetDecimal(8))), nil
	case 9: // fixed_price
		return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(9))), nil
	case 10, 11, 12, 13, 14, 15: // packed/sellby/useby date/time, verbatim
		return job.Get(dataID), nil
	case 16, 17, 18: // thresholds
		return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(dataID))), nil
	case 19: // group_no
		return fmt.Sprintf("%03d", atoi(job.Get(19))), nil
	case 21: // department_no
		return fmt.Sprintf("%02d", atoi(job.Get(21))), nil
	case 43, 45: // discount target
		if job.Get(4) == "kg" {
			return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(dataID))), nil
		}
		return fmt.Sprintf("%.0f", toFloat(job.GetDecimal(dataID))), nil
	case 44, 46: // discount value
		discType := job.JobDocumentString("discount_type")
		v := toFloat(job.GetDecimal(dataID))
		if strings.EqualFold(discType, "Flat") {
			return fmt.Sprintf("Rs. %.2f", v), nil
		}
		return fmt.Sprintf("%.2f%%", v), nil
	case 65: // ingredients_text, verbatim, newlines preserved
		return job.Get(65), nil
	case 69, 70, 71: // weights
		return fmt.Sprintf("%.3f", toFloat(job.GetDecimal(dataID))), nil
	case 72: // weight_or_quantity
		return weightOrQuantity(job), nil
	case 73: // actual_unit_price
		return fmt.Sprintf("%.2f", toFloat(job.GetDecimal(73))), nil
	case 79: // bill_no
		return fmt.Sprintf("%05d", atoi(job.Get(79))), nil
	case 82: // scale_capacity
		return fmt.Sprintf("%.0f", toFloat(job.GetDecimal(82))), nil
	case 83: // scale_accuracy
		return fmt.Sprintf("%.3f", toFloat(job.GetDecimal(83))), nil
	case 87: // total_quantity
		return fmt.Sprintf("%.0f", toFloat(job.GetDecimal(87))), nil
	case 88: // total_weight
		return fmt.Sprintf("%.3f", toFloat(job.GetDecimal(88))), nil
	case 89:
		if job.GetDecimal(87).GreaterThan(decimal.Zero) {
			return fmt.Sprintf("%.0f", toFloat(job.GetDecimal(87))), nil
		}
		return fmt.Sprintf("%.3f", toFloat(job.GetDecimal(88))), nil
	case 92: // today_bill_no
		return fmt.Sprintf("%05d", atoi(job.Get(92))), nil
	case 94:
		if job.Get(94) == "pcs" {
			return "PCS", nil
		}
		return "kg", nil
	default:
		return job.Get(dataID), nil
	}
}

func uomLabel(job *model.JobState) string {
	uom := job.Get(94)
	if uom == "pcs" {
		return "PCS"
	}
	if job.WeightOrQuantity.LessThan(decimal.NewFromFloat(1.0)) {
		return "g"
	}
	return "kg"
}

func weightOrQuantity(job *model.JobState) string {
	v := job.WeightOrQuantity
	if job.UOM == model.UOMWeigh {
		if job.LblWtGrams && v.LessThanOrEqual(decimal.NewFromFloat(1.0)) {
			grams := v.Mul(decimal.NewFromInt(1000)).Round(0)
			return fmt.Sprintf("%d", grams.IntPart())
		}
		return fmt.Sprintf("%.3f", toFloat(v))
	}
	return fmt.Sprintf("%.0f", toFloat(v))
}

func atoi(s string) int {
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
