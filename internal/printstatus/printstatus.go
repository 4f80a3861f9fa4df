// internal/printstatus/printstatus.go
package printstatus

import (
	"github.com/shopspring/decimal"

	"device-service/internal/model"
)

// priceDeltaTolerance is the original source's fabs(a-b)<0.001 threshold,
// expressed as a decimal so the comparison never suffers binary-float
// accumulation error (§3 Design Notes).
var priceDeltaTolerance = decimal.New(1, -3)

// ShouldPrint is the Print-Status Gate (§4.5): a 5-value predicate deciding
// whether a line item should be printed at all, given its UOM class and
// whether a special price matches the regular unit price within tolerance.
func ShouldPrint(statusChar byte, uom model.UOMType, unitPrice, actualUnitPrice decimal.Decimal) bool {
	delta := unitPrice.Sub(actualUnitPrice).Abs()
	priceUnchanged := delta.LessThan(priceDeltaTolerance)

	switch statusChar {
	case '0': // Never print (No)
		return false
	case '1': // Always print (All)
		return true
	case '2': // Print Only Weighing (WEIGH)
		return uom == model.UOMWeigh
	case '3': // Print only Non Weighing (NON WEIGH Ex: PCS)
		return uom == model.UOMPieces
	case '4': // WEIGH & Special Price
		return uom == model.UOMWeigh && priceUnchanged
	case '5': // PCS & Special Price
		return uom == model.UOMPieces && priceUnchanged
	default:
		return true
	}
}
