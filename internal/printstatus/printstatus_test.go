package printstatus

import (
	"testing"

	"github.com/shopspring/decimal"

	"device-service/internal/model"
)

func TestShouldPrint(t *testing.T) {
	unchanged := decimal.NewFromFloat(10.00)
	unchangedClose := decimal.NewFromFloat(10.0005)
	changed := decimal.NewFromFloat(10.01)

	tests := []struct {
		name   string
		status byte
		uom    model.UOMType
		price  decimal.Decimal
		actual decimal.Decimal
		want   bool
	}{
		{"never print", '0', model.UOMWeigh, unchanged, unchanged, false},
		{"always print", '1', model.UOMPieces, changed, unchanged, true},
		{"weigh only - weigh", '2', model.UOMWeigh, unchanged, unchanged, true},
		{"weigh only - pcs", '2', model.UOMPieces, unchanged, unchanged, false},
		{"pcs only - pcs", '3', model.UOMPieces, unchanged, unchanged, true},
		{"pcs only - weigh", '3', model.UOMWeigh, unchanged, unchanged, false},
		{"weigh + unchanged price", '4', model.UOMWeigh, unchanged, unchanged, true},
		{"weigh + unchanged within tolerance", '4', model.UOMWeigh, unchanged, unchangedClose, true},
		{"weigh + changed price", '4', model.UOMWeigh, unchanged, changed, false},
		{"weigh + unchanged but pcs", '4', model.UOMPieces, unchanged, unchanged, false},
		{"pcs + unchanged price", '5', model.UOMPieces, unchanged, unchanged, true},
		{"pcs + changed price", '5', model.UOMPieces, unchanged, changed, false},
		{"unknown status defaults to always", 'x', model.UOMWeigh, changed, unchanged, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldPrint(tc.status, tc.uom, tc.price, tc.actual)
			if got != tc.want {
				t.Errorf("ShouldPrint(%q, %v, %v, %v) = %v, want %v",
					tc.status, tc.uom, tc.price, tc.actual, got, tc.want)
			}
		})
	}
}
