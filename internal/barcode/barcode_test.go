package barcode

import (
	"testing"

	"github.com/shopspring/decimal"

	"device-service/internal/model"
)

func TestGenerateLiteral(t *testing.T) {
	job := model.NewJobState()
	got, err := Generate("3%ABC", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ABC" {
		t.Errorf("Generate(literal) = %q, want %q", got, "ABC")
	}
}

func TestGeneratePLU(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[1] = "42"
	got, err := Generate("6L", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "000042" {
		t.Errorf("Generate(plu) = %q, want %q", got, "000042")
	}
}

func TestGenerateWeightCode(t *testing.T) {
	job := model.NewJobState()
	job.WeightOrQuantity = decimal.RequireFromString("1.234")
	got, err := Generate("5X", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "01234" {
		t.Errorf("Generate(weight) = %q, want %q", got, "01234")
	}
}

func TestGenerateItemExpansion(t *testing.T) {
	job := model.NewJobState()
	job.Items = []model.LineItem{
		{PLU: "101", WeightOrQuantity: decimal.RequireFromString("0.500"), GUOM: "KG"},
		{PLU: "102", WeightOrQuantity: decimal.RequireFromString("3"), GUOM: "PCS"},
	}
	got, err := Generate("*", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "101,500\r\n102,3\r\n"
	if got != want {
		t.Errorf("Generate(item expansion) = %q, want %q", got, want)
	}
}

func TestGenerateQuantityCodeCaseSensitive(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[4] = "pcs"
	job.WeightOrQuantity = decimal.RequireFromString("3")
	got, err := Generate("5Q", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "00003" {
		t.Errorf("Generate(Q, guom=pcs) = %q, want %q", got, "00003")
	}

	job.Datapoints[4] = "PCS" // wrong case must not match
	got, err = Generate("5Q", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "00000" {
		t.Errorf("Generate(Q, guom=PCS) = %q, want %q (case-sensitive, no match)", got, "00000")
	}
}

func TestGenerateWeightInGramsCodeCaseSensitive(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[4] = "kg"
	job.WeightOrQuantity = decimal.RequireFromString("1.5")
	got, err := Generate("5W", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "01500" {
		t.Errorf("Generate(W, guom=kg) = %q, want %q", got, "01500")
	}

	job.Datapoints[4] = "KG" // wrong case must not match
	got, err = Generate("5W", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "00000" {
		t.Errorf("Generate(W, guom=KG) = %q, want %q (case-sensitive, no match)", got, "00000")
	}
}

func TestGenerateDateCodeShortYear(t *testing.T) {
	job := model.NewJobState()
	job.Datapoints[10] = "20260315"
	got, err := Generate("{", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "150326" {
		t.Errorf("Generate(packed_date) = %q, want %q", got, "150326")
	}
}

func TestGenerateDateCodeLongYear(t *testing.T) {
	job := model.NewJobState()
	job.LongDateFormat = true
	job.Datapoints[10] = "20260315"
	got, err := Generate("{", job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "15032026" {
		t.Errorf("Generate(packed_date long) = %q, want %q", got, "15032026")
	}
}
