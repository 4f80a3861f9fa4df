// internal/model/job.go
package model

import "github.com/shopspring/decimal"

// UOMType is the derived unit-of-measure class driving most formatting
// and print-status decisions.
type UOMType int

const (
	UOMPieces UOMType = iota
	UOMWeigh
)

// Geometry is the label size established by the ~S directive. Offsets are
// hardcoded to zero on every ~S in the source driver; they remain fields
// here so a future directive or config default has somewhere to land.
type Geometry struct {
	WidthMM   float64
	HeightMM  float64
	XOffsetMM float64
	YOffsetMM float64
}

// JobState holds the ~96 numbered datapoints for one print job, plus the
// derived flags computed from them. It is populated once from the job
// document and is read-only for the remainder of the job, except Geometry,
// which the template interpreter sets on each ~S directive.
type JobState struct {
	Datapoints map[int]string

	UOM         UOMType
	LblWtGrams  bool
	Geometry    Geometry

	// Scale-overridden fields (populated by the Job Orchestrator when the
	// scale is queried for a WEIGH job; §4.7).
	CurrentGrossWeight decimal.Decimal
	WeightOrQuantity   decimal.Decimal

	// JobDocument is the raw parsed job document, used by the ~V directive's
	// by-name fallback lookup (§4.4 Text) and by barcode codes that read
	// document fields by name.
	JobDocument map[string]interface{}

	// LongDateFormat/LongTimeFormat select DDMMYYYY/HHMMSS vs DDMMYY/HHMM
	// rendering for the packed/sellby/useby barcode codes (§4.3).
	LongDateFormat bool
	LongTimeFormat bool

	// Items backs the barcode "*" per-item expansion code.
	Items []LineItem
}

// LineItem is one line of a multi-item bill, consulted by the barcode
// engine's "*" expansion code.
type LineItem struct {
	PLU              string
	WeightOrQuantity decimal.Decimal
	GUOM             string
}

// NewJobState returns an empty, ready-to-populate job state.
func NewJobState() *JobState {
	return &JobState{
		Datapoints:  make(map[int]string),
		JobDocument: make(map[string]interface{}),
	}
}

// Get returns the raw string stored for a datapoint id, or "" if absent.
func (j *JobState) Get(id int) string {
	return j.Datapoints[id]
}

// GetDecimal parses a datapoint as a decimal, returning zero on failure.
func (j *JobState) GetDecimal(id int) decimal.Decimal {
	v, err := decimal.NewFromString(j.Datapoints[id])
	if err != nil {
		return decimal.Zero
	}
	return v
}

// JobDocumentString looks up a key directly in the raw parsed job document,
// used for fields that have no dedicated numbered datapoint (e.g. the
// discount "Flat"/"Percent" type tag consulted by resolver cases 44/46).
func (j *JobState) JobDocumentString(key string) string {
	if v, ok := j.JobDocument[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// TemplateRecord is the persisted label template blob keyed by slot.
type TemplateRecord struct {
	Slot    int
	Content []byte
}

// BarcodeTemplateRecord is the persisted barcode definition keyed by
// barcode_number (1..99).
type BarcodeTemplateRecord struct {
	Number int
	Data   string // ≤127 chars, Barcode Content Engine pattern
	Type   string
	Name   string
	Fld1   string
	Cond1  string
	Shift1 string
	Fld2   string
	Cond2  string
	Shift2 string
}
