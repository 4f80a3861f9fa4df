// internal/job/job.go
package job

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"device-service/internal/encoder"
	"device-service/internal/model"
	"device-service/internal/scale"
	"device-service/internal/serialio"
	"device-service/internal/template"
)

// Storage is the subset of the storage adapter the orchestrator needs.
type Storage interface {
	GetTemplate(slot int) ([]byte, error)
	template.TemplateStore
}

// Envelope is the parsed four-line client request (§4.7 / §6).
type Envelope struct {
	JobDocumentPath string
	TemplateSlot    int
}

// Orchestrator loads a job document and template, runs the interpreter
// against the printer serial FD, and reports the result.
type Orchestrator struct {
	storage Storage
	serial  *serialio.Manager
	logger  *zap.Logger
}

// New returns an Orchestrator wired to the given storage adapter and serial
// manager.
func New(storage Storage, serial *serialio.Manager, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{storage: storage, serial: serial, logger: logger}
}

// rawJobDocument mirrors the JSON job document's top-level shape: a flat
// "data" map of numbered datapoints (as strings) plus free-form fields
// consulted by name (discount_type, bill_date, total_amount, ...).
type rawJobDocument struct {
	Data map[string]string
	Doc  map[string]interface{}
}

func (r *rawJobDocument) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	r.Doc = m
	r.Data = make(map[string]string)
	if d, ok := m["data"].(map[string]interface{}); ok {
		for k, v := range d {
			switch t := v.(type) {
			case string:
				r.Data[k] = t
			default:
				r.Data[k] = fmt.Sprintf("%v", t)
			}
		}
	}
	return nil
}

// RunPrintJob executes one print job: parse document, apply overrides,
// optionally query the scale, load and interpret the template, and return
// the client-facing reply token ("OK" or an error description).
func (o *Orchestrator) RunPrintJob(envelope Envelope, docBytes []byte) (string, error) {
	jobID := uuid.NewString()
	log := o.logger.With(zap.String("job_id", jobID), zap.Int("slot", envelope.TemplateSlot))

	job, err := o.loadJobState(docBytes)
	if err != nil {
		log.Error("failed to parse job document", zap.Error(err))
		return "Error printing", err
	}

	if job.UOM == model.UOMWeigh && o.serial != nil {
		if weight, err := o.serial.ReadScaleWeight(); err != nil {
			log.Warn("scale RD_WEIGHT returned no data", zap.Error(err))
		} else {
			job.CurrentGrossWeight = weight
			job.WeightOrQuantity = weight
		}
	}

	blob, err := o.storage.GetTemplate(envelope.TemplateSlot)
	if err != nil {
		log.Error("no template found for slot", zap.Error(err))
		return "Error printing", err
	}

	if o.serial == nil {
		return "Error printing", fmt.Errorf("job: no printer connection configured")
	}

	if _, err := o.serial.PrinterWriter().Write(encoder.New().Init().Bytes()); err != nil {
		log.Error("printer reset failed", zap.Error(err))
		return "Error printing", err
	}

	if err := template.Run(blob, job, o.storage, o.serial.PrinterWriter()); err != nil {
		log.Error("template interpretation failed", zap.Error(err))
		return "Error printing", err
	}

	log.Info("print job completed")
	return "OK", nil
}

// RunScaleCommand dispatches one MODE:WEIGHT line to the scale package.
func (o *Orchestrator) RunScaleCommand(line string) (scale.Reply, error) {
	if o.serial == nil {
		return scale.Reply{}, fmt.Errorf("job: no scale connection configured")
	}
	return scale.Process(line, o.serial)
}

func (o *Orchestrator) loadJobState(docBytes []byte) (*model.JobState, error) {
	var raw rawJobDocument
	if err := json.Unmarshal(docBytes, &raw); err != nil {
		return nil, fmt.Errorf("job: parse document: %w", err)
	}

	job := model.NewJobState()
	job.JobDocument = raw.Doc
	for k, v := range raw.Data {
		id := atoi(k)
		if id > 0 {
			job.Datapoints[id] = v
		}
	}

	job.UOM = deriveUOM(job.Get(4), job.Get(94))

	// actual_unit_price and spl_up are taken from the nested "data" object,
	// falling back to a top-level key of the same name.
	if v, ok := raw.Data["actual_unit_price"]; ok {
		job.Datapoints[73] = v
	} else if v, ok := raw.Doc["actual_unit_price"]; ok {
		job.Datapoints[73] = fmt.Sprintf("%v", v)
	}
	// spl_up overrides unit_price (datapoint 5) per the original load order;
	// datapoint 6 (the special-price display field) is left untouched so
	// callers can still distinguish "was there a special price" from
	// "what price actually got charged".
	s, hasSplUp := raw.Data["spl_up"]
	if v, ok := raw.Doc["spl_up"]; ok && !hasSplUp {
		s, hasSplUp = fmt.Sprintf("%v", v), true
	}
	if hasSplUp {
		if d, err := decimal.NewFromString(s); err == nil && d.GreaterThan(decimal.Zero) {
			job.Datapoints[5] = s
		}
	}

	job.LongDateFormat = boolField(raw.Doc, "long_date_format")
	job.LongTimeFormat = boolField(raw.Doc, "long_time_format")
	job.LblWtGrams = boolField(raw.Doc, "lbl_wt_grams")

	if wq := job.GetDecimal(72); wq.GreaterThan(decimal.Zero) {
		job.WeightOrQuantity = wq
	}
	job.CurrentGrossWeight = job.GetDecimal(71)

	job.Items = parseItems(raw.Doc)

	return job, nil
}

func parseItems(doc map[string]interface{}) []model.LineItem {
	raw, ok := doc["items"].([]interface{})
	if !ok {
		return nil
	}
	items := make([]model.LineItem, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		item := model.LineItem{
			PLU:  fmt.Sprintf("%v", m["plu"]),
			GUOM: fmt.Sprintf("%v", m["guom"]),
		}
		if v, err := decimal.NewFromString(fmt.Sprintf("%v", m["weight_or_quantity"])); err == nil {
			item.WeightOrQuantity = v
		}
		items = append(items, item)
	}
	return items
}

func boolField(doc map[string]interface{}, key string) bool {
	v, ok := doc[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// deriveUOM classifies a job document's unit of measure from its guom
// (datapoint 4) and uom (datapoint 94) fields: either field naming kg or g
// makes it a weigh item, either naming pcs makes it a pieces item, and any
// other value (or neither field set) defaults to pieces rather than weigh.
func deriveUOM(guom, uom string) model.UOMType {
	if stringEqualFold(uom, "kg") || stringEqualFold(uom, "g") ||
		stringEqualFold(guom, "kg") || stringEqualFold(guom, "g") {
		return model.UOMWeigh
	}
	return model.UOMPieces
}

func stringEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
