// Package report aggregates the parish payments into accounting summaries.
package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/payment"
)

const (
	paymentsPath = "/payments"
	maxRange     = 366 * 24 * time.Hour
	noConcept    = "sin concepto"
)

// Payment is one transaction as listed by the API.
type Payment struct {
	Reference string
	Concept   string
	Amount    float64
	Status    string // normalized
	Date      time.Time
}

// UnmarshalJSON accepts the English and Spanish field names of the API.
func (p *Payment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Invoice   string      `json:"invoice"`
		Reference string      `json:"referencia"`
		Concept   string      `json:"concept"`
		Concepto  string      `json:"concepto"`
		Amount    json.Number `json:"amount"`
		Monto     json.Number `json:"monto"`
		Status    string      `json:"status"`
		Estado    string      `json:"estado"`
		Date      string      `json:"date"`
		Fecha     string      `json:"fecha"`
		CreatedAt string      `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Reference = firstOf(raw.Invoice, raw.Reference)
	p.Concept = firstOf(raw.Concept, raw.Concepto)
	p.Status = payment.NormalizeStatus(firstOf(raw.Status, raw.Estado))

	amount := firstOf(raw.Amount.String(), raw.Monto.String())
	if amount != "" {
		v, err := json.Number(amount).Float64()
		if err != nil {
			return errors.Wrapf(err, "payment %s amount", p.Reference)
		}
		p.Amount = v
	}
	p.Date = parseTime(firstOf(raw.Date, raw.Fecha, raw.CreatedAt))
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", core.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Line is one group of a summary.
type Line struct {
	Key            string  `json:"key"`
	Count          int     `json:"count"`
	Approved       int     `json:"approved"`
	ApprovedAmount float64 `json:"approvedAmount"`
}

// Report is the accounting summary of a date range.
type Report struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Count          int     `json:"count"`
	Approved       int     `json:"approved"`
	ApprovedAmount float64 `json:"approvedAmount"`
	ByConcept      []Line  `json:"byConcept"`
	ByMonth        []Line  `json:"byMonth"`
	ByStatus       []Line  `json:"byStatus"`
}

type group map[string]*Line

func (g group) add(key string, p Payment) {
	l, ok := g[key]
	if !ok {
		l = &Line{Key: key}
		g[key] = l
	}
	l.Count++
	if p.Status == payment.StatusApproved {
		l.Approved++
		l.ApprovedAmount += p.Amount
	}
}

func (g group) lines() []Line {
	lines := make([]Line, 0, len(g))
	for _, l := range g {
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}

// Aggregate summarizes payments; only approved payments add to the amounts.
func Aggregate(from, to string, payments []Payment) *Report {
	r := &Report{From: from, To: to}
	concepts, months, statuses := make(group), make(group), make(group)
	for _, p := range payments {
		r.Count++
		if p.Status == payment.StatusApproved {
			r.Approved++
			r.ApprovedAmount += p.Amount
		}
		concept := core.CleanString(p.Concept, true /* lower */)
		if concept == "" {
			concept = noConcept
		}
		concepts.add(concept, p)
		if !p.Date.IsZero() {
			months.add(p.Date.Format("2006-01"), p)
		}
		statuses.add(p.Status, p)
	}
	r.ByConcept = concepts.lines()
	r.ByMonth = months.lines()
	r.ByStatus = statuses.lines()
	return r
}

// FromLedger converts local ledger entries.
func FromLedger(entries []payment.Entry) []Payment {
	payments := make([]Payment, 0, len(entries))
	for _, e := range entries {
		payments = append(payments, Payment{
			Reference: e.Reference,
			Concept:   e.Concept,
			Amount:    e.Amount,
			Status:    e.Status,
			Date:      e.CreatedAt,
		})
	}
	return payments
}

// ParseRange validates a from/to pair of YYYY-MM-DD dates. to is inclusive.
func ParseRange(from, to string) (time.Time, time.Time, error) {
	var fields []core.FieldError
	f, err := core.ParseDate(from)
	if err != nil {
		fields = append(fields, core.FieldError{Field: "from", Error: "debe ser una fecha válida (AAAA-MM-DD)"})
	}
	t, err := core.ParseDate(to)
	if err != nil {
		fields = append(fields, core.FieldError{Field: "to", Error: "debe ser una fecha válida (AAAA-MM-DD)"})
	}
	if len(fields) > 0 {
		return f, t, core.NewValidationError(nil, fields...)
	}
	if t.Before(f) {
		return f, t, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "debe ser posterior a la fecha inicial"})
	}
	if t.Sub(f) > maxRange {
		return f, t, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "el rango no puede superar un año"})
	}
	return f, t, nil
}

type Service struct {
	api *backend.Client
}

func NewService(api *backend.Client) *Service {
	return &Service{api: api}
}

// Accounting fetches the API's payments between from and to (inclusive) and summarizes them.
func (svc *Service) Accounting(ctx context.Context, auth backend.Auth, from, to string) (*Report, error) {
	f, t, err := ParseRange(from, to)
	if err != nil {
		return nil, err
	}
	from, to = f.Format(core.DateLayout), t.Format(core.DateLayout)

	var payments []Payment
	path := backend.Query(paymentsPath, url.Values{"from": {from}, "to": {to}})
	if err = svc.api.JSON(ctx, http.MethodGet, path, auth, nil, (*paymentList)(&payments)); err != nil {
		return nil, errors.Wrap(err, "fetching payments")
	}
	return Aggregate(from, to, payments), nil
}

// paymentList accepts a bare list or a `{data: [...]}` envelope.
type paymentList []Payment

func (l *paymentList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]Payment)(l))
	}
	var env struct {
		Data     []Payment `json:"data"`
		Payments []Payment `json:"payments"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Data != nil {
		*l = env.Data
	} else {
		*l = env.Payments
	}
	return nil
}
