package payment

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
)

// Normalized payment states.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPending  = "pending"
	StatusFailed   = "failed"
)

var ErrNotFound = errors.New("payment not found")

// gateway state (or code) -> normalized status
var states = map[string]string{
	"aceptada": StatusApproved, "aprobada": StatusApproved, "approved": StatusApproved, "accepted": StatusApproved, "1": StatusApproved,
	"rechazada": StatusRejected, "rejected": StatusRejected, "cancelada": StatusRejected, "abandonada": StatusRejected, "2": StatusRejected,
	"pendiente": StatusPending, "pending": StatusPending, "3": StatusPending,
	"fallida": StatusFailed, "failed": StatusFailed, "error": StatusFailed, "4": StatusFailed,
}

// NormalizeStatus maps an ePayco state to approved, rejected, pending or failed.
// Unknown states are treated as pending.
func NormalizeStatus(state string) string {
	if st, ok := ParseStatus(state); ok {
		return st
	}
	return StatusPending
}

// ParseStatus is NormalizeStatus for user input: ok is false for unknown states.
func ParseStatus(state string) (status string, ok bool) {
	status, ok = states[core.CleanString(state, true /* lower */)]
	return status, ok
}

// IsFinal reports whether the status will not change anymore.
func IsFinal(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusFailed
}

// IntentRequest asks the API to price a concept (a certificate, a mass intention...) and open an invoice.
type IntentRequest struct {
	Concept     string      `json:"concept" validate:"required,max=120"`
	ReferenceID interface{} `json:"referenceId,omitempty"`
}

func (ir *IntentRequest) Validate(validate *validator.Validate) error {
	ir.Concept = core.CleanString(ir.Concept)
	if s, ok := ir.ReferenceID.(string); ok {
		ir.ReferenceID = core.CleanString(s)
	}
	return validate.Struct(ir)
}

// Intent is the invoice the API opened for a payment.
type Intent struct {
	Invoice     string  `json:"invoice" validate:"required,invoice"`
	Concept     string  `json:"concept"`
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Tax         float64 `json:"tax" validate:"gte=0"`
	TaxBase     float64 `json:"taxBase" validate:"gte=0"`
	Currency    string  `json:"currency"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Name        string  `json:"name"`
	Signature   string  `json:"signature,omitempty"`
}

// Entry is the gateway's local record of a payment.
type Entry struct {
	Reference   string    `json:"ref"`
	Concept     string    `json:"concept,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	Status      string    `json:"status"`
	State       string    `json:"state,omitempty"` // raw gateway state
	ApprovedAt  time.Time `json:"approvedAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Merge overwrites e's fields with the non-empty ones of upd.
func (e Entry) Merge(upd Entry) Entry {
	if upd.Concept != "" {
		e.Concept = upd.Concept
	}
	if upd.Description != "" {
		e.Description = upd.Description
	}
	if upd.Amount != 0 {
		e.Amount = upd.Amount
	}
	if upd.Currency != "" {
		e.Currency = upd.Currency
	}
	if upd.Email != "" {
		e.Email = upd.Email
	}
	if upd.Name != "" {
		e.Name = upd.Name
	}
	if upd.Status != "" {
		e.Status = upd.Status
	}
	if upd.State != "" {
		e.State = upd.State
	}
	if !upd.UpdatedAt.IsZero() {
		e.UpdatedAt = upd.UpdatedAt
	}
	return e
}

// Filter selects ledger entries; zero fields match everything. To is exclusive.
type Filter struct {
	From   time.Time
	To     time.Time
	Status string
}

// Ledger stores the payments seen by the gateway.
type Ledger interface {
	// Record creates the entry or merges it into the existing one.
	Record(ctx context.Context, e Entry) error
	// MarkApproved sets the approval time once; it reports false if it was already set.
	MarkApproved(ctx context.Context, ref string, at time.Time) (bool, error)
	Get(ctx context.Context, ref string) (Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// statusResponse accepts the field names the API and ePayco use for a transaction.
type statusResponse struct {
	Status      string  `json:"status"`
	Estado      string  `json:"estado"`
	XResponse   string  `json:"x_response"`
	XCode       string  `json:"x_cod_response"`
	Invoice     string  `json:"invoice"`
	Concept     string  `json:"concept"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
}

func (r statusResponse) state() string {
	for _, s := range []string{r.Status, r.Estado, r.XResponse, r.XCode} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// StatusResult is what the response page polls.
type StatusResult struct {
	Reference string  `json:"ref"`
	Status    string  `json:"status"`
	State     string  `json:"state,omitempty"`
	Final     bool    `json:"final"`
	Amount    float64 `json:"amount,omitempty"`
	Currency  string  `json:"currency,omitempty"`
}
