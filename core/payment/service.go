// Package payment hands payments over to ePayco and tracks their outcome.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
)

const (
	intentPath = "/payments/intent"
	statusPath = "/payments/status/"
)

type Service struct {
	api             *backend.Client
	validate        *validator.Validate
	checkout        *Checkout
	ledger          Ledger
	mailSvc         core.EmailService
	logger          core.Logger
	frontendBaseURL string
	nowFunc         func() time.Time
}

func NewService(
	api *backend.Client,
	validate *validator.Validate,
	checkout *Checkout,
	ledger Ledger,
	mailSvc core.EmailService,
	logger core.Logger,
	frontendBaseURL string,
) *Service {
	return &Service{
		api:             api,
		validate:        validate,
		checkout:        checkout,
		ledger:          ledger,
		mailSvc:         mailSvc,
		logger:          logger,
		frontendBaseURL: frontendBaseURL,
		nowFunc:         time.Now,
	}
}

// ErrNotConfigured is returned by Checkout when the gateway has no ePayco credentials.
var ErrNotConfigured = errors.New("payment gateway not configured")

// Ledger returns the local payment ledger.
func (svc *Service) Ledger() Ledger { return svc.ledger }

// Checkout opens an invoice with the API and builds the ePayco form for it.
// A nil checkout leaves the rest of the service working.
func (svc *Service) Checkout(ctx context.Context, auth backend.Auth, req IntentRequest) (*CheckoutForm, error) {
	if svc.checkout == nil {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(svc.validate); err != nil {
		return nil, err
	}
	var in Intent
	if err := svc.api.JSON(ctx, http.MethodPost, intentPath, auth, req, &in); err != nil {
		return nil, errors.Wrap(err, "creating payment intent")
	}
	if in.Concept == "" {
		in.Concept = req.Concept
	}
	if err := svc.validate.Struct(in); err != nil {
		svc.logger.Error("invalid payment intent", err, map[string]interface{}{"concept": req.Concept})
		return nil, &core.BackendError{Status: http.StatusBadGateway, Message: "respuesta de pago inválida"}
	}

	now := svc.nowFunc().UTC()
	err := svc.ledger.Record(ctx, Entry{
		Reference:   in.Invoice,
		Concept:     in.Concept,
		Description: in.Description,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Email:       in.Email,
		Name:        in.Name,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "recording payment")
	}

	var refID string
	if req.ReferenceID != nil {
		refID = fmt.Sprint(req.ReferenceID)
	}
	return svc.checkout.Form(in, in.Concept, refID), nil
}

// Status asks the API for the transaction state of ref, records it, and sends the
// receipt the first time the payment is seen approved.
func (svc *Service) Status(ctx context.Context, auth backend.Auth, ref string) (StatusResult, error) {
	ref = core.CleanString(ref)
	if err := svc.validate.Var(ref, "required,invoice"); err != nil {
		return StatusResult{}, core.NewValidationError(nil, core.FieldError{Field: "ref", Error: "referencia inválida"})
	}

	var res statusResponse
	if err := svc.api.JSON(ctx, http.MethodGet, statusPath+url.PathEscape(ref), auth, nil, &res); err != nil {
		return StatusResult{}, errors.Wrap(err, "fetching payment status")
	}
	state := res.state()
	status := NormalizeStatus(state)

	now := svc.nowFunc().UTC()
	err := svc.ledger.Record(ctx, Entry{
		Reference:   ref,
		Concept:     res.Concept,
		Description: res.Description,
		Amount:      res.Amount,
		Currency:    res.Currency,
		Email:       res.Email,
		Name:        res.Name,
		Status:      status,
		State:       state,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return StatusResult{}, errors.Wrap(err, "recording payment status")
	}

	if status == StatusApproved {
		first, err := svc.ledger.MarkApproved(ctx, ref, now)
		if err != nil {
			return StatusResult{}, errors.Wrap(err, "marking payment approved")
		}
		if first {
			svc.sendReceipt(ctx, ref)
		}
	}

	return StatusResult{
		Reference: ref,
		Status:    status,
		State:     state,
		Final:     IsFinal(status),
		Amount:    res.Amount,
		Currency:  res.Currency,
	}, nil
}

func (svc *Service) sendReceipt(ctx context.Context, ref string) {
	e, err := svc.ledger.Get(ctx, ref)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading payment %s for receipt", ref), err)
		return
	}
	if e.Email == "" || svc.mailSvc == nil {
		return
	}
	name := e.Name
	if name == "" {
		name = e.Email
	}
	msg := &core.EmailMessage{
		To:              []mail.Address{{Name: e.Name, Address: e.Email}},
		Subject:         "Pago recibido",
		TemplateName:    "payment_receipt",
		FrontendBaseURL: svc.frontendBaseURL,
		TemplateData: map[string]interface{}{
			"Name":        name,
			"Amount":      formatAmount(e.Amount),
			"Currency":    e.Currency,
			"Description": e.Description,
			"Invoice":     e.Reference,
			"Date":        e.ApprovedAt.Format(core.DateLayout),
		},
	}
	// the receipt still goes out without its copy
	if err = msg.Attach(strings.NewReader(receiptText(e)), ReceiptFilename(e.Reference), "text/plain; charset=utf-8"); err != nil {
		svc.logger.Error(fmt.Sprintf("attaching receipt %s", ref), err)
	}
	svc.mailSvc.SendMessages(msg)
}

// ReceiptFilename names the receipt attached to the confirmation email of ref.
func ReceiptFilename(ref string) string {
	return "recibo-" + ref + ".txt"
}

func receiptText(e Entry) string {
	b := new(strings.Builder)
	fmt.Fprintln(b, "Comprobante de pago")
	fmt.Fprintf(b, "Referencia: %s\n", e.Reference)
	if e.Concept != "" {
		fmt.Fprintf(b, "Concepto: %s\n", e.Concept)
	}
	if e.Description != "" {
		fmt.Fprintf(b, "Descripción: %s\n", e.Description)
	}
	fmt.Fprintf(b, "Valor: %s %s\n", formatAmount(e.Amount), e.Currency)
	fmt.Fprintf(b, "Fecha: %s\n", e.ApprovedAt.Format(core.DateLayout))
	fmt.Fprintf(b, "Estado: %s\n", e.Status)
	return b.String()
}
