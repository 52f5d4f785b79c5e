// Package certificate handles requests for certified copies of sacrament records.
package certificate

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
)

const requestsPath = "/departure-requests"

type Service struct {
	api             *backend.Client
	validate        *validator.Validate
	mailSvc         core.EmailService
	frontendBaseURL string
}

func NewService(api *backend.Client, validate *validator.Validate, mailSvc core.EmailService, frontendBaseURL string) *Service {
	return &Service{api: api, validate: validate, mailSvc: mailSvc, frontendBaseURL: frontendBaseURL}
}

// Create files the request and, once the API accepts it, confirms it by email.
// The confirmation goes to the request's email, or to requester when it has none.
func (svc *Service) Create(ctx context.Context, auth backend.Auth, dr DepartureRequest, requester mail.Address) (backend.Document, error) {
	if err := dr.Validate(svc.validate); err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPost, requestsPath, auth, dr)
	if err != nil {
		return backend.Document{}, errors.Wrap(err, "creating departure request")
	}
	svc.sendConfirmation(dr, requester)
	return doc, nil
}

// Update validates and replaces request id.
func (svc *Service) Update(ctx context.Context, auth backend.Auth, id string, dr DepartureRequest) (backend.Document, error) {
	if err := dr.Validate(svc.validate); err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPut, requestsPath+"/"+id, auth, dr)
	return doc, errors.Wrap(err, "updating departure request")
}

func (svc *Service) sendConfirmation(dr DepartureRequest, requester mail.Address) {
	to := requester
	if dr.Email != "" {
		to = mail.Address{Name: dr.FullName, Address: dr.Email}
	}
	if to.Address == "" || svc.mailSvc == nil {
		return
	}
	name := to.Name
	if name == "" {
		name = dr.FullName
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{to},
		Subject:         "Solicitud de partida recibida",
		TemplateName:    "certificate_request",
		FrontendBaseURL: svc.frontendBaseURL,
		TemplateData: map[string]interface{}{
			"Name":   name,
			"Kind":   dr.KindLabel(),
			"Person": dr.FullName,
		},
	})
}
