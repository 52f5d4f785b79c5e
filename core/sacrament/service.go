// Package sacrament validates sacrament record forms before they reach the parish API.
package sacrament

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
)

var ErrUnknownKind = errors.New("unknown sacrament kind")

type Service struct {
	api      *backend.Client
	validate *validator.Validate
}

func NewService(api *backend.Client, validate *validator.Validate) *Service {
	return &Service{api: api, validate: validate}
}

// Decode parses and validates a form of the given kind.
func (svc *Service) Decode(kind Kind, raw []byte) (Record, error) {
	rec := New(kind)
	if rec == nil {
		return nil, ErrUnknownKind
	}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, core.NewValidationError(errors.New("formulario inválido"))
	}
	if err := rec.Validate(svc.validate); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create validates the form and stores it through the API, returning the API's document.
func (svc *Service) Create(ctx context.Context, auth backend.Auth, kind Kind, raw []byte) (backend.Document, error) {
	rec, err := svc.Decode(kind, raw)
	if err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPost, "/"+string(kind), auth, rec)
	return doc, errors.Wrapf(err, "creating %s record", kind.Label())
}

// Update validates the form and replaces record id through the API.
func (svc *Service) Update(ctx context.Context, auth backend.Auth, kind Kind, id string, raw []byte) (backend.Document, error) {
	rec, err := svc.Decode(kind, raw)
	if err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPut, "/"+string(kind)+"/"+id, auth, rec)
	return doc, errors.Wrapf(err, "updating %s record", kind.Label())
}
