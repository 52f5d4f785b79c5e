// Package mass covers mass schedules, mass intention requests and day availability.
package mass

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core/backend"
)

const (
	requestsPath  = "/mass-requests"
	schedulesPath = "/mass-schedules"
)

type Service struct {
	api      *backend.Client
	validate *validator.Validate
	nowFunc  func() time.Time
}

func NewService(api *backend.Client, validate *validator.Validate, nowFunc func() time.Time) *Service {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Service{api: api, validate: validate, nowFunc: nowFunc}
}

// CreateRequest validates a mass intention request and files it with the API.
func (svc *Service) CreateRequest(ctx context.Context, auth backend.Auth, mr MassRequest) (backend.Document, error) {
	if err := mr.Validate(svc.validate, svc.nowFunc()); err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPost, requestsPath, auth, mr)
	return doc, errors.Wrap(err, "creating mass request")
}

// UpdateRequest validates and replaces mass request id.
func (svc *Service) UpdateRequest(ctx context.Context, auth backend.Auth, id string, mr MassRequest) (backend.Document, error) {
	if err := mr.Validate(svc.validate, svc.nowFunc()); err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPut, requestsPath+"/"+id, auth, mr)
	return doc, errors.Wrap(err, "updating mass request")
}

// CreateSchedule validates and publishes a new celebration slot.
func (svc *Service) CreateSchedule(ctx context.Context, auth backend.Auth, ms MassSchedule) (backend.Document, error) {
	if err := ms.Validate(svc.validate, svc.nowFunc()); err != nil {
		return backend.Document{}, err
	}
	doc, err := svc.api.Document(ctx, http.MethodPost, schedulesPath, auth, ms)
	return doc, errors.Wrap(err, "creating mass schedule")
}
