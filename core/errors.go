package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrInternal is the generic message shown when a failure has nothing better to say.
const ErrInternal = "error interno del servidor"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// BackendError is a non-2xx answer of the parish API.
type BackendError struct {
	Status  int
	Message string
	Body    []byte // raw response body, relayed as-is when it is JSON
}

func (err BackendError) Error() string {
	return http.StatusText(err.Status) + ": " + err.Message
}

// IsUnauthorized reports whether err is a 401 coming from the backend.
func IsUnauthorized(err error) bool {
	if bErr, ok := errors.Cause(err).(*BackendError); ok {
		return bErr.Status == http.StatusUnauthorized
	}
	return false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
