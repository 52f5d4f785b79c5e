package certificate

import (
	"github.com/go-playground/validator/v10"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/sacrament"
)

// Delivery methods.
const (
	DeliveryPickup = "presencial"
	DeliveryEmail  = "correo"
)

// DepartureRequest asks the parish office for a certified copy ("partida") of a sacrament record.
type DepartureRequest struct {
	ID            interface{} `json:"id,omitempty"`
	Kind          string      `json:"tipoPartida" validate:"required"`
	FullName      string      `json:"nombreCompleto" validate:"required,max=120"`
	DocumentType  string      `json:"tipoDocumento" validate:"required,doctype"`
	Document      string      `json:"documento" validate:"required,alphanum,max=15"`
	SacramentDate string      `json:"fechaSacramento,omitempty" validate:"omitempty,datetime=2006-01-02,notfuture"`
	Parents       string      `json:"padres,omitempty" validate:"max=200"`
	Purpose       string      `json:"finalidad" validate:"required,max=300"`
	Delivery      string      `json:"entrega" validate:"required,oneof=presencial correo"`
	Email         string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string      `json:"telefono,omitempty" validate:"omitempty,phone"`
	Status        string      `json:"estado,omitempty"`
}

func (dr *DepartureRequest) Validate(validate *validator.Validate) error {
	dr.FullName = core.CleanString(dr.FullName)
	dr.DocumentType = core.CleanString(dr.DocumentType)
	dr.Document = core.CleanString(dr.Document)
	dr.SacramentDate = core.CleanString(dr.SacramentDate)
	dr.Parents = core.CleanString(dr.Parents)
	dr.Purpose = core.CleanString(dr.Purpose)
	dr.Delivery = core.CleanString(dr.Delivery, true /* lower */)
	dr.Email = core.CleanString(dr.Email, true /* lower */)
	dr.Phone = core.CleanString(dr.Phone)
	dr.Status = "" // set by the API

	if kind, ok := sacrament.ParseKind(dr.Kind); ok {
		dr.Kind = string(kind)
	}
	if err := validate.Struct(dr); err != nil {
		return err
	}
	if _, ok := sacrament.ParseKind(dr.Kind); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "tipoPartida", Error: "tipo de partida desconocido"})
	}
	if dr.Delivery == DeliveryEmail && dr.Email == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "indique el correo para el envío"})
	}
	return nil
}

// KindLabel is the Spanish name of the requested record.
func (dr DepartureRequest) KindLabel() string {
	return sacrament.Kind(dr.Kind).Label()
}
