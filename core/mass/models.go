package mass

import (
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/parroquia/portal/core"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Intention types offered on the request form.
var IntentionTypes = []string{"accion_de_gracias", "difuntos", "salud", "aniversario", "otra"}

// MassSchedule is a celebration slot published by the parish office.
type MassSchedule struct {
	ID        interface{} `json:"id,omitempty"`
	Date      string      `json:"fecha" validate:"required,datetime=2006-01-02"`
	Time      string      `json:"hora" validate:"required,clock"`
	Celebrant string      `json:"celebrante" validate:"required,max=120"`
	Capacity  int         `json:"capacidad" validate:"required,min=1,max=50"`
	Place     string      `json:"lugar,omitempty" validate:"max=120"`
}

func (ms *MassSchedule) Validate(validate *validator.Validate, now time.Time) error {
	ms.Date = core.CleanString(ms.Date)
	ms.Time = core.CleanString(ms.Time)
	ms.Celebrant = core.CleanString(ms.Celebrant)
	ms.Place = core.CleanString(ms.Place)
	if err := validate.Struct(ms); err != nil {
		return err
	}
	return notPast("fecha", ms.Date, now)
}

// Slot is one bookable time of a day.
type Slot struct {
	Time      string `json:"hora"`
	Available bool   `json:"disponible"`
	Capacity  int    `json:"capacidad,omitempty"`
	Booked    int    `json:"reservadas,omitempty"`
}

// MassRequest is a parishioner's request for a mass intention.
type MassRequest struct {
	ID         interface{} `json:"id,omitempty"`
	Date       string      `json:"fecha" validate:"required,datetime=2006-01-02"`
	Time       string      `json:"hora" validate:"required,clock"`
	Type       string      `json:"tipo" validate:"required,intention"`
	Intention  string      `json:"intencion" validate:"required,min=3,max=300"`
	Requester  string      `json:"solicitante" validate:"required,max=120"`
	Phone      string      `json:"telefono,omitempty" validate:"omitempty,phone"`
	ScheduleID interface{} `json:"horarioId,omitempty"`
	Status     string      `json:"estado,omitempty"`
}

func (mr *MassRequest) Validate(validate *validator.Validate, now time.Time) error {
	mr.Date = core.CleanString(mr.Date)
	mr.Time = core.CleanString(mr.Time)
	mr.Type = core.CleanString(mr.Type, true /* lower */)
	mr.Intention = core.CleanString(mr.Intention)
	mr.Requester = core.CleanString(mr.Requester)
	mr.Phone = core.CleanString(mr.Phone)
	mr.Status = "" // set by the API
	if err := validate.Struct(mr); err != nil {
		return err
	}
	return notPast("fecha", mr.Date, now)
}

var (
	clockTag  = "clock"
	clockText = "{0} debe ser una hora válida (HH:MM)"

	intentionTag  = "intention"
	intentionText = "{0} debe ser un tipo de intención válido"
)

// InitValidators registers the mass-specific validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(clockTag, clockValidation)
	core.RegisterCustomTranslation(validate, translator, clockTag, clockText)

	_ = validate.RegisterValidation(intentionTag, intentionValidation)
	core.RegisterCustomTranslation(validate, translator, intentionTag, intentionText)
}

func clockValidation(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}

func intentionValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, t := range IntentionTypes {
		if v == t {
			return true
		}
	}
	return false
}

func notPast(field, date string, now time.Time) error {
	d, err := core.ParseDate(date)
	if err != nil {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "no puede ser una fecha pasada"})
	}
	return nil
}
