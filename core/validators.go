package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// DateLayout is the date format exchanged with the parish API and the forms.
const DateLayout = "2006-01-02"

var (
	// custom validation tags & texts
	docTypeTag  = "doctype"
	docTypeText = "{0} debe ser un tipo de documento válido (CC, TI, CE, RC, PA, NIT)"
	docTypes    = map[string]bool{"CC": true, "TI": true, "CE": true, "RC": true, "PA": true, "NIT": true}

	notFutureTag  = "notfuture"
	notFutureText = "{0} no puede ser una fecha futura"

	phoneTag   = "phone"
	phoneText  = "{0} debe ser un número de teléfono válido"
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ]{7,15}$`)

	invoiceTag   = "invoice"
	invoiceText  = "{0} debe ser una referencia de factura válida"
	invoiceRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "este campo es obligatorio"

	// NowFunc is used by date validators; mockable
	NowFunc = time.Now
)

// NewValidator returns a validator and its Spanish translator, set up with the app's custom rules.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

// NewTranslator returns the Spanish translator used for validation messages.
func NewTranslator() ut.Translator {
	_es := es.New()
	uni := ut.New(_es, _es)
	translator, _ := uni.GetTranslator("es")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = es_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(docTypeTag, docTypeValidation)
	RegisterCustomTranslation(validate, translator, docTypeTag, docTypeText)

	_ = validate.RegisterValidation(notFutureTag, notFutureValidation)
	RegisterCustomTranslation(validate, translator, notFutureTag, notFutureText)

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(invoiceTag, invoiceValidation)
	RegisterCustomTranslation(validate, translator, invoiceTag, invoiceText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ParseDate parses a form date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, CleanString(s))
}

// Custom Global Validators

func docTypeValidation(fl validator.FieldLevel) bool {
	return docTypes[strings.ToUpper(fl.Field().String())]
}

// notFutureValidation accepts time.Time values and YYYY-MM-DD strings.
// Unparsable strings pass: the `datetime` tag reports those.
func notFutureValidation(fl validator.FieldLevel) bool {
	var t time.Time
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		t = v
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return true
		}
		t = parsed
	default:
		return false
	}
	now := NowFunc()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !t.After(today)
}

func phoneValidation(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func invoiceValidation(fl validator.FieldLevel) bool {
	return invoiceRegex.MatchString(fl.Field().String())
}
