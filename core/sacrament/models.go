package sacrament

import (
	"github.com/go-playground/validator/v10"

	"github.com/parroquia/portal/core"
)

// Kind is a sacrament record family; its value is the API resource name.
type Kind string

const (
	KindBaptism      Kind = "baptisms"
	KindConfirmation Kind = "confirmations"
	KindMarriage     Kind = "marriages"
	KindDeath        Kind = "deaths"
)

var Kinds = []Kind{KindBaptism, KindConfirmation, KindMarriage, KindDeath}

// ParseKind accepts the resource name or its Spanish form name.
func ParseKind(s string) (Kind, bool) {
	switch core.CleanString(s, true /* lower */) {
	case "baptisms", "bautismo", "bautismos", "bautizo", "bautizos":
		return KindBaptism, true
	case "confirmations", "confirmacion", "confirmaciones":
		return KindConfirmation, true
	case "marriages", "matrimonio", "matrimonios":
		return KindMarriage, true
	case "deaths", "defuncion", "defunciones":
		return KindDeath, true
	}
	return "", false
}

// Label is the Spanish name shown to users.
func (k Kind) Label() string {
	switch k {
	case KindBaptism:
		return "bautismo"
	case KindConfirmation:
		return "confirmación"
	case KindMarriage:
		return "matrimonio"
	case KindDeath:
		return "defunción"
	}
	return string(k)
}

// Record is any sacrament form.
type Record interface {
	Validate(validate *validator.Validate) error
}

// New returns an empty form of the given kind.
func New(kind Kind) Record {
	switch kind {
	case KindBaptism:
		return new(Baptism)
	case KindConfirmation:
		return new(Confirmation)
	case KindMarriage:
		return new(Marriage)
	case KindDeath:
		return new(Death)
	}
	return nil
}

// Registry locates a record in the parish books.
type Registry struct {
	Book   string `json:"libro" validate:"required,max=20"`
	Folio  string `json:"folio" validate:"required,max=20"`
	Number string `json:"numero" validate:"required,max=20"`
	Notes  string `json:"notas,omitempty" validate:"max=500"`
}

func (r *Registry) clean() {
	r.Book = core.CleanString(r.Book)
	r.Folio = core.CleanString(r.Folio)
	r.Number = core.CleanString(r.Number)
	r.Notes = core.CleanString(r.Notes)
}

// Person identifies whoever received the sacrament.
type Person struct {
	Name         string `json:"nombre" validate:"required,max=80"`
	LastName     string `json:"apellido" validate:"required,max=80"`
	DocumentType string `json:"tipoDocumento,omitempty" validate:"omitempty,doctype"`
	Document     string `json:"documento,omitempty" validate:"omitempty,alphanum,max=15"`
	BirthDate    string `json:"fechaNacimiento" validate:"required,datetime=2006-01-02,notfuture"`
}

func (p *Person) clean() {
	p.Name = core.CleanString(p.Name)
	p.LastName = core.CleanString(p.LastName)
	p.DocumentType = core.CleanString(p.DocumentType)
	p.Document = core.CleanString(p.Document)
	p.BirthDate = core.CleanString(p.BirthDate)
}

// check runs the cross-field rules the tags cannot express.
func (p *Person) check(field string) error {
	if p.Document != "" && p.DocumentType == "" {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "indique el tipo de documento"})
	}
	return nil
}

type Baptism struct {
	Person
	Registry
	BirthPlace  string `json:"lugarNacimiento" validate:"required,max=120"`
	BaptismDate string `json:"fechaBautismo" validate:"required,datetime=2006-01-02,notfuture"`
	Father      string `json:"padre,omitempty" validate:"max=120"`
	Mother      string `json:"madre" validate:"required,max=120"`
	Godfather   string `json:"padrino,omitempty" validate:"max=120"`
	Godmother   string `json:"madrina,omitempty" validate:"max=120"`
	Minister    string `json:"ministro" validate:"required,max=120"`
}

func (b *Baptism) Validate(validate *validator.Validate) error {
	b.Person.clean()
	b.Registry.clean()
	b.BirthPlace = core.CleanString(b.BirthPlace)
	b.BaptismDate = core.CleanString(b.BaptismDate)
	b.Father = core.CleanString(b.Father)
	b.Mother = core.CleanString(b.Mother)
	b.Godfather = core.CleanString(b.Godfather)
	b.Godmother = core.CleanString(b.Godmother)
	b.Minister = core.CleanString(b.Minister)
	if err := validate.Struct(b); err != nil {
		return err
	}
	if err := b.Person.check("tipoDocumento"); err != nil {
		return err
	}
	if b.Godfather == "" && b.Godmother == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "padrino", Error: "se requiere al menos un padrino o madrina"})
	}
	return notBefore("fechaBautismo", b.BaptismDate, b.BirthDate)
}

type Confirmation struct {
	Person
	Registry
	ConfirmationDate string `json:"fechaConfirmacion" validate:"required,datetime=2006-01-02,notfuture"`
	BaptismParish    string `json:"parroquiaBautismo" validate:"required,max=120"`
	Sponsor          string `json:"padrino" validate:"required,max=120"`
	Minister         string `json:"ministro" validate:"required,max=120"`
}

func (c *Confirmation) Validate(validate *validator.Validate) error {
	c.Person.clean()
	c.Registry.clean()
	c.ConfirmationDate = core.CleanString(c.ConfirmationDate)
	c.BaptismParish = core.CleanString(c.BaptismParish)
	c.Sponsor = core.CleanString(c.Sponsor)
	c.Minister = core.CleanString(c.Minister)
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Person.check("tipoDocumento"); err != nil {
		return err
	}
	return notBefore("fechaConfirmacion", c.ConfirmationDate, c.BirthDate)
}

type Marriage struct {
	Registry
	Husband      Person `json:"esposo"`
	Wife         Person `json:"esposa"`
	MarriageDate string `json:"fechaMatrimonio" validate:"required,datetime=2006-01-02,notfuture"`
	Witness1     string `json:"testigo1" validate:"required,max=120"`
	Witness2     string `json:"testigo2" validate:"required,max=120"`
	Minister     string `json:"ministro" validate:"required,max=120"`
}

func (m *Marriage) Validate(validate *validator.Validate) error {
	m.Registry.clean()
	m.Husband.clean()
	m.Wife.clean()
	m.MarriageDate = core.CleanString(m.MarriageDate)
	m.Witness1 = core.CleanString(m.Witness1)
	m.Witness2 = core.CleanString(m.Witness2)
	m.Minister = core.CleanString(m.Minister)
	if err := validate.Struct(m); err != nil {
		return err
	}
	if err := m.Husband.check("esposo.tipoDocumento"); err != nil {
		return err
	}
	if err := m.Wife.check("esposa.tipoDocumento"); err != nil {
		return err
	}
	if m.Husband.Document != "" && m.Husband.Document == m.Wife.Document {
		return core.NewValidationError(nil, core.FieldError{Field: "esposa", Error: "los contrayentes deben ser personas distintas"})
	}
	if err := notBefore("fechaMatrimonio", m.MarriageDate, m.Husband.BirthDate); err != nil {
		return err
	}
	return notBefore("fechaMatrimonio", m.MarriageDate, m.Wife.BirthDate)
}

type Death struct {
	Person
	Registry
	DeathDate   string `json:"fechaDefuncion" validate:"required,datetime=2006-01-02,notfuture"`
	Cause       string `json:"causa,omitempty" validate:"max=200"`
	BurialPlace string `json:"lugarSepultura" validate:"required,max=120"`
	Informant   string `json:"informante,omitempty" validate:"max=120"`
	Minister    string `json:"ministro" validate:"required,max=120"`
}

func (d *Death) Validate(validate *validator.Validate) error {
	d.Person.clean()
	d.Registry.clean()
	d.DeathDate = core.CleanString(d.DeathDate)
	d.Cause = core.CleanString(d.Cause)
	d.BurialPlace = core.CleanString(d.BurialPlace)
	d.Informant = core.CleanString(d.Informant)
	d.Minister = core.CleanString(d.Minister)
	if err := validate.Struct(d); err != nil {
		return err
	}
	if err := d.Person.check("tipoDocumento"); err != nil {
		return err
	}
	return notBefore("fechaDefuncion", d.DeathDate, d.BirthDate)
}

// notBefore reports a field error when date is before ref. Both are valid YYYY-MM-DD dates here.
func notBefore(field, date, ref string) error {
	d, err := core.ParseDate(date)
	if err != nil {
		return nil
	}
	r, err := core.ParseDate(ref)
	if err != nil {
		return nil
	}
	if d.Before(r) {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "no puede ser anterior a la fecha de nacimiento"})
	}
	return nil
}
