package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/session"
)

// User mirrors the parish API's user document.
type User struct {
	ID           interface{} `json:"id,omitempty"`
	Name         string      `json:"nombre,omitempty"`
	LastName     string      `json:"apellido,omitempty"`
	Email        string      `json:"email,omitempty"`
	DocumentType string      `json:"tipoDocumento,omitempty"`
	Document     string      `json:"documento,omitempty"`
	Phone        string      `json:"telefono,omitempty"`
	Role         string      `json:"rol,omitempty"`
}

// FullName joins name and last name.
func (u User) FullName() string {
	return core.CleanString(u.Name + " " + u.LastName)
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

// Session is a successful login.
type Session struct {
	Token string `json:"-"`
	Role  string `json:"role"`
	User  *User  `json:"user,omitempty"`

	// landing page of the role, set by the gateway
	Redirect string `json:"redirect,omitempty"`
}

// NewUser is the parishioner self-registration form.
type NewUser struct {
	Name            string `json:"nombre" validate:"required,max=80"`
	LastName        string `json:"apellido" validate:"required,max=80"`
	Email           string `json:"email" validate:"required,email"`
	DocumentType    string `json:"tipoDocumento" validate:"required,doctype"`
	Document        string `json:"documento" validate:"required,numeric,min=5,max=15"`
	Phone           string `json:"telefono" validate:"omitempty,phone"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"rol,omitempty"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Document = core.CleanString(nu.Document)
	nu.Phone = core.CleanString(nu.Phone)
	// self-registration always creates parishioners
	nu.Role = session.RoleFeligres
	return validate.Struct(nu)
}

// UpdateProfile is what a user may change on their own profile.
type UpdateProfile struct {
	Name     string `json:"nombre,omitempty" validate:"omitempty,max=80"`
	LastName string `json:"apellido,omitempty" validate:"omitempty,max=80"`
	Phone    string `json:"telefono,omitempty" validate:"omitempty,phone"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.LastName = core.CleanString(up.LastName)
	up.Phone = core.CleanString(up.Phone)
	up.Email = core.CleanString(up.Email, true /* lower */)
	if *up == (UpdateProfile{}) {
		return core.NewValidationError(nil, core.FieldError{Field: "nombre", Error: "no hay cambios para guardar"})
	}
	return validate.Struct(up)
}
