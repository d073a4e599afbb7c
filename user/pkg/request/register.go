package request

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/backend"
)

type Register struct {
	Name     string `validate:"required"              json:"name"`
	Email    string `validate:"required,email"        json:"email"`
	Phone    string `validate:"omitempty,numeric,len=10" json:"phone,omitempty"`
	Password string `validate:"required,min=6"        json:"password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email).Str("name", r.Name)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	type R Register
	return json.Marshal(R(r))
}

func (r Register) Registration() backend.Registration {
	return backend.Registration{Name: r.Name, Email: r.Email, Phone: r.Phone, Password: r.Password}
}

type UpdateProfile struct {
	Name  string `validate:"required"                 json:"name"`
	Email string `validate:"required,email"           json:"email"`
	Phone string `validate:"omitempty,numeric,len=10" json:"phone,omitempty"`
}

func (u UpdateProfile) Details() backend.ProfileDetails {
	return backend.ProfileDetails{Name: u.Name, Email: u.Email, Phone: u.Phone}
}

type UpdatePassword struct {
	CurrentPassword string `validate:"required"                       json:"currentPassword"`
	NewPassword     string `validate:"required,min=6"                 json:"newPassword"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"   json:"confirmPassword"`
}

func (u UpdatePassword) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"currentPassword": "***",
		"newPassword":     "***",
		"confirmPassword": "***",
	})
}

func (u UpdatePassword) Change() backend.PasswordChange {
	return backend.PasswordChange{CurrentPassword: u.CurrentPassword, NewPassword: u.NewPassword}
}
