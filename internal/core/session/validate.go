package session

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/yndnr/lexdesk-go/internal/core/domain"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// registrationInput mirrors domain.Registration with wire field names so
// validation messages name the fields the way forms do.
type registrationInput struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ValidateRegistration checks a registration before it reaches the network.
func ValidateRegistration(reg domain.Registration) error {
	r := registrationInput(reg)
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.FullName, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(MinPasswordLength, 0)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(equals(r.Password))),
	)
	if err != nil {
		return domain.ErrValidationFailed.WithDetails(err.Error()).WithCause(err)
	}
	return nil
}

// ValidateCredentials checks login input.
func ValidateCredentials(creds domain.Credentials) error {
	err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required),
		validation.Field(&creds.Password, validation.Required),
	)
	if err != nil {
		return domain.ErrValidationFailed.WithDetails(err.Error()).WithCause(err)
	}
	return nil
}

// ValidateEmail checks a password reset address.
func ValidateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return domain.ErrValidationFailed.WithDetails("email: " + err.Error()).WithCause(err)
	}
	return nil
}

func equals(want string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New("does not match password")
		}
		return nil
	}
}
