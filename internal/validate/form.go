package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tags registered on the shared validator. They make the predicates in
// this package usable from struct tags:
//
//	type SignupForm struct {
//	    Email string `form:"email" validate:"fg_required,fg_email"`
//	}
const (
	TagRequired = "fg_required"
	TagEmail    = "fg_email"
	TagPhone    = "fg_phone"
	TagCard     = "fg_card"
	TagPassword = "fg_password"
)

// tagMessages are the user-facing messages per failed tag.
var tagMessages = map[string]string{
	TagRequired: "This field is required",
	TagEmail:    "Enter a valid email address",
	TagPhone:    "Enter a phone number with at least 10 digits",
	TagCard:     "Card number must be 13 to 19 digits",
	TagPassword: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
	"eqfield":   "Values do not match",
}

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Errors is returned by Validator.Struct when one or more fields fail.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Map returns field name -> message, convenient for templates and JSON.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Message
	}
	return m
}

// Validator validates form structs using the fg_* tags.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the FraudGuard predicates registered.
// Field names in errors come from the `form` struct tag when present.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	predicates := map[string]func(string) bool{
		TagRequired: Required,
		TagEmail:    Email,
		TagPhone:    Phone,
		TagCard:     CreditCard,
		TagPassword: Password,
	}
	for tag, fn := range predicates {
		fn := fn
		// Registration only fails for empty or reserved tags.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}, tag == TagRequired)
	}

	return &Validator{v: v}
}

// Struct validates s and returns Errors (sorted by field) when any field
// fails. Other errors, such as passing a non-struct, are returned as is.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: msg})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Field checks a single value against one of the fg_* kinds
// ("email", "phone", "card", "password", "required").
func Field(kind, value string) (bool, error) {
	switch kind {
	case "email":
		return Email(value), nil
	case "phone":
		return Phone(value), nil
	case "card", "creditCard", "credit_card":
		return CreditCard(value), nil
	case "password":
		return Password(value), nil
	case "required":
		return Required(value), nil
	default:
		return false, fmt.Errorf("unknown validation kind %q", kind)
	}
}
