package authflow

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation messages shown next to the offending field.
const (
	MsgEmailRequired           = "Email is required"
	MsgEmailInvalid            = "Please enter valid email"
	MsgPasswordRequired        = "Password is required"
	MsgConfirmPasswordRequired = "Confirm password is required"
	MsgPasswordMismatch        = "Password and confirm passwords don't match"
)

// ValidationResult maps a field name to its current error message. A field
// without an entry is valid. Keys are always field names of the flow.
type ValidationResult map[string]string

// Valid reports whether no field carries an error.
func (r ValidationResult) Valid() bool {
	return len(r) == 0
}

// Error returns the message for name and whether there is one.
func (r ValidationResult) Error(name string) (string, bool) {
	msg, ok := r[name]
	return msg, ok
}

// The structs below describe each flow's rules in validator tags. Values are
// trimmed before validation so that a whitespace-only input counts as blank.
type loginForm struct {
	Email    string `field:"email" validate:"required"`
	Password string `field:"password" validate:"required"`
}

type signupForm struct {
	Email           string `field:"email" validate:"required,email"`
	Password        string `field:"password" validate:"required"`
	ConfirmPassword string `field:"confirmPassword" validate:"required"`
}

type forgotPasswordForm struct {
	Email string `field:"email" validate:"required,email"`
}

// messages is keyed by field name, then by the failing validator tag.
var messages = map[string]map[string]string{
	FieldEmail: {
		"required": MsgEmailRequired,
		"email":    MsgEmailInvalid,
	},
	FieldPassword: {
		"required": MsgPasswordRequired,
	},
	FieldConfirmPassword: {
		"required": MsgConfirmPasswordRequired,
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate applies the rules of flow to fields. It is pure: the same input
// always yields the same result and nothing is retained between calls.
func Validate(flow Flow, fields FieldSet) ValidationResult {
	result := ValidationResult{}

	trimmed := func(name string) string { return strings.TrimSpace(fields.Get(name)) }

	var form any
	switch flow {
	case FlowLogin:
		form = loginForm{
			Email:    trimmed(FieldEmail),
			Password: trimmed(FieldPassword),
		}
	case FlowSignup:
		form = signupForm{
			Email:           trimmed(FieldEmail),
			Password:        trimmed(FieldPassword),
			ConfirmPassword: trimmed(FieldConfirmPassword),
		}
	case FlowForgotPassword:
		form = forgotPasswordForm{Email: trimmed(FieldEmail)}
	default:
		return result
	}

	var verrs validator.ValidationErrors
	if err := validate.Struct(form); errors.As(err, &verrs) {
		for _, fe := range verrs {
			if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
				result[fe.Field()] = msg
			}
		}
	}

	if flow == FlowSignup &&
		!fields.Blank(FieldPassword) && !fields.Blank(FieldConfirmPassword) &&
		fields.Get(FieldPassword) != fields.Get(FieldConfirmPassword) {
		result[FieldPassword] = MsgPasswordMismatch
		result[FieldConfirmPassword] = MsgPasswordMismatch
	}

	return result
}
