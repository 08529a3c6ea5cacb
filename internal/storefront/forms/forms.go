// Package forms holds the declarative field rules for the storefront login and registration forms.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Field patterns. EmailPattern is shared by both forms.
var (
	EmailPattern      = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+[.][a-z]{2,4}$`)
	PersonNamePattern = regexp.MustCompile(`^[A-Za-z]+['\-]?[A-Za-z]*[A-Za-z]$`)
)

const (
	tagEmail      = "email_pattern"
	tagPersonName = "person_name"
)

// Errors maps a form field name to the message of its first failing rule.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Get returns the message for field or an empty string.
func (e Errors) Get(field string) string {
	if e == nil {
		return ""
	}
	return e[field]
}

// Has reports whether field failed.
func (e Errors) Has(field string) bool { return e.Get(field) != "" }

// Login captures the login form fields.
type Login struct {
	Email    string `form:"email" validate:"required,email_pattern"`
	Password string `form:"password" validate:"required,min=8"`
}

// Register captures the registration form fields. Passwords are not compared here;
// the backend owns that check.
type Register struct {
	Email           string `form:"email" validate:"required,min=3,email_pattern"`
	FirstName       string `form:"first_name" validate:"required,min=3,person_name"`
	LastName        string `form:"last_name" validate:"required,min=3,person_name"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	validateErr  error
)

func engine() (*validator.Validate, error) {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := v.RegisterValidation(tagEmail, patternRule(EmailPattern)); err != nil {
			validateErr = fmt.Errorf("forms: register %s: %w", tagEmail, err)
			return
		}
		if err := v.RegisterValidation(tagPersonName, patternRule(PersonNamePattern)); err != nil {
			validateErr = fmt.Errorf("forms: register %s: %w", tagPersonName, err)
			return
		}
		validate = v
	})
	return validate, validateErr
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// LoginFromValues reads and normalises the login fields from a submitted form.
func LoginFromValues(values url.Values) Login {
	return Login{
		Email:    normalize(values.Get("email")),
		Password: values.Get("password"),
	}
}

// RegisterFromValues reads and normalises the registration fields from a submitted form.
func RegisterFromValues(values url.Values) Register {
	return Register{
		Email:           normalize(values.Get("email")),
		FirstName:       normalize(values.Get("first_name")),
		LastName:        normalize(values.Get("last_name")),
		Password:        values.Get("password"),
		ConfirmPassword: values.Get("confirm_password"),
	}
}

// Validate evaluates every rule of the login form.
func (l Login) Validate() Errors { return check(l) }

// Validate evaluates every rule of the registration form.
func (r Register) Validate() Errors { return check(r) }

func check(form any) Errors {
	v, err := engine()
	if err != nil {
		return Errors{"_form": err.Error()}
	}
	err = v.Struct(form)
	if err == nil {
		return Errors{}
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{"_form": err.Error()}
	}
	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case tagEmail:
		return "Enter a valid email address."
	case tagPersonName:
		return label + " may only contain letters, an apostrophe or a hyphen."
	default:
		return label + " is invalid."
	}
}

var fieldLabels = map[string]string{
	"email":            "Email",
	"password":         "Password",
	"first_name":       "First name",
	"last_name":        "Last name",
	"confirm_password": "Password confirmation",
}

func normalize(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}
