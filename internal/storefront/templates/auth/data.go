package auth

import (
	"finitefield.org/storefront/internal/storefront/forms"
	"finitefield.org/storefront/internal/storefront/loadstatus"
)

// FieldData describes one input rendered by the form component.
type FieldData struct {
	Name         string
	Label        string
	Type         string
	Autocomplete string
	Placeholder  string
	Value        string
	Error        string
}

// FormData encapsulates rendering state for the login and register forms.
type FormData struct {
	Form        string
	Title       string
	Action      string
	CSRFToken   string
	Fields      []FieldData
	SubmitLabel string
	Status      loadstatus.Status
	// Error is a form-level message such as a backend non_field_errors entry.
	Error    string
	Message  string
	AltText  string
	AltHref  string
	AltLabel string
}

// Loading reports whether the submit button should be disabled.
func (d FormData) Loading() bool { return d.Status == loadstatus.StatusLoading }

// Failed reports whether the generic error line should render.
func (d FormData) Failed() bool { return d.Status == loadstatus.StatusError }

// StatusData is the payload of the polled status fragment.
type StatusData struct {
	Form   string
	Status loadstatus.Status
}

// Loading reports whether the status is loading.
func (d StatusData) Loading() bool { return d.Status == loadstatus.StatusLoading }

// Failed reports whether the status is error.
func (d StatusData) Failed() bool { return d.Status == loadstatus.StatusError }

// NewLoginForm builds the login form state. Passwords are never echoed back.
func NewLoginForm(values forms.Login, errs forms.Errors, status loadstatus.Status) FormData {
	return FormData{
		Form:        loadstatus.FormLogin,
		Title:       "Log in",
		Action:      "/login",
		SubmitLabel: "Log in",
		Status:      status,
		AltText:     "Don't have an account?",
		AltHref:     "/modal/register",
		AltLabel:    "Register",
		Fields: []FieldData{
			{Name: "email", Label: "Email", Type: "email", Autocomplete: "email", Placeholder: "you@example.com", Value: values.Email, Error: errs.Get("email")},
			{Name: "password", Label: "Password", Type: "password", Autocomplete: "current-password", Error: errs.Get("password")},
		},
	}
}

// NewRegisterForm builds the registration form state.
func NewRegisterForm(values forms.Register, errs forms.Errors, status loadstatus.Status) FormData {
	return FormData{
		Form:        loadstatus.FormRegister,
		Title:       "Create an account",
		Action:      "/register",
		SubmitLabel: "Register",
		Status:      status,
		AltText:     "Already have an account?",
		AltHref:     "/modal/login",
		AltLabel:    "Log in",
		Fields: []FieldData{
			{Name: "first_name", Label: "First name", Type: "text", Autocomplete: "given-name", Value: values.FirstName, Error: errs.Get("first_name")},
			{Name: "last_name", Label: "Last name", Type: "text", Autocomplete: "family-name", Value: values.LastName, Error: errs.Get("last_name")},
			{Name: "email", Label: "Email", Type: "email", Autocomplete: "email", Placeholder: "you@example.com", Value: values.Email, Error: errs.Get("email")},
			{Name: "password", Label: "Password", Type: "password", Autocomplete: "new-password", Error: errs.Get("password")},
			{Name: "confirm_password", Label: "Confirm password", Type: "password", Autocomplete: "new-password", Error: errs.Get("confirm_password")},
		},
	}
}
