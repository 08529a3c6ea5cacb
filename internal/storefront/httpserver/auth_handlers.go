package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/auth"
	"finitefield.org/storefront/internal/storefront/forms"
	custommw "finitefield.org/storefront/internal/storefront/httpserver/middleware"
	"finitefield.org/storefront/internal/storefront/httpserver/ui"
	"finitefield.org/storefront/internal/storefront/loadstatus"
	"finitefield.org/storefront/internal/storefront/observability"
	authtpl "finitefield.org/storefront/internal/storefront/templates/auth"
	"finitefield.org/storefront/internal/storefront/templates/shop"
)

const (
	homePath            = "/main"
	registeredLoginPath = "/modal/login?status=registered"
)

type authHandlers struct {
	auth       *auth.Service
	loadStatus *loadstatus.Registry
	ui         *ui.Handlers
}

func newAuthHandlers(service *auth.Service, registry *loadstatus.Registry, pages *ui.Handlers) *authHandlers {
	if service == nil {
		panic("auth: service is required")
	}
	return &authHandlers{
		auth:       service,
		loadStatus: registry,
		ui:         pages,
	}
}

// LoginModal opens the login form in the modal outlet.
func (h *authHandlers) LoginModal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := authtpl.NewLoginForm(forms.Login{Email: strings.TrimSpace(q.Get("email"))}, nil, h.status(r, loadstatus.FormLogin))
	if q.Get("status") == "registered" {
		form.Message = "Registration complete. Please log in."
	}
	h.ui.RenderModal(w, r, shop.ModalData{Form: form}, http.StatusOK)
}

// RegisterModal opens the registration form in the modal outlet.
func (h *authHandlers) RegisterModal(w http.ResponseWriter, r *http.Request) {
	form := authtpl.NewRegisterForm(forms.Register{}, nil, h.status(r, loadstatus.FormRegister))
	h.ui.RenderModal(w, r, shop.ModalData{Form: form}, http.StatusOK)
}

// LoginSubmit validates the form, calls the backend and stores the token on success.
func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		form := authtpl.NewLoginForm(forms.Login{}, nil, loadstatus.StatusIdle)
		form.Error = "The form could not be submitted. Please try again."
		h.ui.RenderForm(w, r, form, http.StatusBadRequest)
		return
	}

	values := forms.LoginFromValues(r.PostForm)
	if errs := values.Validate(); !errs.Valid() {
		h.ui.RenderForm(w, r, authtpl.NewLoginForm(values, errs, h.status(r, loadstatus.FormLogin)), http.StatusUnprocessableEntity)
		return
	}

	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tracker := h.loadStatus.For(sess.ID(), loadstatus.FormLogin)
	tracker.SetLoading()

	_, err := h.auth.Login(r.Context(), sess, values.Email, values.Password)
	if err != nil {
		tracker.SetError()
		logger.Warn("login failed", zap.Error(err))
		form := authtpl.NewLoginForm(values, nil, loadstatus.StatusError)
		applyBackendError(&form, err, "Invalid email or password.")
		h.ui.RenderForm(w, r, form, statusForError(err))
		return
	}

	tracker.SetSuccess()
	sess.SetEmail(values.Email)
	if err := sess.RegenerateID(); err != nil {
		logger.Error("session regenerate failed", zap.Error(err))
	}
	logger.Info("login succeeded")
	redirect(w, r, homePath)
}

// RegisterSubmit validates the form and forwards it to the backend.
func (h *authHandlers) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		form := authtpl.NewRegisterForm(forms.Register{}, nil, loadstatus.StatusIdle)
		form.Error = "The form could not be submitted. Please try again."
		h.ui.RenderForm(w, r, form, http.StatusBadRequest)
		return
	}

	values := forms.RegisterFromValues(r.PostForm)
	if errs := values.Validate(); !errs.Valid() {
		h.ui.RenderForm(w, r, authtpl.NewRegisterForm(values, errs, h.status(r, loadstatus.FormRegister)), http.StatusUnprocessableEntity)
		return
	}

	sess, ok := custommw.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tracker := h.loadStatus.For(sess.ID(), loadstatus.FormRegister)
	tracker.SetLoading()

	_, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Email:           values.Email,
		FirstName:       values.FirstName,
		LastName:        values.LastName,
		Password:        values.Password,
		ConfirmPassword: values.ConfirmPassword,
	})
	if err != nil {
		tracker.SetError()
		logger.Warn("registration failed", zap.Error(err))
		form := authtpl.NewRegisterForm(values, nil, loadstatus.StatusError)
		applyBackendError(&form, err, "")
		h.ui.RenderForm(w, r, form, statusForError(err))
		return
	}

	tracker.SetSuccess()
	logger.Info("registration succeeded")
	redirect(w, r, registeredLoginPath+"&email="+url.QueryEscape(values.Email))
}

// Logout forgets the token and ends the session.
func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		h.auth.Logout(sess)
		sess.Destroy()
	}
	redirect(w, r, homePath)
}

func (h *authHandlers) status(r *http.Request, form string) loadstatus.Status {
	id := custommw.IdentityFromContext(r.Context())
	if id.SessionID == "" {
		return loadstatus.StatusIdle
	}
	if tracker, ok := h.loadStatus.Lookup(id.SessionID, form); ok {
		return tracker.Status()
	}
	return loadstatus.StatusIdle
}

// applyBackendError copies backend field errors onto the form fields and sets a form-level message.
func applyBackendError(form *authtpl.FormData, err error, credentialsMessage string) {
	var apiErr *auth.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, auth.ErrMissingToken) {
			form.Error = "The server response was incomplete. Please try again."
			return
		}
		form.Error = "The server could not be reached. Please try again."
		return
	}

	for i := range form.Fields {
		if msg := apiErr.FieldMessage(form.Fields[i].Name); msg != "" {
			form.Fields[i].Error = msg
		}
	}
	switch {
	case apiErr.FieldMessage("non_field_errors") != "":
		form.Error = apiErr.FieldMessage("non_field_errors")
	case errors.Is(err, auth.ErrInvalidCredentials) && credentialsMessage != "":
		form.Error = credentialsMessage
	case errors.Is(err, auth.ErrEmailTaken) && apiErr.FieldMessage("email") == "":
		form.Error = "An account with this email already exists."
	case len(apiErr.Fields) == 0 && apiErr.Detail != "":
		form.Error = apiErr.Detail
	}
}

func statusForError(err error) int {
	var apiErr *auth.APIError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if custommw.IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
