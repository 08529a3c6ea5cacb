package authstub

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/storefront/observability"
)

// Response messages mirror the real backend.
const (
	MessageLoggedIn         = "User logged in successfully"
	MessageRegistered       = "User register successfully"
	MessageBadCredentials   = "Unable to log in with provided credentials."
	MessagePasswordMismatch = "Confirm password does not match with password"
	MessageEmailTaken       = "Email already exits"

	refreshCookie = "refresh_token"
)

// Options configures the stub server.
type Options struct {
	Logger *zap.Logger
	// SecureCookies marks the refresh_token cookie Secure.
	SecureCookies bool
}

// Server implements the login and register endpoints.
type Server struct {
	store    *Store
	issuer   *Issuer
	validate *validator.Validate
	opts     Options
}

// NewServer wires a Server around store and issuer.
func NewServer(store *Store, issuer *Issuer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Server{store: store, issuer: issuer, validate: v, opts: opts}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(observability.InjectLogger(s.opts.Logger))
	r.Use(observability.RequestLogger())
	r.Use(observability.Recoverer())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/login/", s.login)
	r.Post("/register/", s.register)
	r.Get("/me/", s.me)
	return r
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required,max=150"`
	LastName        string `json:"last_name" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginPayload
	if !s.decode(w, r, &in) {
		return
	}
	user, err := s.store.Authenticate(in.Email, in.Password)
	if err != nil {
		observability.FromContext(r.Context()).Info("login rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": MessageBadCredentials})
		return
	}
	access, refresh, err := s.issuer.Pair(user)
	if err != nil {
		observability.FromContext(r.Context()).Error("issue tokens", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.issuer.refreshTTL / time.Second),
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      MessageLoggedIn,
		"response":     "Ok",
		"access_token": access,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in registerPayload
	if !s.decode(w, r, &in) {
		return
	}
	// Field checks run before the cross-field check, so a taken email wins.
	if s.store.Exists(in.Email) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {MessageEmailTaken}})
		return
	}
	if in.Password != in.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {MessagePasswordMismatch}})
		return
	}
	user, err := s.store.Create(in.Email, in.FirstName, in.LastName, in.Password)
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {MessageEmailTaken}})
		return
	case err != nil:
		observability.FromContext(r.Context()).Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
		return
	}
	observability.FromContext(r.Context()).Info("user registered", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  MessageRegistered,
		"response": "Ok",
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	claims, err := s.issuer.Verify(token, TokenAccess)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
		return
	}
	user, found := s.store.Get(claims.UserID)
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

// decode reads a JSON body into dst and validates it, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return false
		}
		out := make(map[string][]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
		}
		writeJSON(w, http.StatusBadRequest, out)
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field may not be blank."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
