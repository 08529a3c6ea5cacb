package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
)

const (
	defaultTimeout  = 8 * time.Second
	requestIDHeader = "X-Request-ID"
	loginPath       = "login/"
	registerPath    = "register/"
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues the login and registration calls against the backend API.
type Client struct {
	base   *url.URL
	client HTTPClient
}

// LoginResult mirrors the backend payload returned by a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
	Response    string `json:"response"`
}

// RegisterRequest is the registration payload posted to the backend.
type RegisterRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RegisterResult mirrors the backend payload returned by a successful registration.
type RegisterResult struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewClient constructs a Client for the API rooted at baseURL (for example https://api.example.com/api).
// A nil client defaults to an http.Client with a short timeout.
func NewClient(baseURL string, client HTTPClient) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("auth: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("auth: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: parsed, client: client}, nil
}

// Login posts the credentials to {api}/login/ exactly once.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if c == nil {
		return LoginResult{}, ErrNotConfigured
	}
	req, err := c.newJSONRequest(ctx, loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return LoginResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LoginResult{}, errorFromResponse(resp)
	}

	var payload LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return LoginResult{}, fmt.Errorf("auth: decode login response: %w", err)
	}
	payload.AccessToken = strings.TrimSpace(payload.AccessToken)
	if payload.AccessToken == "" {
		return LoginResult{}, ErrMissingToken
	}
	return payload, nil
}

// Register posts the registration payload to {api}/register/ exactly once.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (RegisterResult, error) {
	if c == nil {
		return RegisterResult{}, ErrNotConfigured
	}
	req, err := c.newJSONRequest(ctx, registerPath, in)
	if err != nil {
		return RegisterResult{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return RegisterResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return RegisterResult{}, errorFromResponse(resp)
	}

	var payload RegisterResult
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return RegisterResult{}, fmt.Errorf("auth: read register response: %w", err)
	}
	// The response shape is informational; an empty body is accepted.
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return RegisterResult{}, fmt.Errorf("auth: decode register response: %w", err)
		}
	}
	return payload, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) newJSONRequest(ctx context.Context, endpoint string, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("auth: encode payload: %w", err)
	}
	target := c.base.ResolveReference(&url.URL{Path: endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID(ctx))
	return req, nil
}

func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return ulid.Make().String()
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	apiErr := &APIError{Status: resp.StatusCode}
	if len(body) > 0 {
		apiErr.decode(body)
	}
	if apiErr.Detail == "" && len(apiErr.Fields) == 0 {
		text := strings.TrimSpace(string(body))
		if text == "" || len(text) > 200 {
			text = http.StatusText(resp.StatusCode)
		}
		apiErr.Detail = text
	}
	return apiErr
}

// APIError describes a non-successful backend response.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth: backend error (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("auth: backend error (%d): %s", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match the status driven sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidCredentials:
		return e.Status == http.StatusUnauthorized
	case ErrEmailTaken:
		return e.Status == http.StatusConflict
	default:
		return false
	}
}

// FieldMessage returns the first backend message for field.
func (e *APIError) FieldMessage(field string) string {
	if e == nil {
		return ""
	}
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// decode understands the Django REST error bodies: {"detail": "..."},
// {"field": ["..."]} and {"non_field_errors": ["..."]}.
func (e *APIError) decode(body []byte) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var list []string
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			e.Detail = list[0]
		}
		return
	}
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			if key == "detail" || key == "message" || key == "error" {
				if e.Detail == "" {
					e.Detail = strings.TrimSpace(text)
				}
				continue
			}
			e.addField(key, text)
			continue
		}
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, item := range list {
				e.addField(key, item)
			}
		}
	}
}

func (e *APIError) addField(field, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

var (
	// ErrNotConfigured indicates no backend base URL was provided.
	ErrNotConfigured = errors.New("auth: backend not configured")
	// ErrInvalidCredentials matches a 401 from the login endpoint.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken matches a 409 from the register endpoint.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrMissingToken is returned when a successful login response carries no access token.
	ErrMissingToken = errors.New("auth: login response missing access_token")
)
