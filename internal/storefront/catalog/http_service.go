package catalog

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
)

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service backed by the listings REST endpoints.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPService constructs a Service that reads {base}/listings/ and {base}/categories/.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &HTTPService{base: parsed, client: client}, nil
}

type listingPayload struct {
	ID          flexibleID `json:"id"`
	Title       string     `json:"title"`
	Image       string     `json:"image"`
	Description string     `json:"description"`
	Price       string     `json:"price"`
	NewPrice    string     `json:"new_price"`
	Rating      float64    `json:"rating"`
	RatingMax   int        `json:"rating_max"`
	Quantity    int        `json:"quantity"`
	Active      *bool      `json:"active"`
	Category    flexibleID `json:"category"`
}

type categoryPayload struct {
	ID          flexibleID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

// Featured implements Service. Inactive listings are skipped.
func (s *HTTPService) Featured(ctx context.Context) ([]Product, error) {
	var listings []listingPayload
	if err := s.getList(ctx, "listings/", &listings); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(listings))
	for _, l := range listings {
		if l.Active != nil && !*l.Active {
			continue
		}
		price, err := ParsePrice(l.Price)
		if err != nil {
			return nil, err
		}
		newPrice, err := ParsePrice(l.NewPrice)
		if err != nil {
			return nil, err
		}
		desc, err := RenderDescription(l.Description)
		if err != nil {
			return nil, err
		}
		products = append(products, Product{
			ID:          string(l.ID),
			Title:       l.Title,
			Description: desc,
			Image:       s.absoluteImage(l.Image),
			Price:       price,
			NewPrice:    newPrice,
			Rating:      l.Rating,
			RatingMax:   l.RatingMax,
			Category:    string(l.Category),
			Quantity:    l.Quantity,
		})
	}
	return products, nil
}

// Categories implements Service.
func (s *HTTPService) Categories(ctx context.Context) ([]Category, error) {
	var payload []categoryPayload
	if err := s.getList(ctx, "categories/", &payload); err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(payload))
	for _, c := range payload {
		out = append(out, Category{ID: string(c.ID), Name: c.Name, Description: c.Description})
	}
	return out, nil
}

// getList decodes either a bare JSON array or a paginated {"results": [...]} envelope.
func (s *HTTPService) getList(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resolve(endpoint), nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", endpoint, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("catalog: decode %s: %w", endpoint, err)
		}
		body = page.Results
	}
	if len(body) == 0 || string(body) == "null" {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", endpoint, err)
	}
	return nil
}

func (s *HTTPService) resolve(endpoint string) string {
	return s.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(endpoint, "/")}).String()
}

func (s *HTTPService) absoluteImage(image string) string {
	image = strings.TrimSpace(image)
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	root := &url.URL{Scheme: s.base.Scheme, Host: s.base.Host}
	return root.ResolveReference(&url.URL{Path: "/" + strings.TrimPrefix(image, "/")}).String()
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var payload struct {
		Detail string `json:"detail"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
			return fmt.Errorf("catalog: backend error (%d): %s", resp.StatusCode, payload.Detail)
		}
		return fmt.Errorf("catalog: backend error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("catalog: backend error (%d): %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// flexibleID accepts numeric or string identifiers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
