package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNotFound is returned when a product or category does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Service provides the product data shown on the main page.
type Service interface {
	// Featured returns the active products for the horizontal slider.
	Featured(ctx context.Context) ([]Product, error)
	// Categories returns the categories listed in the sidebar.
	Categories(ctx context.Context) ([]Category, error)
}

// Product is a single listing rendered as a product card.
type Product struct {
	ID          string
	Title       string
	Description template.HTML
	Image       string
	// Price and NewPrice are expressed in cents. NewPrice of zero means no discount.
	Price     int64
	NewPrice  int64
	Rating    float64
	RatingMax int
	Category  string
	Quantity  int
}

// Discounted reports whether the card shows a struck-through old price.
func (p Product) Discounted() bool {
	return p.NewPrice > 0 && p.NewPrice != p.Price
}

// CurrentPrice is the price the shopper pays.
func (p Product) CurrentPrice() int64 {
	if p.Discounted() {
		return p.NewPrice
	}
	return p.Price
}

// Stars returns one entry per star slot; true marks a filled star.
// Without RatingMax only the filled stars are returned.
func (p Product) Stars() []bool {
	filled := int(math.Floor(p.Rating))
	if filled < 0 {
		filled = 0
	}
	total := filled
	if p.RatingMax > 0 {
		total = p.RatingMax
		if filled > total {
			filled = total
		}
	}
	stars := make([]bool, total)
	for i := 0; i < filled; i++ {
		stars[i] = true
	}
	return stars
}

// Category groups products in the sidebar.
type Category struct {
	ID          string
	Name        string
	Description string
}

var printer = message.NewPrinter(language.English)

// FormatPrice renders cents as a dollar amount with grouped digits, e.g. $1,299.00.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return printer.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// ParsePrice converts a decimal string such as "12.50" to cents. Only an optional
// leading minus, digits and at most two decimals are accepted.
func ParsePrice(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	digits, negative := strings.CutPrefix(raw, "-")

	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" && frac == "" || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("catalog: malformed price %q", raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("catalog: price %q has more than two decimals", raw)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", 2-len(frac))

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("catalog: parse price %q: %w", raw, err)
	}
	minor, _ := strconv.ParseInt(frac, 10, 64)
	if major > (math.MaxInt64-minor)/100 {
		return 0, fmt.Errorf("catalog: price %q out of range", raw)
	}
	cents := major*100 + minor
	if negative {
		cents = -cents
	}
	return cents, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var (
	markdown = goldmark.New()
	policy   = bluemonday.UGCPolicy()
)

// RenderDescription converts Markdown to sanitised HTML.
func RenderDescription(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("catalog: render description: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}
