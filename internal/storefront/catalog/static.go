package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// StaticService serves the embedded seed catalog for development and tests.
type StaticService struct {
	products   []Product
	categories []Category
}

type seedFile struct {
	Categories []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
	Products []struct {
		ID          string  `yaml:"id"`
		Title       string  `yaml:"title"`
		Description string  `yaml:"description"`
		Image       string  `yaml:"image"`
		Price       string  `yaml:"price"`
		NewPrice    string  `yaml:"new_price"`
		Rating      float64 `yaml:"rating"`
		RatingMax   int     `yaml:"rating_max"`
		Category    string  `yaml:"category"`
		Quantity    int     `yaml:"quantity"`
		Inactive    bool    `yaml:"inactive"`
	} `yaml:"products"`
}

// NewStaticService parses the embedded seed. It panics when the seed is malformed.
func NewStaticService() *StaticService {
	svc, err := LoadStatic(seedYAML)
	if err != nil {
		panic(err)
	}
	return svc
}

// LoadStatic parses a YAML seed document. Inactive products are dropped.
func LoadStatic(doc []byte) (*StaticService, error) {
	var seed seedFile
	dec := yaml.NewDecoder(bytes.NewReader(doc))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("catalog: decode seed: %w", err)
	}

	svc := &StaticService{}
	for _, c := range seed.Categories {
		svc.categories = append(svc.categories, Category{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	for _, p := range seed.Products {
		if p.Inactive {
			continue
		}
		price, err := ParsePrice(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %s: %w", p.ID, err)
		}
		newPrice, err := ParsePrice(p.NewPrice)
		if err != nil {
			return nil, fmt.Errorf("catalog: product %s: %w", p.ID, err)
		}
		desc, err := RenderDescription(p.Description)
		if err != nil {
			return nil, err
		}
		svc.products = append(svc.products, Product{
			ID:          p.ID,
			Title:       p.Title,
			Description: desc,
			Image:       p.Image,
			Price:       price,
			NewPrice:    newPrice,
			Rating:      p.Rating,
			RatingMax:   p.RatingMax,
			Category:    p.Category,
			Quantity:    p.Quantity,
		})
	}
	return svc, nil
}

// Featured implements Service.
func (s *StaticService) Featured(context.Context) ([]Product, error) {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Categories implements Service.
func (s *StaticService) Categories(context.Context) ([]Category, error) {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}
