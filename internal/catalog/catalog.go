// Package catalog serves the static product data the storefront sells.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

//go:embed data/products.json
var defaultProducts []byte

type ColorVariant struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
	Swatch string   `json:"swatch,omitempty"`
}

type Dimensions struct {
	HeightCm   float64 `json:"heightCm,omitempty"`
	DiameterCm float64 `json:"diameterCm,omitempty"`
	WidthCm    float64 `json:"widthCm,omitempty"`
}

type Product struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Images      []string              `json:"images,omitempty"`
	Variants    []ColorVariant        `json:"variants,omitempty"`
	Size        string                `json:"size,omitempty"`
	Style       string                `json:"style,omitempty"`
	Dimensions  *Dimensions           `json:"dimensions,omitempty"`
	Category    enums.ProductCategory `json:"category"`
}

// Variant looks up a color variant by id.
func (p Product) Variant(id string) (*ColorVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			v := p.Variants[i]
			return &v, true
		}
	}
	return nil, false
}

// Provider is the read side of the catalog used by the cart.
type Provider interface {
	Product(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

// Static is an immutable in-memory catalog.
type Static struct {
	byID  map[string]Product
	order []string
}

func NewStatic(products []Product) (*Static, error) {
	s := &Static{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog product %q has no id", p.Name)
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("duplicate catalog product id %q", id)
		}
		p.ID = id
		s.byID[id] = p
		s.order = append(s.order, id)
	}
	return s, nil
}

// Load reads products from path, or the embedded default catalog when path is empty.
func Load(path string) (*Static, error) {
	raw := defaultProducts
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %q: %w", path, err)
		}
		raw = data
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewStatic(products)
}

func (s *Static) Product(_ context.Context, id string) (*Product, error) {
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"productId": id})
	}
	return &p, nil
}

func (s *Static) List(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Categories returns the distinct categories present, sorted.
func (s *Static) Categories() []enums.ProductCategory {
	seen := map[enums.ProductCategory]struct{}{}
	for _, p := range s.byID {
		seen[p.Category] = struct{}{}
	}
	out := make([]enums.ProductCategory, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
