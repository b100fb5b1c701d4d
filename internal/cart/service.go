package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

// Service runs cart operations for a storefront session id.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	SetQuantity(ctx context.Context, sessionID string, key LineKey, quantity int) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, key LineKey) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	Lines(ctx context.Context, sessionID string) ([]Line, error)
}

type AddItemInput struct {
	ProductID  string `json:"productId" validate:"required"`
	VariantID  string `json:"variantId,omitempty"`
	ImageIndex int    `json:"imageIndex" validate:"gte=0"`
}

// View is the priced cart returned to the storefront.
type View struct {
	SessionID      string          `json:"sessionId"`
	Lines          []LineView      `json:"lines"`
	TotalItemCount int             `json:"totalItemCount"`
	Total          decimal.Decimal `json:"total"`
}

type LineView struct {
	LineKey     string          `json:"lineKey"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	VariantID   string          `json:"variantId,omitempty"`
	VariantName string          `json:"variantName,omitempty"`
	ImageIndex  int             `json:"imageIndex"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	Step        int             `json:"step"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type service struct {
	repo    Repository
	catalog catalog.Provider
	pricing *pricing.Engine
}

func NewService(repo Repository, provider catalog.Provider, engine *pricing.Engine) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if provider == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	return &service{repo: repo, catalog: provider, pricing: engine}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, c), nil
}

func (s *service) Lines(ctx context.Context, sessionID string) ([]Line, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Lines(), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	if input.ImageIndex < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "imageIndex must not be negative")
	}
	product, err := s.catalog.Product(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	var variant *catalog.ColorVariant
	if id := strings.TrimSpace(input.VariantID); id != "" {
		v, ok := product.Variant(id)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant").WithDetails(map[string]any{"variantId": id})
		}
		variant = v
	}

	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.Add(*product, variant, input.ImageIndex)
		return nil
	})
}

// SetQuantity clamps the requested value to the category minimum and step before
// storing it, the way the storefront quantity picker does.
func (s *service) SetQuantity(ctx context.Context, sessionID string, key LineKey, quantity int) (*View, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		line, ok := c.Line(key)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return c.SetQuantity(key, pricing.ClampQuantity(line.Product.Category, quantity))
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, key LineKey) (*View, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.Remove(key)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, sessionID)
}

func (s *service) mutate(ctx context.Context, sessionID string, fn func(*Cart) error) (*View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return s.view(sessionID, c), nil
}

func (s *service) load(ctx context.Context, sessionID string) (*Cart, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	return s.repo.Load(ctx, sessionID)
}

func (s *service) view(sessionID string, c *Cart) *View {
	out := &View{SessionID: sessionID, Lines: []LineView{}, Total: decimal.Zero}
	for _, line := range c.Lines() {
		unit := s.pricing.UnitPrice(line.Product)
		total := s.pricing.LineTotal(line.Product, line.Quantity)
		lv := LineView{
			LineKey:     line.Key.String(),
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			VariantID:   line.Key.VariantID,
			ImageIndex:  line.Key.ImageIndex,
			Category:    line.Product.Category.String(),
			Quantity:    line.Quantity,
			Unit:        pricing.Unit(line.Product.Category),
			Step:        pricing.QuantityStep(line.Product.Category),
			UnitPrice:   unit,
			LineTotal:   total,
		}
		if line.Variant != nil {
			lv.VariantName = line.Variant.Name
		}
		out.Lines = append(out.Lines, lv)
		out.Total = out.Total.Add(total)
	}
	out.TotalItemCount = c.TotalItemCount()
	return out
}

func validateSessionID(sessionID string) error {
	if _, err := uuid.Parse(strings.TrimSpace(sessionID)); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart session id")
	}
	return nil
}
