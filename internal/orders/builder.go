// Package orders builds order snapshots from carts and keeps the persisted order
// records and their lifecycle.
package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/internal/cart"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/types"
)

// DefaultLanguage is used when a submission carries no language tag.
const DefaultLanguage = "ru"

type ValidationReason string

const (
	ReasonMissingName     ValidationReason = "missing_name"
	ReasonMissingPhone    ValidationReason = "missing_phone"
	ReasonEmptyCart       ValidationReason = "empty_cart"
	ReasonConsentRequired ValidationReason = "consent_required"
)

// ValidationError blocks a submission before any network call.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingName:
		return "customer name is required"
	case ReasonMissingPhone:
		return "customer phone is required"
	case ReasonEmptyCart:
		return "cart is empty"
	case ReasonConsentRequired:
		return "data processing consent is required"
	default:
		return fmt.Sprintf("invalid order: %s", e.Reason)
	}
}

func validationFailure(reason ValidationReason) error {
	cause := &ValidationError{Reason: reason}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, cause.Error()).
		WithDetails(map[string]any{"reason": string(reason)})
}

// Order is the immutable snapshot sent to the destination channel and persisted.
type Order struct {
	Lines     types.OrderLines   `json:"items"`
	Customer  types.CustomerInfo `json:"customerInfo"`
	Total     decimal.Decimal    `json:"total"`
	Language  string             `json:"language"`
	CreatedAt time.Time          `json:"createdAt"`
}

type BuildInput struct {
	Lines        []cart.Line
	Customer     types.CustomerInfo
	ConsentGiven bool
	Language     string
}

// Builder prices cart lines into an Order. It performs no I/O.
type Builder struct {
	pricing *pricing.Engine
	now     func() time.Time
}

func NewBuilder(engine *pricing.Engine) *Builder {
	return &Builder{pricing: engine, now: time.Now}
}

// Build validates in a fixed order and stops at the first failure: name, phone,
// cart, consent.
func (b *Builder) Build(input BuildInput) (*Order, error) {
	customer := input.Customer.Normalized()
	switch {
	case customer.Name == "":
		return nil, validationFailure(ReasonMissingName)
	case customer.Phone == "":
		return nil, validationFailure(ReasonMissingPhone)
	case len(input.Lines) == 0:
		return nil, validationFailure(ReasonEmptyCart)
	case !input.ConsentGiven:
		return nil, validationFailure(ReasonConsentRequired)
	}

	lines := make(types.OrderLines, 0, len(input.Lines))
	for _, line := range input.Lines {
		ol := types.OrderLine{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Category:    line.Product.Category.String(),
			Quantity:    line.Quantity,
			Size:        line.Product.Size,
			Style:       line.Product.Style,
			UnitPrice:   b.pricing.UnitPrice(line.Product),
			LineTotal:   b.pricing.LineTotal(line.Product, line.Quantity),
		}
		if line.Variant != nil {
			ol.VariantName = line.Variant.Name
		}
		lines = append(lines, ol)
	}

	language := strings.ToLower(strings.TrimSpace(input.Language))
	if language == "" {
		language = DefaultLanguage
	}

	return &Order{
		Lines:     lines,
		Customer:  customer,
		Total:     lines.Total(),
		Language:  language,
		CreatedAt: b.now().UTC(),
	}, nil
}

// FromSnapshot rebuilds an Order from already priced lines, as the admin create
// endpoint receives them. Totals are recomputed from unit price and quantity.
func FromSnapshot(lines types.OrderLines, customer types.CustomerInfo, language string) (*Order, error) {
	customer = customer.Normalized()
	switch {
	case customer.Name == "":
		return nil, validationFailure(ReasonMissingName)
	case customer.Phone == "":
		return nil, validationFailure(ReasonMissingPhone)
	case len(lines) == 0:
		return nil, validationFailure(ReasonEmptyCart)
	}

	out := make(types.OrderLines, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").
				WithDetails(map[string]any{"line": i})
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative").
				WithDetails(map[string]any{"line": i})
		}
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		out[i] = line
	}

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}
	return &Order{
		Lines:     out,
		Customer:  customer,
		Total:     out.Total(),
		Language:  language,
		CreatedAt: time.Now().UTC(),
	}, nil
}
