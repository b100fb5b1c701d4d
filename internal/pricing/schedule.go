package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/pkg/config"
)

// Schedule is the static price list: a per-kilogram rate for materials and a
// per-piece price by size tier for everything else.
type Schedule struct {
	MaterialsPerKg decimal.Decimal
	SizeTiers      map[string]decimal.Decimal
	DefaultTier    decimal.Decimal
}

// DefaultSchedule mirrors the shop's published prices.
func DefaultSchedule() Schedule {
	return Schedule{
		MaterialsPerKg: decimal.NewFromInt(36000),
		SizeTiers: map[string]decimal.Decimal{
			normalizeSize("10л"): decimal.NewFromInt(187000),
			normalizeSize("15л"): decimal.NewFromInt(237000),
			normalizeSize("20л"): decimal.NewFromInt(287000),
		},
		DefaultTier: decimal.NewFromInt(187000),
	}
}

// ScheduleFromConfig parses the configured prices. Every amount must be a non-negative decimal.
func ScheduleFromConfig(cfg config.PricingConfig) (Schedule, error) {
	perKg, err := parseAmount("materials per kg", cfg.MaterialsPerKg)
	if err != nil {
		return Schedule{}, err
	}
	def, err := parseAmount("default tier", cfg.DefaultTier)
	if err != nil {
		return Schedule{}, err
	}

	tiers := make(map[string]decimal.Decimal, len(cfg.SizeTiers))
	for size, raw := range cfg.SizeTiers {
		amount, err := parseAmount("size tier "+size, raw)
		if err != nil {
			return Schedule{}, err
		}
		key := normalizeSize(size)
		if key == "" {
			return Schedule{}, fmt.Errorf("pricing: empty size tier label")
		}
		tiers[key] = amount
	}

	return Schedule{MaterialsPerKg: perKg, SizeTiers: tiers, DefaultTier: def}, nil
}

func parseAmount(label, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing: invalid %s %q: %w", label, raw, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("pricing: %s must not be negative", label)
	}
	return amount, nil
}

// normalizeSize folds "10 Л", " 10л" and "10л" onto the same key.
func normalizeSize(size string) string {
	return strings.ToLower(strings.Join(strings.Fields(size), ""))
}
