// Package pricing computes unit prices, line totals and packaging quantities.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
)

type Engine struct {
	schedule Schedule
}

func NewEngine(schedule Schedule) *Engine {
	return &Engine{schedule: schedule}
}

// UnitPrice never fails: unknown or missing sizes resolve to the default tier.
func (e *Engine) UnitPrice(p catalog.Product) decimal.Decimal {
	if p.Category.IsMaterials() {
		return e.schedule.MaterialsPerKg
	}
	if price, ok := e.schedule.SizeTiers[normalizeSize(p.Size)]; ok {
		return price
	}
	return e.schedule.DefaultTier
}

// LineTotal is UnitPrice multiplied by quantity, exactly.
func (e *Engine) LineTotal(p catalog.Product, quantity int) decimal.Decimal {
	return e.UnitPrice(p).Mul(decimal.NewFromInt(int64(quantity)))
}
