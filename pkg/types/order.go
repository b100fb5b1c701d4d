package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CustomerInfo is the contact block captured at checkout. Name and phone are required.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (c CustomerInfo) Normalized() CustomerInfo {
	return CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		Notes:   strings.TrimSpace(c.Notes),
	}
}

// OrderLine is one priced line of an order snapshot.
type OrderLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	VariantName string          `json:"variantName,omitempty"`
	Size        string          `json:"size,omitempty"`
	Style       string          `json:"style,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// OrderLines is stored as a JSON column.
type OrderLines []OrderLine

// Total sums the line totals.
func (l OrderLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.LineTotal)
	}
	return total
}
