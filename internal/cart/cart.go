// Package cart holds the storefront cart and its per-session persistence.
package cart

import (
	"encoding/json"

	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	"github.com/angelmondragon/rattanstore-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

// Cart is an ordered set of lines with unique keys. Every line quantity is a
// positive multiple of its category step, at least the category minimum.
// Cart does no I/O and is not safe for concurrent use.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add merges into an existing line by one step, or appends a new line at the minimum.
func (c *Cart) Add(product catalog.Product, variant *catalog.ColorVariant, imageIndex int) Line {
	key := LineKey{ProductID: product.ID, ImageIndex: imageIndex}
	if variant != nil {
		key.VariantID = variant.ID
	}

	if i := c.indexOf(key); i >= 0 {
		c.lines[i].Quantity += pricing.QuantityStep(c.lines[i].Product.Category)
		return c.lines[i]
	}

	line := Line{
		Key:      key,
		Product:  product,
		Quantity: pricing.MinQuantity(product.Category),
	}
	if variant != nil {
		v := *variant
		line.Variant = &v
	}
	c.lines = append(c.lines, line)
	return line
}

// SetQuantity overwrites a line's quantity. Values breaking the packaging rules are
// rejected rather than stored.
func (c *Cart) SetQuantity(key LineKey, quantity int) error {
	i := c.indexOf(key)
	if i < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").WithDetails(map[string]any{"lineKey": key.String()})
	}
	category := c.lines[i].Product.Category
	if !pricing.ValidQuantity(category, quantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity").WithDetails(map[string]any{
			"lineKey":  key.String(),
			"quantity": quantity,
			"minimum":  pricing.MinQuantity(category),
			"step":     pricing.QuantityStep(category),
		})
	}
	c.lines[i].Quantity = quantity
	return nil
}

// Remove deletes the line with key; absent keys are ignored.
func (c *Cart) Remove(key LineKey) {
	if i := c.indexOf(key); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// TotalItemCount sums raw quantities across lines, mixing kilograms and pieces.
func (c *Cart) TotalItemCount() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// Line returns a copy of the line with key.
func (c *Cart) Line(key LineKey) (Line, bool) {
	if i := c.indexOf(key); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) indexOf(key LineKey) int {
	for i := range c.lines {
		if c.lines[i].Key == key {
			return i
		}
	}
	return -1
}

type snapshot struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(snapshot{Lines: lines})
}

// UnmarshalJSON drops duplicate keys and invalid quantities so a stored cart can
// never reintroduce lines that break the cart rules.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	c.lines = nil
	for _, line := range snap.Lines {
		if c.indexOf(line.Key) >= 0 || !pricing.ValidQuantity(line.Product.Category, line.Quantity) {
			continue
		}
		c.lines = append(c.lines, line)
	}
	return nil
}
