package cart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
)

// LineKey is the composite identity of a cart line: two variants, or two gallery
// images, of the same product are distinct lines.
type LineKey struct {
	ProductID  string `json:"productId"`
	VariantID  string `json:"variantId,omitempty"`
	ImageIndex int    `json:"imageIndex"`
}

// String renders the key as productId:variantId:imageIndex for URLs.
func (k LineKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.ProductID, k.VariantID, k.ImageIndex)
}

// ParseLineKey reverses LineKey.String. Product ids may not contain ':'.
func ParseLineKey(value string) (LineKey, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 || parts[0] == "" {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid line key")
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil || idx < 0 {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid line key image index")
	}
	return LineKey{ProductID: parts[0], VariantID: parts[1], ImageIndex: idx}, nil
}

// Line is one cart entry. Quantity is kilograms for materials, pieces otherwise.
type Line struct {
	Key      LineKey               `json:"key"`
	Product  catalog.Product       `json:"product"`
	Variant  *catalog.ColorVariant `json:"variant,omitempty"`
	Quantity int                   `json:"quantity"`
}
