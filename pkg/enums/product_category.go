package enums

import "strings"

// ProductCategory tags catalog items. Only materials are special-cased (sold by weight);
// every other value is a discrete unit item.
type ProductCategory string

const (
	ProductCategoryMaterials ProductCategory = "materials"
	ProductCategoryPlanter   ProductCategory = "planter"
)

func (c ProductCategory) String() string {
	return string(c)
}

// IsMaterials reports bulk-by-weight items.
func (c ProductCategory) IsMaterials() bool {
	return strings.EqualFold(strings.TrimSpace(string(c)), string(ProductCategoryMaterials))
}
