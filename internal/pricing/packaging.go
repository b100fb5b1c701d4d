package pricing

import "github.com/angelmondragon/rattanstore-backend/pkg/enums"

const (
	materialsStepKg = 5
	unitStep        = 1
)

// QuantityStep is the increment for a category: 5 kg for materials, one piece otherwise.
func QuantityStep(category enums.ProductCategory) int {
	if category.IsMaterials() {
		return materialsStepKg
	}
	return unitStep
}

// MinQuantity equals the step for every category.
func MinQuantity(category enums.ProductCategory) int {
	return QuantityStep(category)
}

// ValidQuantity reports a positive multiple of the step, at least the minimum.
func ValidQuantity(category enums.ProductCategory, quantity int) bool {
	return quantity >= MinQuantity(category) && quantity%QuantityStep(category) == 0
}

// ClampQuantity raises requested to the minimum and rounds it up to the next step.
func ClampQuantity(category enums.ProductCategory, requested int) int {
	minimum, step := MinQuantity(category), QuantityStep(category)
	if requested < minimum {
		return minimum
	}
	if rem := requested % step; rem != 0 {
		return requested + step - rem
	}
	return requested
}

// Unit is the display unit for a category's quantity.
func Unit(category enums.ProductCategory) string {
	if category.IsMaterials() {
		return "kg"
	}
	return "pcs"
}
