package admin

import (
	"strings"

	"shophub/internal/model"

	"github.com/shopspring/decimal"
)

// Validate checks the draft fields required for both create and update.
// Neither an image file nor an image URL is required.
func Validate(d model.Draft) error {
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"description", d.Description},
		{"price", d.Price},
		{"category", d.Category},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &model.ValidationError{Field: r.field, Message: r.field + " is required"}
		}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(d.Price))
	if err != nil {
		return &model.ValidationError{Field: "price", Message: "price must be a number"}
	}
	if price.IsNegative() {
		return &model.ValidationError{Field: "price", Message: "price must not be negative"}
	}

	return nil
}
