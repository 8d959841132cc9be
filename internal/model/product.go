package model

import (
	"github.com/shopspring/decimal"
)

// Prices travel as JSON numbers, the way the backend serves them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalogue entry as served by the backend.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	Reviews     int             `json:"reviews"`
	Colors      []string        `json:"colors,omitempty"`
	Features    []string        `json:"features,omitempty"`
}

// LineItem is a product held in the cart with its quantity.
type LineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity for the line item.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ImageFile is an image attached to a draft for multipart upload.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Draft mirrors the admin form while a product is being created or edited.
// Price is kept as the text the admin typed.
type Draft struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       string     `json:"price"`
	ImageURL    string     `json:"imageUrl"`
	Category    string     `json:"category"`
	Image       *ImageFile `json:"-"`
}

// DraftFromProduct pre-populates a draft from an existing product.
func DraftFromProduct(p Product) Draft {
	return Draft{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
	}
}
