package domain

import "fmt"

// Variant is a product variant selected for a cart line. Identity is by
// value (color name), not by pointer, so variants coming from different
// catalog fetches still compare equal.
type Variant struct {
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Stock     int    `json:"stock,omitempty"`
}

func (v *Variant) Key() string {
	if v == nil {
		return ""
	}
	return v.ColorName
}

type CartLine struct {
	ProductID int64    `json:"product_id"`
	Name      string   `json:"name"`
	UnitPrice float64  `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Variant   *Variant `json:"variant,omitempty"`
}

// LineKey identifies a cart line: same product with a different variant
// is a separate line.
func (l CartLine) LineKey() string {
	return fmt.Sprintf("%d|%s", l.ProductID, l.Variant.Key())
}

func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
