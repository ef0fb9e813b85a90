package domain

import "time"

// Notification is the payload of the single-slot toast shown after an
// item is added to the cart.
type Notification struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	ImageURL    string    `json:"image_url,omitempty"`
	VariantName string    `json:"variant_name,omitempty"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}
