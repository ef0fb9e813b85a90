package domain

import "time"

type ShippingMethod string

const (
	ShippingDelivery ShippingMethod = "DELIVERY"
	ShippingPickup   ShippingMethod = "PICKUP"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Phone     string `json:"phone"`
}

// StorePickupAddress is the sentinel used instead of a customer address
// when the shipping method is PICKUP.
var StorePickupAddress = Address{
	FirstName: "Store",
	LastName:  "Pickup",
	Street:    "1 Warehouse Road",
	City:      "Main Store",
	Postcode:  "00000",
	Phone:     "-",
}

type OrderDraftItem struct {
	ProductID   int64   `json:"product_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"price"`
	VariantName string  `json:"variant_name,omitempty"`
}

// OrderDraft is built at submission time and never persisted locally:
// a failed submission leaves the cart as it was.
type OrderDraft struct {
	IdempotencyKey  string           `json:"idempotency_key"`
	ShippingMethod  ShippingMethod   `json:"shipping_method"`
	ShippingAddress Address          `json:"shipping_address"`
	Items           []OrderDraftItem `json:"items"`
	Subtotal        float64          `json:"subtotal"`
	DeliveryFee     float64          `json:"delivery_fee"`
	Discount        float64          `json:"discount"`
	Total           float64          `json:"total_amount"`
}

// Receipt is the immutable snapshot rendered after a successful
// submission, insulated from any later cart or catalog mutation.
type Receipt struct {
	OrderID        string           `json:"order_id"`
	Items          []OrderDraftItem `json:"items"`
	ShippingMethod ShippingMethod   `json:"shipping_method"`
	Subtotal       float64          `json:"subtotal"`
	DeliveryFee    float64          `json:"delivery_fee"`
	Discount       float64          `json:"discount"`
	Total          float64          `json:"total_amount"`
	CapturedAt     time.Time        `json:"captured_at"`
}
