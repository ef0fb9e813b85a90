package checkout

import "github.com/fjod/go_storefront/internal/domain"

// Pricing constants. The discount is a flat threshold promotion, the
// delivery fee is flat per order.
const (
	DiscountThreshold = 500.0
	DiscountAmount    = 50.0
	DeliveryFeeAmount = 10.0
)

type Pricing struct {
	Subtotal    float64
	DeliveryFee float64
	Discount    float64
	Total       float64
}

// Quote computes the final pricing for the given cart lines and shipping
// method. Pure function: same cart, same method, same quote.
func Quote(lines []domain.CartLine, method domain.ShippingMethod) Pricing {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.LineTotal()
	}

	p := Pricing{Subtotal: subtotal}
	if subtotal >= DiscountThreshold {
		p.Discount = DiscountAmount
	}
	if method == domain.ShippingDelivery {
		p.DeliveryFee = DeliveryFeeAmount
	}
	p.Total = p.Subtotal + p.DeliveryFee - p.Discount
	return p
}
