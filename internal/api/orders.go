package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

// Wire DTOs for the order intake endpoint. Field names follow the
// backend contract, not the local persistence format.

type orderItemPayload struct {
	ProductID   int64   `json:"productId"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	VariantName string  `json:"variantName,omitempty"`
}

type orderAddressPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Phone     string `json:"phone"`
}

type orderPayload struct {
	TotalAmount     float64             `json:"totalAmount"`
	ShippingMethod  string              `json:"shippingMethod,omitempty"`
	ShippingAddress orderAddressPayload `json:"shippingAddress"`
	Items           []orderItemPayload  `json:"items"`
	IdempotencyKey  string              `json:"idempotencyKey,omitempty"`
}

type Order struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SubmitOrder posts the draft to order intake and returns the order ID.
func (c *Client) SubmitOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	payload := orderPayload{
		TotalAmount:    draft.Total,
		ShippingMethod: string(draft.ShippingMethod),
		ShippingAddress: orderAddressPayload{
			FirstName: draft.ShippingAddress.FirstName,
			LastName:  draft.ShippingAddress.LastName,
			Street:    draft.ShippingAddress.Street,
			City:      draft.ShippingAddress.City,
			Postcode:  draft.ShippingAddress.Postcode,
			Phone:     draft.ShippingAddress.Phone,
		},
		Items:          make([]orderItemPayload, 0, len(draft.Items)),
		IdempotencyKey: draft.IdempotencyKey,
	}
	for _, item := range draft.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
			VariantName: item.VariantName,
		})
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", "", payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// ListOrders returns all orders; staff dashboard only.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", "", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order through the fulfilment states;
// staff dashboard only.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid order status %q", status)
	}
	path := fmt.Sprintf("/orders/%s/status", orderID)
	query := url.Values{"status": {string(status)}}.Encode()
	return c.do(ctx, http.MethodPut, path, query, nil, nil)
}
