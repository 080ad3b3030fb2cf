package order

import (
	"errors"
	"time"

	"github.com/nopgate/twocheckout/provider"
)

// ErrNotFound is returned when an order cannot be resolved
var ErrNotFound = errors.New("order not found")

// Order represents a store order. Orders are created and owned by the store;
// the payment plugin only appends notes and flips the payment status.
type Order struct {
	ID                int64                  `json:"id"`
	CustomOrderNumber string                 `json:"customOrderNumber"`
	Total             float64                `json:"total"`
	CurrencyCode      string                 `json:"currencyCode"`
	PaymentStatus     provider.PaymentStatus `json:"paymentStatus"`
	Cancelled         bool                   `json:"cancelled"`
	Billing           provider.Address       `json:"billing"`
	Items             []provider.Item        `json:"items,omitempty"`
	PaidAt            *time.Time             `json:"paidAt,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

// Note is an immutable append-only order note used as an audit trail
type Note struct {
	ID                int64     `json:"id"`
	OrderID           int64     `json:"orderId"`
	Note              string    `json:"note"`
	DisplayToCustomer bool      `json:"displayToCustomer"`
	CreatedAt         time.Time `json:"createdAt"`
}
