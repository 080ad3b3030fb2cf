package order

import (
	"context"
	"fmt"
	"time"

	"github.com/nopgate/twocheckout/provider"
)

// ProcessingService owns the order payment state transitions.
// The CanMarkAsPaid guard is what makes notification redelivery idempotent:
// it turns false after the first successful transition.
type ProcessingService struct {
	store *Store
}

// NewProcessingService creates a new order processing service
func NewProcessingService(store *Store) *ProcessingService {
	return &ProcessingService{store: store}
}

// CanMarkAsPaid reports whether an order is in a state that permits the paid transition
func (p *ProcessingService) CanMarkAsPaid(o *Order) bool {
	if o == nil {
		return false
	}
	return !o.Cancelled && o.PaymentStatus != provider.StatusPaid
}

// MarkAsPaid flips the order to paid and records the payment time
func (p *ProcessingService) MarkAsPaid(ctx context.Context, o *Order) error {
	if !p.CanMarkAsPaid(o) {
		return fmt.Errorf("order %d cannot be marked as paid", o.ID)
	}

	paidAt := time.Now().UTC()
	if err := p.store.markPaid(ctx, o.ID, paidAt); err != nil {
		return err
	}

	o.PaymentStatus = provider.StatusPaid
	o.PaidAt = &paidAt
	return nil
}
