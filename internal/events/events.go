// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"
)

// TicketPurchased is emitted once a ticket lands in a ledger.
type TicketPurchased struct {
	PurchaseID    string    `json:"purchaseId"`
	UserID        string    `json:"userId"`
	TokenID       string    `json:"tokenId"`
	EventID       int64     `json:"eventId"`
	Tier          string    `json:"tier"`
	Price         string    `json:"price"`
	PaymentMethod string    `json:"paymentMethod"`
	Reference     string    `json:"reference,omitempty"`
	Status        string    `json:"status"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}

// Publisher delivers TicketPurchased events. Failures are reported to the
// caller, which may ignore them.
type Publisher interface {
	PublishTicketPurchased(ctx context.Context, ev TicketPurchased) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishTicketPurchased(context.Context, TicketPurchased) error { return nil }
