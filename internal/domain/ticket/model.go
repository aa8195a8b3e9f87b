package ticket

import "time"

// Status is the lifecycle state of an owned ticket.
type Status string

const (
	StatusPendingMint Status = "pending_mint"
	StatusActive      Status = "active"
	StatusRedeemed    Status = "redeemed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingMint, StatusActive, StatusRedeemed:
		return true
	}
	return false
}

// Payment methods recorded on a ticket.
const (
	PaymentCrypto = "crypto"
	PaymentCard   = "card"
)

// Record is one owned ticket. TokenID and EventID never change after creation;
// Status is the only mutable field.
type Record struct {
	TokenID             string    `json:"tokenId"`
	EventID             int64     `json:"eventId"`
	EventTitle          string    `json:"eventTitle"`
	EventDate           string    `json:"eventDate"`
	EventTime           string    `json:"eventTime"`
	Location            string    `json:"location"`
	Tier                string    `json:"tier"`
	Price               string    `json:"price"`
	SettlementReference string    `json:"txHash,omitempty"`
	PaymentMethod       string    `json:"paymentMethod,omitempty"`
	PurchaseDate        time.Time `json:"purchaseDate"`
	Status              Status    `json:"status"`
}

func (r Record) IsRedeemed() bool { return r.Status == StatusRedeemed }
