package purchase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/service/ledger"
)

// MintReceipt is what the chain reports for a minted ticket.
type MintReceipt struct {
	TokenID     string
	TxReference string
}

// SettlementRail mints tickets on chain.
type SettlementRail interface {
	Mint(ctx context.Context, eventID int64, tier string) (MintReceipt, error)
}

// PaymentProcessor charges a card and returns a reservation reference.
type PaymentProcessor interface {
	Charge(ctx context.Context, amount decimal.Decimal, currency string) (string, error)
}

// Wallet is the part of wallet.Session a purchase needs.
type Wallet interface {
	IsConnected() bool
	IsOnTargetNetwork() bool
	Connect(ctx context.Context) error
	SwitchToTargetNetwork(ctx context.Context) error
}

// IdentitySource is the part of identity.Session a purchase needs.
type IdentitySource interface {
	IsAuthenticated() bool
	Identity() (user.Identity, bool)
	Ledger() (*ledger.Ledger, error)
}

// Observer receives settlement outcomes, e.g. for metrics.
type Observer interface {
	SettlementStarted(rail Rail)
	SettlementFinished(rail Rail, outcome string, took time.Duration)
	StaleCompletionDiscarded(rail Rail)
}

// Settlement outcomes reported to Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)
