// Package settlement provides simulated payment rails: an on-chain mint and a
// card processor. Both take a fixed delay and fail at a configurable rate.
package settlement

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/service/purchase"
	"nfticket-backend/internal/utils/random"
)

var (
	ErrReverted = errors.New("execution reverted")
	ErrDeclined = errors.New("card declined")
)

// maxTokenID bounds simulated token ids.
const maxTokenID = 10_000_000

// Mint is a simulated purchase.SettlementRail.
type Mint struct {
	delay       time.Duration
	failureRate float64
	log         zerolog.Logger
}

func NewMint(delay time.Duration, failureRate float64) *Mint {
	return &Mint{delay: delay, failureRate: failureRate, log: logger.Component("mint")}
}

func (m *Mint) Mint(ctx context.Context, eventID int64, tier string) (purchase.MintReceipt, error) {
	if err := wait(ctx, m.delay); err != nil {
		return purchase.MintReceipt{}, err
	}
	if fails(m.failureRate) {
		m.log.Warn().Int64("event_id", eventID).Msg("Simulated mint reverted")
		return purchase.MintReceipt{}, ErrReverted
	}

	n, err := random.Int64n(maxTokenID)
	if err != nil {
		return purchase.MintReceipt{}, err
	}
	h, err := random.Bytes(common.HashLength)
	if err != nil {
		return purchase.MintReceipt{}, err
	}
	receipt := purchase.MintReceipt{
		TokenID:     strconv.FormatInt(n+1, 10),
		TxReference: common.BytesToHash(h).Hex(),
	}
	m.log.Debug().
		Int64("event_id", eventID).
		Str("tier", tier).
		Str("token_id", receipt.TokenID).
		Str("tx", receipt.TxReference).
		Msg("Simulated mint confirmed")
	return receipt, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func fails(rate float64) bool {
	return random.Chance(rate)
}
