package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
)

// Card is a simulated purchase.PaymentProcessor.
type Card struct {
	delay       time.Duration
	failureRate float64
	log         zerolog.Logger
}

func NewCard(delay time.Duration, failureRate float64) *Card {
	return &Card{delay: delay, failureRate: failureRate, log: logger.Component("card")}
}

func (c *Card) Charge(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	if !amount.IsPositive() {
		return "", apperrors.NewValidationError("amount", "must be positive")
	}
	if currency == "" {
		return "", apperrors.NewValidationError("currency", "must not be empty")
	}
	if err := wait(ctx, c.delay); err != nil {
		return "", err
	}
	if fails(c.failureRate) {
		c.log.Warn().Str("amount", amount.String()).Str("currency", currency).Msg("Simulated charge declined")
		return "", ErrDeclined
	}
	ref := "res_" + uuid.NewString()
	c.log.Debug().Str("amount", amount.StringFixed(2)).Str("currency", currency).Str("reservation", ref).Msg("Simulated charge captured")
	return ref, nil
}
