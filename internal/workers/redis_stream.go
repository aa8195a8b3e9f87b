package workers

import (
	"context"
	"errors"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/platform/redis"
	"nfticket-backend/internal/service/ledger"
	"nfticket-backend/internal/service/notifications"
)

const (
	consumerGroup = "nfticket_backend_consumers"
	consumerName  = "nfticket_worker_1"

	EventTicketRedeemed = "ticket_redeemed"
	EventTicketMinted   = "ticket_minted"
)

// LedgerResolver finds the ledger an event refers to. An empty userID means
// the signed-in identity.
type LedgerResolver interface {
	LedgerFor(ctx context.Context, userID string) (*ledger.Ledger, error)
}

// EventObserver counts consumed events.
type EventObserver interface {
	TicketEvent(eventType string, ok bool)
}

// TicketEventWorker applies ticket lifecycle events from a redis stream:
// door-scanner redemptions and deferred mints of card purchases.
type TicketEventWorker struct {
	rdb      *redis.Client
	stream   string
	ledgers  LedgerResolver
	notifier notifications.Notifier
	observer EventObserver
	log      zerolog.Logger
}

func NewTicketEventWorker(rdb *redis.Client, stream string, ledgers LedgerResolver, notifier notifications.Notifier) *TicketEventWorker {
	return &TicketEventWorker{
		rdb:      rdb,
		stream:   stream,
		ledgers:  ledgers,
		notifier: notifier,
		log:      logger.Component("ticket_events"),
	}
}

func (w *TicketEventWorker) WithObserver(o EventObserver) *TicketEventWorker {
	w.observer = o
	return w
}

// Start consumes the stream until ctx is cancelled.
func (w *TicketEventWorker) Start(ctx context.Context) {
	if err := w.ensureGroup(ctx); err != nil {
		w.log.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.stream).Msg("Starting ticket event worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping ticket event worker")
			return
		default:
			entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: consumerName,
				Streams:  []string{w.stream, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if !errors.Is(err, go_redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Error reading from stream")
					time.Sleep(time.Second)
				}
				continue
			}

			for _, stream := range entries {
				for _, msg := range stream.Messages {
					w.processMessage(ctx, msg.Values)
					if err := w.rdb.XAck(ctx, w.stream, consumerGroup, msg.ID).Err(); err != nil {
						w.log.Error().Err(err).Str("id", msg.ID).Msg("Failed to ack message")
					}
				}
			}
		}
	}
}

func (w *TicketEventWorker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, consumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// processMessage never fails the batch; a bad event is logged and acked.
func (w *TicketEventWorker) processMessage(ctx context.Context, values map[string]interface{}) {
	eventType, _ := values["type"].(string)
	tokenID, _ := values["token_id"].(string)
	userID, _ := values["user_id"].(string)

	var target ticket.Status
	switch eventType {
	case EventTicketRedeemed:
		target = ticket.StatusRedeemed
	case EventTicketMinted:
		target = ticket.StatusActive
	default:
		w.log.Debug().Str("type", eventType).Msg("Ignoring unknown event")
		return
	}
	if tokenID == "" {
		w.log.Warn().Interface("values", values).Msg("Event without token_id")
		w.observe(eventType, false)
		return
	}

	log := w.log.With().Str("type", eventType).Str("token_id", tokenID).Str("user_id", userID).Logger()
	err := w.apply(ctx, userID, tokenID, target)
	switch {
	case err == nil:
		log.Info().Msg("Ticket event applied")
		w.observe(eventType, true)
	case apperrors.HasCode(err, apperrors.ErrCodeNotFound):
		log.Warn().Err(err).Msg("Ticket event references unknown token")
		w.observe(eventType, false)
	default:
		log.Error().Err(err).Msg("Failed to apply ticket event")
		w.observe(eventType, false)
	}
}

func (w *TicketEventWorker) apply(ctx context.Context, userID, tokenID string, target ticket.Status) error {
	l, err := w.ledgers.LedgerFor(ctx, userID)
	if err != nil {
		return err
	}
	current, ok := l.Get(tokenID)
	if !ok {
		return ledger.ErrTicketNotFound(tokenID)
	}
	// A mint notice only promotes reserved tickets; it never un-redeems one.
	if target == ticket.StatusActive && current.Status != ticket.StatusPendingMint {
		return nil
	}
	if current.Status == target {
		return nil
	}
	if err := l.SetStatus(ctx, tokenID, target); err != nil {
		return err
	}

	if w.notifier != nil {
		if target == ticket.StatusRedeemed {
			w.notifier.Notify(ctx, notifications.TicketRedeemed(tokenID))
		} else {
			w.notifier.Notify(ctx, notifications.TicketMintCompleted(tokenID))
		}
	}
	return nil
}

func (w *TicketEventWorker) observe(eventType string, ok bool) {
	if w.observer != nil {
		w.observer.TicketEvent(eventType, ok)
	}
}
