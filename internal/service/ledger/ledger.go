// Package ledger keeps the ordered, durable list of tickets owned by one identity.
package ledger

import (
	"context"
	"encoding/json"
	"iter"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/kvstore"
)

const (
	// LegacyKey is the device-level key older clients stored every ticket under.
	LegacyKey = "nft-ticket-tickets"
	keyPrefix = "nft-ticket-tickets:"
)

// Key returns the storage key of the ledger owned by identityID.
func Key(identityID string) string { return keyPrefix + identityID }

// Ledger is safe for concurrent use. Every mutation rewrites the whole
// persisted sequence with a single Set while holding the lock.
type Ledger struct {
	mu      sync.RWMutex
	store   kvstore.Store
	key     string
	records []ticket.Record
	log     zerolog.Logger
}

// Load reads the ledger stored under key. A missing key yields an empty ledger,
// and so does a value that cannot be decoded: corrupt data is logged and
// replaced on the next write. Only store failures are returned.
func Load(ctx context.Context, store kvstore.Store, key string) (*Ledger, error) {
	l := &Ledger{store: store, key: key, log: logger.Component("ledger")}
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, apperrors.NewCacheError("load ledger", err)
	}
	if !ok || raw == "" {
		return l, nil
	}
	records, err := decode(raw)
	if err != nil {
		l.log.Warn().
			Err(apperrors.Wrap(err, apperrors.ErrCodePersistenceParse, "corrupt ledger")).
			Str("key", key).
			Msg("Falling back to empty ledger")
		return l, nil
	}
	l.records = records
	return l, nil
}

func decode(raw string) ([]ticket.Record, error) {
	var records []ticket.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	// Drop duplicate token ids a hand-edited or older mirror may contain; first wins.
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if _, dup := seen[r.TokenID]; dup {
			continue
		}
		seen[r.TokenID] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// Key is the storage key this ledger persists to.
func (l *Ledger) Key() string { return l.key }

// Add appends record. A token id already in the ledger is rejected and the
// ledger is left untouched.
func (l *Ledger) Add(ctx context.Context, record ticket.Record) error {
	if record.TokenID == "" {
		return apperrors.NewValidationError("tokenId", "must not be empty")
	}
	if !record.Status.Valid() {
		return apperrors.NewValidationError("status", "unknown status "+string(record.Status))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(record.TokenID) >= 0 {
		return ErrDuplicateToken(record.TokenID)
	}
	next := append(slices.Clone(l.records), record)
	if err := l.persist(ctx, next); err != nil {
		return err
	}
	l.records = next
	l.log.Debug().Str("token_id", record.TokenID).Int64("event_id", record.EventID).Msg("Ticket added")
	return nil
}

// SetStatus changes the status of tokenID in place. Setting the status a
// record already has is a no-op.
func (l *Ledger) SetStatus(ctx context.Context, tokenID string, status ticket.Status) error {
	if !status.Valid() {
		return apperrors.NewValidationError("status", "unknown status "+string(status))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(tokenID)
	if i < 0 {
		return ErrTicketNotFound(tokenID)
	}
	if l.records[i].Status == status {
		return nil
	}
	next := slices.Clone(l.records)
	next[i].Status = status
	if err := l.persist(ctx, next); err != nil {
		return err
	}
	l.records = next
	l.log.Debug().Str("token_id", tokenID).Str("status", string(status)).Msg("Ticket status updated")
	return nil
}

// Get returns the record for tokenID.
func (l *Ledger) Get(tokenID string) (ticket.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(tokenID); i >= 0 {
		return l.records[i], true
	}
	return ticket.Record{}, false
}

func (l *Ledger) Has(tokenID string) bool {
	_, ok := l.Get(tokenID)
	return ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// All returns a copy of every record in insertion order.
func (l *Ledger) All() []ticket.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Active yields records that are not redeemed, in insertion order. Each
// iteration reads the ledger afresh.
func (l *Ledger) Active() iter.Seq[ticket.Record] {
	return l.filter(func(r ticket.Record) bool { return !r.IsRedeemed() })
}

// Redeemed yields redeemed records in insertion order.
func (l *Ledger) Redeemed() iter.Seq[ticket.Record] {
	return l.filter(ticket.Record.IsRedeemed)
}

func (l *Ledger) ListActive() []ticket.Record {
	return collect(l.Active())
}

func (l *Ledger) ListRedeemed() []ticket.Record {
	return collect(l.Redeemed())
}

func collect(seq iter.Seq[ticket.Record]) []ticket.Record {
	out := []ticket.Record{}
	for r := range seq {
		out = append(out, r)
	}
	return out
}

func (l *Ledger) filter(keep func(ticket.Record) bool) iter.Seq[ticket.Record] {
	return func(yield func(ticket.Record) bool) {
		for _, r := range l.All() {
			if keep(r) && !yield(r) {
				return
			}
		}
	}
}

func (l *Ledger) indexOf(tokenID string) int {
	return slices.IndexFunc(l.records, func(r ticket.Record) bool { return r.TokenID == tokenID })
}

func (l *Ledger) persist(ctx context.Context, records []ticket.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode ledger")
	}
	if err := l.store.Set(ctx, l.key, string(data)); err != nil {
		return apperrors.NewCacheError("persist ledger", err)
	}
	return nil
}
