package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nfticket-backend/internal/catalog"
	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/events"
	"nfticket-backend/internal/service/notifications"
)

const (
	// DefaultSettlementTimeout bounds a settlement when Deps leaves it unset.
	DefaultSettlementTimeout = 30 * time.Second
	// DefaultRetainFinished is how long a succeeded or failed purchase stays
	// readable before the service forgets it.
	DefaultRetainFinished = 15 * time.Minute
)

// Deps are the collaborators shared by every workflow.
type Deps struct {
	Wallet    Wallet
	Identity  IdentitySource
	Mint      SettlementRail
	Card      PaymentProcessor
	Notifier  notifications.Notifier
	Publisher events.Publisher
	Observer  Observer

	SettlementTimeout time.Duration
	RetainFinished    time.Duration
	Now               func() time.Time
}

func (d Deps) timeout() time.Duration {
	if d.SettlementTimeout <= 0 {
		return DefaultSettlementTimeout
	}
	return d.SettlementTimeout
}

func (d Deps) retain() time.Duration {
	if d.RetainFinished <= 0 {
		return DefaultRetainFinished
	}
	return d.RetainFinished
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Service keeps the live purchases the front-end is driving.
type Service struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	deps      Deps
	workflows map[string]*Workflow
	log       zerolog.Logger
}

func NewService(c *catalog.Catalog, deps Deps) *Service {
	return &Service{
		catalog:   c,
		deps:      deps,
		workflows: make(map[string]*Workflow),
		log:       logger.Component("purchase"),
	}
}

// Open starts a purchase of eventID. The user must be signed in; rail
// defaults to crypto.
func (s *Service) Open(_ context.Context, eventID int64, rail Rail) (*Workflow, error) {
	if !s.deps.Identity.IsAuthenticated() {
		return nil, apperrors.NewUnauthorizedError("sign in to purchase tickets")
	}
	if rail == "" {
		rail = RailCrypto
	}
	if !rail.Valid() {
		return nil, apperrors.NewValidationError("rail", "must be crypto or fiat")
	}
	event, ok := s.catalog.Get(eventID)
	if !ok {
		return nil, apperrors.NewNotFoundError("event", eventID)
	}

	w := newWorkflow(event, rail, s.deps, s.log)
	s.mu.Lock()
	s.sweep()
	s.workflows[w.ID()] = w
	s.mu.Unlock()

	s.log.Debug().Str("purchase_id", w.ID()).Int64("event_id", eventID).Str("rail", string(rail)).Msg("Purchase opened")
	return w, nil
}

func (s *Service) Get(id string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	w, ok := s.workflows[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("purchase", id)
	}
	return w, nil
}

// Close cancels the purchase and forgets it.
func (s *Service) Close(id string) error {
	w, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil && !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		return err
	}
	s.mu.Lock()
	delete(s.workflows, id)
	s.mu.Unlock()
	return nil
}

// CloseAll abandons every live purchase, e.g. on shutdown or sign-out.
func (s *Service) CloseAll() {
	s.mu.Lock()
	live := s.workflows
	s.workflows = make(map[string]*Workflow)
	s.mu.Unlock()
	for _, w := range live {
		_ = w.Close()
	}
}

// sweep drops purchases that settled longer than RetainFinished ago. Purchases
// still in select or processing are never dropped. Caller holds mu.
func (s *Service) sweep() {
	cutoff := s.deps.now().Add(-s.deps.retain())
	for id, w := range s.workflows {
		if at, ok := w.settledAt(); ok && at.Before(cutoff) {
			delete(s.workflows, id)
			s.log.Debug().Str("purchase_id", id).Msg("Forgetting finished purchase")
		}
	}
}

// Len is the number of purchases the service is tracking.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workflows)
}
