package purchase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nfticket-backend/internal/catalog"
	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/events"
	"nfticket-backend/internal/service/ledger"
	"nfticket-backend/internal/service/notifications"
)

// Snapshot is a consistent copy of a workflow's state.
type Snapshot struct {
	ID           string         `json:"id"`
	Event        catalog.Event  `json:"event"`
	Rail         Rail           `json:"rail"`
	State        State          `json:"state"`
	IsProcessing bool           `json:"isProcessing"`
	AttemptID    string         `json:"attemptId,omitempty"`
	Ticket       *ticket.Record `json:"ticket,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Workflow is one purchase of one event. Every settlement attempt carries an
// id; a completion whose id no longer matches the live attempt is dropped
// without touching the ledger.
type Workflow struct {
	mu      sync.Mutex
	id      string
	event   catalog.Event
	rail    Rail
	state   State
	attempt string
	cancel  context.CancelFunc
	done    *signal
	started time.Time
	settled time.Time
	owner   string
	record  *ticket.Record
	failure string

	deps Deps
	log  zerolog.Logger
}

func newWorkflow(event catalog.Event, rail Rail, deps Deps, log zerolog.Logger) *Workflow {
	id := uuid.NewString()
	done := newSignal()
	done.fire()
	return &Workflow{
		id:    id,
		event: event,
		rail:  rail,
		state: StateSelect,
		done:  done,
		deps:  deps,
		log:   log.With().Str("purchase_id", id).Int64("event_id", event.ID).Logger(),
	}
}

func (w *Workflow) ID() string { return w.id }

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		ID:           w.id,
		Event:        w.event,
		Rail:         w.rail,
		State:        w.state,
		IsProcessing: w.state == StateProcessing,
		AttemptID:    w.attempt,
		Error:        w.failure,
	}
	if w.record != nil {
		r := *w.record
		s.Ticket = &r
	}
	return s
}

// Done is closed once the in-flight settlement resolves or is abandoned. It
// is already closed when nothing is in flight.
func (w *Workflow) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done.ch
}

// SelectRail is only allowed before confirming.
func (w *Workflow) SelectRail(rail Rail) error {
	if !rail.Valid() {
		return apperrors.NewValidationError("rail", "must be crypto or fiat")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSelect {
		return apperrors.NewInvalidTransitionError(string(w.state), "select_rail")
	}
	w.rail = rail
	return nil
}

// Confirm advances from select. On the crypto rail a missing wallet or wrong
// network is resolved first and the workflow stays in select; the caller
// confirms again afterwards.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	cond := Conditions{Rail: w.rail}
	if w.rail == RailCrypto {
		cond.WalletConnected = w.deps.Wallet.IsConnected()
		cond.OnTargetNetwork = w.deps.Wallet.IsOnTargetNetwork()
	}
	next, cmd, err := Transition(w.state, InputConfirm, cond)
	if err != nil {
		w.mu.Unlock()
		return err
	}

	switch cmd {
	case CommandConnect:
		w.mu.Unlock()
		w.log.Debug().Msg("Wallet not connected, requesting connection")
		return w.deps.Wallet.Connect(ctx)
	case CommandSwitchNetwork:
		w.mu.Unlock()
		w.log.Debug().Msg("Wallet on wrong network, requesting switch")
		return w.deps.Wallet.SwitchToTargetNetwork(ctx)
	}
	defer w.mu.Unlock()

	l, err := w.deps.Identity.Ledger()
	if err != nil {
		return err
	}
	if (w.rail == RailCrypto && w.deps.Mint == nil) || (w.rail == RailFiat && w.deps.Card == nil) {
		return apperrors.New(apperrors.ErrCodeSettlementFailed, "payment rail unavailable").
			WithDetail("rail", string(w.rail))
	}
	w.start(ctx, next, l)
	return nil
}

// start launches settlement. Caller holds mu.
func (w *Workflow) start(ctx context.Context, next State, l *ledger.Ledger) {
	base := context.WithoutCancel(ctx)
	sctx, cancel := context.WithTimeout(base, w.deps.timeout())
	attempt := uuid.NewString()
	done := newSignal()

	w.state = next
	w.attempt = attempt
	w.cancel = cancel
	w.done = done
	w.failure = ""
	w.started = w.deps.now()
	if id, ok := w.deps.Identity.Identity(); ok {
		w.owner = id.ID
	}

	w.log.Info().Str("rail", string(w.rail)).Str("attempt_id", attempt).Msg("Settlement started")
	if w.deps.Observer != nil {
		w.deps.Observer.SettlementStarted(w.rail)
	}

	rail, event := w.rail, w.event
	go func() {
		defer cancel()
		type result struct {
			res settlement
			err error
		}
		out := make(chan result, 1)
		go func() {
			res, err := w.settle(sctx, rail, event)
			out <- result{res, err}
		}()
		// A rail that ignores its context still cannot hold the workflow
		// in processing past the deadline.
		select {
		case r := <-out:
			w.complete(base, attempt, done, rail, l, r.res, r.err)
		case <-sctx.Done():
			w.complete(base, attempt, done, rail, l, settlement{}, sctx.Err())
		}
	}()
}

type settlement struct {
	tokenID   string
	reference string
	price     string
}

func (w *Workflow) settle(ctx context.Context, rail Rail, event catalog.Event) (settlement, error) {
	if rail == RailCrypto {
		receipt, err := w.deps.Mint.Mint(ctx, event.ID, event.Tier)
		if err != nil {
			return settlement{}, err
		}
		if receipt.TokenID == "" {
			return settlement{}, errors.New("mint returned no token id")
		}
		return settlement{tokenID: receipt.TokenID, reference: receipt.TxReference, price: event.Price}, nil
	}

	priceText := event.PriceUSD
	if priceText == "" {
		priceText = event.Price
	}
	amount, err := catalog.ParsePrice(priceText)
	if err != nil {
		return settlement{}, err
	}
	ref, err := w.deps.Card.Charge(ctx, amount.Value, amount.Currency)
	if err != nil {
		return settlement{}, err
	}
	return settlement{tokenID: uuid.NewString(), reference: ref, price: priceText}, nil
}

// complete applies a settlement result if attempt is still live. done fires
// after notifications are sent.
func (w *Workflow) complete(ctx context.Context, attempt string, done *signal, rail Rail, l *ledger.Ledger, res settlement, settleErr error) {
	w.mu.Lock()
	if w.attempt != attempt {
		w.mu.Unlock()
		w.log.Info().Str("attempt_id", attempt).Msg("Discarding stale settlement completion")
		if w.deps.Observer != nil {
			w.deps.Observer.StaleCompletionDiscarded(rail)
		}
		return
	}
	took := w.deps.now().Sub(w.started)

	var record ticket.Record
	if settleErr == nil {
		record = w.buildRecord(rail, res)
		if err := l.Add(ctx, record); err != nil {
			settleErr = err
		}
	}

	if settleErr != nil {
		next, _, _ := Transition(w.state, InputSettlementFailed, Conditions{Rail: rail})
		reason, outcome := failureReason(rail, settleErr)
		w.state = next
		w.failure = reason
		w.settled = w.deps.now()
		w.finish()
		w.mu.Unlock()

		w.log.Error().Err(settleErr).Str("rail", string(rail)).Str("attempt_id", attempt).Msg("Settlement failed")
		if w.deps.Observer != nil {
			w.deps.Observer.SettlementFinished(rail, outcome, took)
		}
		w.notify(ctx, notifications.PurchaseFailed(reason))
		done.fire()
		return
	}

	next, _, _ := Transition(w.state, InputSettled, Conditions{Rail: rail})
	w.state = next
	w.record = &record
	w.settled = w.deps.now()
	owner := w.owner
	w.finish()
	w.mu.Unlock()

	w.log.Info().
		Str("rail", string(rail)).
		Str("token_id", record.TokenID).
		Str("status", string(record.Status)).
		Dur("took", took).
		Msg("Ticket committed")
	if w.deps.Observer != nil {
		w.deps.Observer.SettlementFinished(rail, OutcomeSuccess, took)
	}
	if rail == RailCrypto {
		w.notify(ctx, notifications.TicketMinted(record.TokenID))
	} else {
		w.notify(ctx, notifications.TicketReserved())
	}
	w.publish(ctx, owner, record, res.reference)
	done.fire()
}

func (w *Workflow) buildRecord(rail Rail, res settlement) ticket.Record {
	r := ticket.Record{
		TokenID:      res.tokenID,
		EventID:      w.event.ID,
		EventTitle:   w.event.Title,
		EventDate:    w.event.Date,
		EventTime:    w.event.Time,
		Location:     w.event.Location,
		Tier:         w.event.Tier,
		Price:        res.price,
		PurchaseDate: w.deps.now().UTC(),
	}
	if rail == RailCrypto {
		r.Status = ticket.StatusActive
		r.SettlementReference = res.reference
		r.PaymentMethod = ticket.PaymentCrypto
	} else {
		r.Status = ticket.StatusPendingMint
		r.PaymentMethod = ticket.PaymentCard
	}
	return r
}

// finish ends the live attempt. Caller holds mu.
func (w *Workflow) finish() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.attempt = ""
}

type signal struct {
	ch   chan struct{}
	once sync.Once
}

func newSignal() *signal { return &signal{ch: make(chan struct{})} }

func (s *signal) fire() { s.once.Do(func() { close(s.ch) }) }

// Retry returns a failed purchase to select.
func (w *Workflow) Retry() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, _, err := Transition(w.state, InputRetry, Conditions{Rail: w.rail})
	if err != nil {
		return err
	}
	w.state = next
	w.failure = ""
	w.settled = time.Time{}
	return nil
}

// settledAt reports when a purchase that is parked in success or failed
// reached that state.
func (w *Workflow) settledAt() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSuccess && w.state != StateFailed {
		return time.Time{}, false
	}
	return w.settled, !w.settled.IsZero()
}

// Close cancels the purchase from any live state. An in-flight settlement is
// abandoned and its result ignored.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, cmd, err := Transition(w.state, InputClose, Conditions{Rail: w.rail})
	if err != nil {
		return err
	}
	if cmd == CommandAbandon {
		w.log.Info().Str("attempt_id", w.attempt).Msg("Abandoning in-flight settlement")
	}
	w.finish()
	w.done.fire()
	w.state = next
	w.record = nil
	w.failure = ""
	w.started = time.Time{}
	w.settled = time.Time{}
	return nil
}

func (w *Workflow) notify(ctx context.Context, n notifications.Notification) {
	if w.deps.Notifier != nil {
		w.deps.Notifier.Notify(ctx, n)
	}
}

func (w *Workflow) publish(ctx context.Context, owner string, r ticket.Record, reference string) {
	if w.deps.Publisher == nil {
		return
	}
	ev := events.TicketPurchased{
		PurchaseID:    w.id,
		UserID:        owner,
		TokenID:       r.TokenID,
		EventID:       r.EventID,
		Tier:          r.Tier,
		Price:         r.Price,
		PaymentMethod: r.PaymentMethod,
		Reference:     reference,
		Status:        string(r.Status),
		PurchasedAt:   r.PurchaseDate,
	}
	if err := w.deps.Publisher.PublishTicketPurchased(ctx, ev); err != nil {
		w.log.Warn().Err(err).Str("token_id", r.TokenID).Msg("Failed to publish ticket event")
	}
}

func failureReason(rail Rail, err error) (string, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Transaction timed out", OutcomeTimeout
	case apperrors.HasCode(err, apperrors.ErrCodeConflict):
		return "Ticket could not be saved", OutcomeFailed
	case apperrors.HasCode(err, apperrors.ErrCodeCacheError):
		return "Ticket could not be saved", OutcomeFailed
	case rail == RailFiat:
		return "Payment failed", OutcomeFailed
	}
	return "Transaction failed", OutcomeFailed
}
