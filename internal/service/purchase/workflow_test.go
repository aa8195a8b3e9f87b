package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfticket-backend/internal/catalog"
	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/events"
	"nfticket-backend/internal/kvstore"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/ledger"
	"nfticket-backend/internal/service/notifications"
)

const testCatalog = `
events:
  - id: 7
    title: Test Event
    date: Jan 1, 2025
    time: 7:00 PM
    location: Test Hall
    price: 0.1 SHM
    price_usd: $45
    tier: VIP
    tickets_left: 10
`

type fakeWallet struct {
	mu           sync.Mutex
	connected    bool
	onTarget     bool
	connectErr   error
	connectCalls int
	switchCalls  int
}

func (f *fakeWallet) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeWallet) IsOnTargetNetwork() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected && f.onTarget
}

func (f *fakeWallet) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeWallet) SwitchToTargetNetwork(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchCalls++
	f.onTarget = true
	return nil
}

// fakeMint returns immediately unless gate is set, in which case it waits
// for gate and ignores its context.
type fakeMint struct {
	gate    chan struct{}
	called  chan struct{}
	err     error
	tokenID string
}

func (f *fakeMint) Mint(ctx context.Context, eventID int64, tier string) (MintReceipt, error) {
	if f.called != nil {
		close(f.called)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return MintReceipt{}, f.err
	}
	id := f.tokenID
	if id == "" {
		id = "4821"
	}
	return MintReceipt{TokenID: id, TxReference: "0xfeed"}, nil
}

type fakeCard struct {
	amount   decimal.Decimal
	currency string
	err      error
}

func (f *fakeCard) Charge(_ context.Context, amount decimal.Decimal, currency string) (string, error) {
	f.amount, f.currency = amount, currency
	if f.err != nil {
		return "", f.err
	}
	return "res_1", nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	stale    chan struct{}
}

func (o *recordingObserver) SettlementStarted(Rail) {}

func (o *recordingObserver) SettlementFinished(_ Rail, outcome string, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func (o *recordingObserver) StaleCompletionDiscarded(Rail) {
	if o.stale != nil {
		close(o.stale)
	}
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.TicketPurchased
}

func (p *recordingPublisher) PublishTicketPurchased(_ context.Context, ev events.TicketPurchased) error {
	p.mu.Lock()
	p.got = append(p.got, ev)
	p.mu.Unlock()
	return nil
}

type harness struct {
	svc       *Service
	session   *identity.Session
	wallet    *fakeWallet
	mint      *fakeMint
	card      *fakeCard
	feed      *notifications.Feed
	observer  *recordingObserver
	publisher *recordingPublisher
}

func newHarness(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	h := &harness{
		wallet:    &fakeWallet{connected: true, onTarget: true},
		mint:      &fakeMint{},
		card:      &fakeCard{},
		feed:      notifications.NewFeed(20),
		observer:  &recordingObserver{},
		publisher: &recordingPublisher{},
	}
	h.session = identity.NewSession(kvstore.NewMemory(), nil, h.feed)
	require.NoError(t, h.session.SignIn(context.Background(), user.Identity{ID: "u1"}))

	h.svc = NewService(c, Deps{
		Wallet:            h.wallet,
		Identity:          h.session,
		Mint:              h.mint,
		Card:              h.card,
		Notifier:          h.feed,
		Publisher:         h.publisher,
		Observer:          h.observer,
		SettlementTimeout: timeout,
	})
	return h
}

func (h *harness) ledger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := h.session.Ledger()
	require.NoError(t, err)
	return l
}

func waitDone(t *testing.T, w *Workflow) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("settlement did not resolve")
	}
}

func TestPurchase_CryptoMintsActiveTicket(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)

	snap := w.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	assert.False(t, snap.IsProcessing)
	require.NotNil(t, snap.Ticket)

	records := h.ledger(t).All()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, int64(7), r.EventID)
	assert.Equal(t, ticket.StatusActive, r.Status)
	assert.Equal(t, "0.1 SHM", r.Price)
	assert.Equal(t, "0xfeed", r.SettlementReference)
	assert.Equal(t, ticket.PaymentCrypto, r.PaymentMethod)

	last, _ := h.feed.Last()
	assert.Equal(t, "NFT Ticket Purchased!", last.Title)
	assert.Contains(t, last.Description, "minted")

	require.Len(t, h.publisher.got, 1)
	assert.Equal(t, "u1", h.publisher.got[0].UserID)
	assert.Equal(t, []string{OutcomeSuccess}, h.observer.outcomes)
}

func TestPurchase_FiatReservesPendingTicket(t *testing.T) {
	h := newHarness(t, time.Second)
	h.wallet.connected = false
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailFiat)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)

	assert.Equal(t, StateSuccess, w.Snapshot().State)
	records := h.ledger(t).All()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, int64(7), r.EventID)
	assert.Equal(t, ticket.StatusPendingMint, r.Status)
	assert.Empty(t, r.SettlementReference)
	assert.Equal(t, "$45", r.Price)
	assert.Equal(t, ticket.PaymentCard, r.PaymentMethod)
	assert.True(t, h.card.amount.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, "USD", h.card.currency)
	assert.Zero(t, h.wallet.connectCalls)

	last, _ := h.feed.Last()
	assert.Equal(t, "Ticket Reserved!", last.Title)
	assert.Contains(t, last.Description, "reserved")
	assert.Contains(t, last.Description, "within 24 hours")
}

func TestPurchase_CryptoWithoutWalletConnectsAndStays(t *testing.T) {
	for _, connectErr := range []error{nil, errors.New("user rejected")} {
		h := newHarness(t, time.Second)
		h.wallet.connected = false
		h.wallet.connectErr = connectErr
		ctx := context.Background()

		w, err := h.svc.Open(ctx, 7, RailCrypto)
		require.NoError(t, err)
		err = w.Confirm(ctx)
		assert.Equal(t, connectErr, err)

		assert.Equal(t, 1, h.wallet.connectCalls)
		assert.Equal(t, StateSelect, w.Snapshot().State)
		assert.False(t, w.Snapshot().IsProcessing)
		assert.Equal(t, 0, h.ledger(t).Len())
	}
}

func TestPurchase_WrongNetworkSwitchesThenSettles(t *testing.T) {
	h := newHarness(t, time.Second)
	h.wallet.onTarget = false
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, "")
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	assert.Equal(t, 1, h.wallet.switchCalls)
	assert.Equal(t, StateSelect, w.Snapshot().State)

	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)
	assert.Equal(t, StateSuccess, w.Snapshot().State)
	assert.Equal(t, 1, h.ledger(t).Len())
}

func TestPurchase_AbandonedSettlementDoesNotTouchLedger(t *testing.T) {
	h := newHarness(t, time.Second)
	h.mint.gate = make(chan struct{})
	h.mint.called = make(chan struct{})
	h.observer.stale = make(chan struct{})
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	assert.True(t, w.Snapshot().IsProcessing)
	<-h.mint.called

	require.NoError(t, h.svc.Close(w.ID()))
	assert.Equal(t, StateCancelled, w.Snapshot().State)
	waitDone(t, w)
	close(h.mint.gate)

	select {
	case <-h.observer.stale:
	case <-time.After(2 * time.Second):
		t.Fatal("stale completion was not discarded")
	}
	assert.Equal(t, 0, h.ledger(t).Len())
	_, err = h.svc.Get(w.ID())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestPurchase_CompletionWithOldAttemptIsDiscarded(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()
	w, err := h.svc.Open(ctx, 7, RailFiat)
	require.NoError(t, err)

	w.complete(ctx, "attempt-that-never-ran", newSignal(), RailFiat, h.ledger(t), settlement{tokenID: "x", price: "$45"}, nil)

	assert.Equal(t, 0, h.ledger(t).Len())
	assert.Equal(t, StateSelect, w.Snapshot().State)
}

func TestPurchase_FailureThenRetry(t *testing.T) {
	h := newHarness(t, time.Second)
	h.mint.err = errors.New("execution reverted")
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)

	snap := w.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Transaction failed", snap.Error)
	assert.Equal(t, 0, h.ledger(t).Len())
	last, _ := h.feed.Last()
	assert.Equal(t, "Purchase Failed", last.Title)
	assert.Equal(t, notifications.VariantDestructive, last.Variant)

	assert.True(t, apperrors.HasCode(w.Confirm(ctx), apperrors.ErrCodeInvalidTransition))

	h.mint.err = nil
	require.NoError(t, w.Retry())
	assert.Equal(t, StateSelect, w.Snapshot().State)
	require.NoError(t, w.SelectRail(RailFiat))
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)
	assert.Equal(t, StateSuccess, w.Snapshot().State)
	assert.Equal(t, 1, h.ledger(t).Len())
}

func TestPurchase_TimeoutFails(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond)
	h.mint.gate = make(chan struct{})
	defer close(h.mint.gate)
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)

	snap := w.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "Transaction timed out", snap.Error)
	assert.Equal(t, 0, h.ledger(t).Len())
}

func TestPurchase_DuplicateTokenFailsWithoutOverwrite(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()

	first, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, first.Confirm(ctx))
	waitDone(t, first)

	second, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, second.Confirm(ctx))
	waitDone(t, second)

	assert.Equal(t, StateFailed, second.Snapshot().State)
	assert.Equal(t, 1, h.ledger(t).Len())
}

func TestService_OpenGuards(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()

	_, err := h.svc.Open(ctx, 99, RailCrypto)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	_, err = h.svc.Open(ctx, 7, Rail("paypal"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	require.NoError(t, h.session.SignOut(ctx))
	_, err = h.svc.Open(ctx, 7, RailCrypto)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
}

func TestWorkflow_SelectRailOnlyInSelect(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx := context.Background()
	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)

	require.NoError(t, w.SelectRail(RailFiat))
	assert.Equal(t, RailFiat, w.Snapshot().Rail)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)

	err = w.SelectRail(RailCrypto)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition))
	require.NoError(t, w.Close())
	assert.Equal(t, StateCancelled, w.Snapshot().State)
	assert.Nil(t, w.Snapshot().Ticket)
}
