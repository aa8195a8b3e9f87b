package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nfticket-backend/internal/common/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestService_ForgetsFinishedPurchasesAfterRetention(t *testing.T) {
	h := newHarness(t, time.Second)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	h.svc.deps.Now = clock.Now
	h.svc.deps.RetainFinished = 10 * time.Minute
	ctx := context.Background()

	done, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, done.Confirm(ctx))
	waitDone(t, done)
	require.Equal(t, StateSuccess, done.Snapshot().State)

	h.mint.err = errors.New("execution reverted")
	failed, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, failed.Confirm(ctx))
	waitDone(t, failed)
	require.Equal(t, StateFailed, failed.Snapshot().State)

	idle, err := h.svc.Open(ctx, 7, RailFiat)
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = h.svc.Get(done.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, h.svc.Len())

	clock.Advance(2 * time.Minute)
	_, err = h.svc.Get(done.ID())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	_, err = h.svc.Get(failed.ID())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	got, err := h.svc.Get(idle.ID())
	require.NoError(t, err)
	assert.Same(t, idle, got)
	assert.Equal(t, 1, h.svc.Len())
	assert.Equal(t, 1, h.ledger(t).Len())
}

func TestService_RetriedPurchaseIsNotForgotten(t *testing.T) {
	h := newHarness(t, time.Second)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	h.svc.deps.Now = clock.Now
	h.svc.deps.RetainFinished = time.Minute
	h.mint.err = errors.New("execution reverted")
	ctx := context.Background()

	w, err := h.svc.Open(ctx, 7, RailCrypto)
	require.NoError(t, err)
	require.NoError(t, w.Confirm(ctx))
	waitDone(t, w)
	require.NoError(t, w.Retry())

	clock.Advance(time.Hour)
	_, err = h.svc.Get(w.ID())
	assert.NoError(t, err)
}
