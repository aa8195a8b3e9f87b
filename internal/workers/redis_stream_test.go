package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfticket-backend/internal/domain/ticket"
	"nfticket-backend/internal/domain/user"
	"nfticket-backend/internal/kvstore"
	"nfticket-backend/internal/platform/redis"
	"nfticket-backend/internal/service/identity"
	"nfticket-backend/internal/service/ledger"
	"nfticket-backend/internal/service/notifications"
)

type countingObserver map[string]int

func (c countingObserver) TicketEvent(eventType string, ok bool) {
	if ok {
		c[eventType+":ok"]++
	} else {
		c[eventType+":error"]++
	}
}

func setup(t *testing.T) (*TicketEventWorker, *identity.Session, *kvstore.Memory, *notifications.Feed, countingObserver) {
	t.Helper()
	ctx := context.Background()
	store := kvstore.NewMemory()
	feed := notifications.NewFeed(10)
	session := identity.NewSession(store, nil, feed)
	require.NoError(t, session.SignIn(ctx, user.Identity{ID: "u1"}))

	l, err := session.Ledger()
	require.NoError(t, err)
	for _, r := range []ticket.Record{
		{TokenID: "100", EventID: 1, Status: ticket.StatusActive, PurchaseDate: time.Now().UTC()},
		{TokenID: "101", EventID: 2, Status: ticket.StatusPendingMint, PurchaseDate: time.Now().UTC()},
	} {
		require.NoError(t, l.Add(ctx, r))
	}

	db, _ := redismock.NewClientMock()
	obs := countingObserver{}
	w := NewTicketEventWorker(redis.Wrap(db), "nfticket:ticket-events", session, feed).WithObserver(obs)
	return w, session, store, feed, obs
}

func TestProcessMessage_Redeem(t *testing.T) {
	w, session, _, feed, obs := setup(t)
	ctx := context.Background()

	w.processMessage(ctx, map[string]interface{}{"type": EventTicketRedeemed, "token_id": "100"})

	l, _ := session.Ledger()
	assert.Empty(t, tokenIDs(l.ListActive(), "100"))
	assert.Len(t, l.ListRedeemed(), 1)
	last, _ := feed.Last()
	assert.Equal(t, "Ticket Redeemed", last.Title)
	assert.Equal(t, 1, obs[EventTicketRedeemed+":ok"])

	w.processMessage(ctx, map[string]interface{}{"type": EventTicketRedeemed, "token_id": "100", "user_id": "u1"})
	assert.Len(t, l.ListRedeemed(), 1)
	assert.Equal(t, 2, obs[EventTicketRedeemed+":ok"])
}

func TestProcessMessage_MintPromotesOnlyPending(t *testing.T) {
	w, session, _, _, _ := setup(t)
	ctx := context.Background()
	l, _ := session.Ledger()

	w.processMessage(ctx, map[string]interface{}{"type": EventTicketMinted, "token_id": "101"})
	r, _ := l.Get("101")
	assert.Equal(t, ticket.StatusActive, r.Status)

	require.NoError(t, l.SetStatus(ctx, "100", ticket.StatusRedeemed))
	w.processMessage(ctx, map[string]interface{}{"type": EventTicketMinted, "token_id": "100"})
	r, _ = l.Get("100")
	assert.Equal(t, ticket.StatusRedeemed, r.Status)
}

func TestProcessMessage_UnknownTokenLeavesLedgerUnchanged(t *testing.T) {
	w, session, _, _, obs := setup(t)
	l, _ := session.Ledger()
	before := l.All()

	w.processMessage(context.Background(), map[string]interface{}{"type": EventTicketRedeemed, "token_id": "999"})
	assert.Equal(t, before, l.All())
	assert.Equal(t, 1, obs[EventTicketRedeemed+":error"])

	w.processMessage(context.Background(), map[string]interface{}{"type": "bot_removed", "token_id": "100"})
	w.processMessage(context.Background(), map[string]interface{}{"type": EventTicketRedeemed})
	assert.Equal(t, before, l.All())
}

func TestProcessMessage_OtherIdentityLedger(t *testing.T) {
	w, _, store, _, _ := setup(t)
	ctx := context.Background()

	other, err := ledger.Load(ctx, store, ledger.Key("u2"))
	require.NoError(t, err)
	require.NoError(t, other.Add(ctx, ticket.Record{TokenID: "7", EventID: 1, Status: ticket.StatusActive}))

	w.processMessage(ctx, map[string]interface{}{"type": EventTicketRedeemed, "token_id": "7", "user_id": "u2"})

	reloaded, err := ledger.Load(ctx, store, ledger.Key("u2"))
	require.NoError(t, err)
	r, _ := reloaded.Get("7")
	assert.Equal(t, ticket.StatusRedeemed, r.Status)
}

func TestEnsureGroup(t *testing.T) {
	db, mock := redismock.NewClientMock()
	w := NewTicketEventWorker(redis.Wrap(db), "nfticket:ticket-events", nil, nil)
	ctx := context.Background()

	mock.ExpectXGroupCreateMkStream("nfticket:ticket-events", consumerGroup, "$").
		SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
	assert.NoError(t, w.ensureGroup(ctx))

	mock.ExpectXGroupCreateMkStream("nfticket:ticket-events", consumerGroup, "$").
		SetErr(errors.New("connection refused"))
	assert.Error(t, w.ensureGroup(ctx))

	require.NoError(t, mock.ExpectationsWereMet())
}

func tokenIDs(records []ticket.Record, want string) []string {
	var out []string
	for _, r := range records {
		if r.TokenID == want {
			out = append(out, r.TokenID)
		}
	}
	return out
}

func TestProcessMessage_SignedOutUserKeepsLaterPurchases(t *testing.T) {
	w, session, store, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, session.SignIn(ctx, user.Identity{ID: "u2"}))
	l2, _ := session.Ledger()
	require.NoError(t, l2.Add(ctx, ticket.Record{TokenID: "7", EventID: 1, Status: ticket.StatusActive}))
	require.NoError(t, session.SignIn(ctx, user.Identity{ID: "u1"}))

	w.processMessage(ctx, map[string]interface{}{"type": EventTicketRedeemed, "token_id": "7", "user_id": "u2"})

	require.NoError(t, session.SignIn(ctx, user.Identity{ID: "u2"}))
	l2, _ = session.Ledger()
	require.NoError(t, l2.Add(ctx, ticket.Record{TokenID: "8", EventID: 2, Status: ticket.StatusActive}))
	w.processMessage(ctx, map[string]interface{}{"type": EventTicketRedeemed, "token_id": "8", "user_id": "u2"})

	reloaded, err := ledger.Load(ctx, store, ledger.Key("u2"))
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.Len(t, reloaded.ListRedeemed(), 2)
}
