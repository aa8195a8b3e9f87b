package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/service/notifications"
	"nfticket-backend/internal/service/wallet"
	"nfticket-backend/internal/service/wallet/simwallet"
)

var shardeum = wallet.Network{ID: 8080, Name: "Shardeum Unstablenet"}

const testAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

type countingObserver struct {
	connects, connectFailures int
	switches, switchFailures  int
}

func (o *countingObserver) WalletConnect(ok bool) {
	if ok {
		o.connects++
	} else {
		o.connectFailures++
	}
}

func (o *countingObserver) WalletNetworkSwitch(ok bool) {
	if ok {
		o.switches++
	} else {
		o.switchFailures++
	}
}

func newSession(opts simwallet.Options) (*wallet.Session, *simwallet.Provider, *notifications.Feed, *countingObserver) {
	p := simwallet.New(opts)
	feed := notifications.NewFeed(10)
	obs := &countingObserver{}
	return wallet.NewSession(p, shardeum, feed).WithObserver(obs), p, feed, obs
}

func assertTargetImpliesConnected(t *testing.T, s *wallet.Session) {
	t.Helper()
	st := s.State()
	if !st.IsConnected {
		assert.False(t, st.IsOnTargetNetwork)
		assert.Nil(t, st.NetworkID)
	}
	assert.Equal(t, st.IsConnected, s.IsConnected())
	assert.Equal(t, st.IsOnTargetNetwork, s.IsOnTargetNetwork())
}

func TestSession_ConnectThenSwitch(t *testing.T) {
	s, _, feed, obs := newSession(simwallet.Options{Address: testAddress, InitialNetworkID: 1})
	ctx := context.Background()

	assert.False(t, s.IsConnected())
	assertTargetImpliesConnected(t, s)

	require.NoError(t, s.Connect(ctx))
	st := s.State()
	assert.True(t, st.IsConnected)
	assert.False(t, st.IsOnTargetNetwork)
	assert.Equal(t, testAddress, st.Address)
	assert.Equal(t, "0x5290...9EE7", st.ShortAddress)
	require.NotNil(t, st.NetworkID)
	assert.Equal(t, int64(1), *st.NetworkID)

	require.NoError(t, s.SwitchToTargetNetwork(ctx))
	assert.True(t, s.IsOnTargetNetwork())
	last, _ := feed.Last()
	assert.Equal(t, "Network Switched", last.Title)

	require.NoError(t, s.Disconnect(ctx))
	assertTargetImpliesConnected(t, s)
	assert.False(t, s.IsOnTargetNetwork())

	assert.Equal(t, 1, obs.connects)
	assert.Equal(t, 1, obs.switches)
}

func TestSession_ConnectRejected(t *testing.T) {
	s, _, feed, obs := newSession(simwallet.Options{RejectConnect: true})

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletConnection))
	assert.ErrorIs(t, err, simwallet.ErrUserRejected)
	assert.False(t, s.IsConnected())
	assertTargetImpliesConnected(t, s)

	last, ok := feed.Last()
	require.True(t, ok)
	assert.Equal(t, "Connection Failed", last.Title)
	assert.Equal(t, notifications.VariantDestructive, last.Variant)
	assert.Equal(t, 1, obs.connectFailures)
}

type badAddressProvider struct{ *simwallet.Provider }

func (badAddressProvider) Connect(context.Context) (string, error) { return "not-an-address", nil }

func TestSession_ConnectRejectsMalformedAddress(t *testing.T) {
	p := badAddressProvider{simwallet.New(simwallet.Options{})}
	s := wallet.NewSession(p, shardeum, nil)

	err := s.Connect(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletConnection))
	assert.False(t, s.IsConnected())
}

func TestSession_SwitchRequiresConnection(t *testing.T) {
	s, _, feed, _ := newSession(simwallet.Options{})

	err := s.SwitchToTargetNetwork(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletNotConnected))
	assertTargetImpliesConnected(t, s)
	last, _ := feed.Last()
	assert.Equal(t, "Wallet Not Connected", last.Title)
}

func TestSession_SwitchRejectedLeavesStateUnchanged(t *testing.T) {
	s, p, feed, obs := newSession(simwallet.Options{InitialNetworkID: 137})
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	before := s.State()

	p.SetRejectSwitch(true)
	err := s.SwitchToTargetNetwork(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeWalletNetworkSwitch))
	assert.Equal(t, before, s.State())
	assert.False(t, s.IsOnTargetNetwork())

	last, _ := feed.Last()
	assert.Equal(t, "Network Switch Failed", last.Title)
	assert.Equal(t, 1, obs.switchFailures)

	p.SetRejectSwitch(false)
	require.NoError(t, s.SwitchToTargetNetwork(ctx))
	assert.True(t, s.IsOnTargetNetwork())
}

func TestSession_RandomAddressIsValidChecksummed(t *testing.T) {
	s, _, _, _ := newSession(simwallet.Options{InitialNetworkID: 8080})
	require.NoError(t, s.Connect(context.Background()))
	st := s.State()
	assert.Len(t, st.Address, 42)
	assert.True(t, st.IsOnTargetNetwork)
}

func TestFormatAddress(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"0x52908400098527886E0F7030069857D2E4169EE7", "0x5290...9EE7"},
		{"0x12345678", "0x1234...5678"},
		{"0xab", "0xab...0xab"},
		{"0x123456789AB", "0x1234...89AB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wallet.FormatAddress(tt.in), tt.in)
	}
}
