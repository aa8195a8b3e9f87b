// Package wallet exposes a read-through view of the external wallet plus the
// connect and network-switch requests purchases depend on.
package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
	"nfticket-backend/internal/service/notifications"
)

// State is the wallet as seen by the purchase flow. NetworkID is nil while
// disconnected.
type State struct {
	Address           string `json:"address,omitempty"`
	ShortAddress      string `json:"shortAddress,omitempty"`
	NetworkID         *int64 `json:"networkId,omitempty"`
	IsConnected       bool   `json:"isConnected"`
	IsOnTargetNetwork bool   `json:"isOnTargetNetwork"`
}

// Observer receives wallet outcomes, e.g. for metrics.
type Observer interface {
	WalletConnect(ok bool)
	WalletNetworkSwitch(ok bool)
}

// Session does not cache provider state; every query reads the provider.
// mu serializes connect/switch/disconnect requests.
type Session struct {
	mu       sync.Mutex
	provider Provider
	target   Network
	notifier notifications.Notifier
	observer Observer
	log      zerolog.Logger
}

func NewSession(provider Provider, target Network, notifier notifications.Notifier) *Session {
	return &Session{
		provider: provider,
		target:   target,
		notifier: notifier,
		log:      logger.Component("wallet"),
	}
}

// WithObserver attaches an outcome observer.
func (s *Session) WithObserver(o Observer) *Session {
	s.observer = o
	return s
}

func (s *Session) Target() Network { return s.target }

func (s *Session) State() State {
	acc, ok := s.provider.CurrentAccount()
	if !ok || acc.Address == "" {
		return State{}
	}
	network := acc.NetworkID
	return State{
		Address:           acc.Address,
		ShortAddress:      FormatAddress(acc.Address),
		NetworkID:         &network,
		IsConnected:       true,
		IsOnTargetNetwork: network == s.target.ID,
	}
}

func (s *Session) IsConnected() bool { return s.State().IsConnected }

// IsOnTargetNetwork is false whenever the wallet is not connected.
func (s *Session) IsOnTargetNetwork() bool { return s.State().IsOnTargetNetwork }

// Connect asks the provider for an account. Rejections and provider errors
// come back as WALLET_CONNECTION_FAILED and are also shown to the user.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, err := s.provider.Connect(ctx)
	if err == nil && !common.IsHexAddress(addr) {
		_ = s.provider.Disconnect(ctx)
		err = apperrors.NewValidationError("address", "provider returned a malformed address")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to connect wallet")
		s.observe(func(o Observer) { o.WalletConnect(false) })
		s.notify(ctx, notifications.WalletConnectFailed())
		return apperrors.Wrap(err, apperrors.ErrCodeWalletConnection, "failed to connect wallet")
	}
	s.log.Info().Str("address", FormatAddress(common.HexToAddress(addr).Hex())).Msg("Wallet connected")
	s.observe(func(o Observer) { o.WalletConnect(true) })
	return nil
}

func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.provider.Disconnect(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "failed to disconnect wallet")
	}
	s.notify(ctx, notifications.WalletDisconnected())
	return nil
}

// SwitchToTargetNetwork requires a connected wallet. A rejected switch leaves
// the provider's network untouched.
func (s *Session) SwitchToTargetNetwork(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.IsConnected() {
		s.notify(ctx, notifications.WalletNotConnected())
		return apperrors.New(apperrors.ErrCodeWalletNotConnected, "wallet not connected")
	}
	if s.IsOnTargetNetwork() {
		return nil
	}
	if err := s.provider.SwitchNetwork(ctx, s.target.ID); err != nil {
		s.log.Error().Err(err).Int64("chain_id", s.target.ID).Msg("Failed to switch network")
		s.observe(func(o Observer) { o.WalletNetworkSwitch(false) })
		s.notify(ctx, notifications.NetworkSwitchFailed(s.target.Name))
		return apperrors.Wrap(err, apperrors.ErrCodeWalletNetworkSwitch, "failed to switch network").
			WithDetail("chain_id", s.target.ID)
	}
	s.observe(func(o Observer) { o.WalletNetworkSwitch(true) })
	s.notify(ctx, notifications.NetworkSwitched(s.target.Name))
	return nil
}

func (s *Session) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func (s *Session) observe(f func(Observer)) {
	if s.observer != nil {
		f(s.observer)
	}
}
