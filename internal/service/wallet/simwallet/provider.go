// Package simwallet is an in-process stand-in for a browser wallet.
package simwallet

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nfticket-backend/internal/service/wallet"
	"nfticket-backend/internal/utils/random"
)

var (
	ErrUserRejected = errors.New("user rejected the request")
	ErrNotConnected = errors.New("no account connected")
)

type Options struct {
	// Address to hand out on connect; random when empty.
	Address string
	// Chain the wallet sits on right after connecting.
	InitialNetworkID int64
	RejectConnect    bool
	RejectSwitch     bool
}

// Provider implements wallet.Provider entirely in memory.
type Provider struct {
	mu        sync.Mutex
	opts      Options
	address   string
	networkID int64
	connected bool
}

func New(opts Options) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Connect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.opts.RejectConnect {
		return "", ErrUserRejected
	}
	if p.connected {
		return p.address, nil
	}
	addr := p.opts.Address
	if addr == "" {
		b, err := random.Bytes(common.AddressLength)
		if err != nil {
			return "", err
		}
		addr = common.BytesToAddress(b).Hex()
	}
	p.address = addr
	p.networkID = p.opts.InitialNetworkID
	p.connected = true
	return addr, nil
}

func (p *Provider) Disconnect(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	p.address = ""
	p.networkID = 0
	return nil
}

func (p *Provider) SwitchNetwork(ctx context.Context, networkID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}
	if p.opts.RejectSwitch {
		return ErrUserRejected
	}
	p.networkID = networkID
	return nil
}

func (p *Provider) CurrentAccount() (wallet.Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return wallet.Account{}, false
	}
	return wallet.Account{Address: p.address, NetworkID: p.networkID}, true
}

// SetRejectConnect toggles whether the next connect requests are rejected.
func (p *Provider) SetRejectConnect(v bool) {
	p.mu.Lock()
	p.opts.RejectConnect = v
	p.mu.Unlock()
}

// SetRejectSwitch toggles whether network switches are rejected.
func (p *Provider) SetRejectSwitch(v bool) {
	p.mu.Lock()
	p.opts.RejectSwitch = v
	p.mu.Unlock()
}
