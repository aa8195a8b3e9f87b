package wallet

import "context"

// Account is what the provider reports for the connected wallet.
type Account struct {
	Address   string
	NetworkID int64
}

// Provider is the external wallet capability (browser extension, WalletConnect, ...).
type Provider interface {
	Connect(ctx context.Context) (address string, err error)
	Disconnect(ctx context.Context) error
	SwitchNetwork(ctx context.Context, networkID int64) error
	// CurrentAccount returns ok=false when nothing is connected.
	CurrentAccount() (Account, bool)
}

// Network is the chain crypto purchases must happen on.
type Network struct {
	ID   int64
	Name string
}
