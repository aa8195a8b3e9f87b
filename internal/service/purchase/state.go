// Package purchase drives a single ticket purchase from rail selection to a
// committed ledger record.
package purchase

import (
	apperrors "nfticket-backend/internal/common/errors"
)

type State string

const (
	StateSelect     State = "select"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

type Rail string

const (
	RailCrypto Rail = "crypto"
	RailFiat   Rail = "fiat"
)

func (r Rail) Valid() bool { return r == RailCrypto || r == RailFiat }

type Input string

const (
	InputConfirm          Input = "confirm"
	InputSettled          Input = "settled"
	InputSettlementFailed Input = "settlement_failed"
	InputRetry            Input = "retry"
	InputClose            Input = "close"
)

// Command is the side effect the caller must perform after a transition.
type Command string

const (
	CommandNone          Command = "none"
	CommandConnect       Command = "connect"
	CommandSwitchNetwork Command = "switch_network"
	CommandSettle        Command = "settle"
	CommandCommit        Command = "commit"
	CommandAbandon       Command = "abandon"
)

// Conditions are the facts a confirm depends on. Wallet fields are ignored
// on the fiat rail.
type Conditions struct {
	Rail            Rail
	WalletConnected bool
	OnTargetNetwork bool
}

// Transition is the whole purchase state machine. It has no side effects.
func Transition(from State, in Input, c Conditions) (State, Command, error) {
	switch from {
	case StateSelect:
		switch in {
		case InputConfirm:
			if c.Rail == RailCrypto {
				if !c.WalletConnected {
					return StateSelect, CommandConnect, nil
				}
				if !c.OnTargetNetwork {
					return StateSelect, CommandSwitchNetwork, nil
				}
			}
			return StateProcessing, CommandSettle, nil
		case InputClose:
			return StateCancelled, CommandNone, nil
		}
	case StateProcessing:
		switch in {
		case InputSettled:
			return StateSuccess, CommandCommit, nil
		case InputSettlementFailed:
			return StateFailed, CommandNone, nil
		case InputClose:
			return StateCancelled, CommandAbandon, nil
		}
	case StateSuccess:
		if in == InputClose {
			return StateCancelled, CommandNone, nil
		}
	case StateFailed:
		switch in {
		case InputRetry:
			return StateSelect, CommandNone, nil
		case InputClose:
			return StateCancelled, CommandNone, nil
		}
	}
	return from, CommandNone, apperrors.NewInvalidTransitionError(string(from), string(in))
}
