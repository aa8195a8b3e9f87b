package notifications

import "fmt"

func TicketMinted(tokenID string) Notification {
	return Notification{
		Title:       "NFT Ticket Purchased!",
		Description: fmt.Sprintf("Your ticket NFT #%s has been minted successfully.", tokenID),
	}
}

func TicketReserved() Notification {
	return Notification{
		Title:       "Ticket Reserved!",
		Description: "Your NFT ticket has been reserved and will be minted within 24 hours.",
	}
}

func PurchaseFailed(reason string) Notification {
	return Notification{
		Title:       "Purchase Failed",
		Description: fmt.Sprintf("%s. Please try again.", reason),
		Variant:     VariantDestructive,
	}
}

func TicketRedeemed(tokenID string) Notification {
	return Notification{
		Title:       "Ticket Redeemed",
		Description: fmt.Sprintf("Ticket #%s has been redeemed.", tokenID),
	}
}

func TicketMintCompleted(tokenID string) Notification {
	return Notification{
		Title:       "Ticket Minted",
		Description: fmt.Sprintf("Your reserved ticket #%s is now minted.", tokenID),
	}
}

func WalletConnectFailed() Notification {
	return Notification{
		Title:       "Connection Failed",
		Description: "Failed to connect wallet. Please try again.",
		Variant:     VariantDestructive,
	}
}

func WalletDisconnected() Notification {
	return Notification{
		Title:       "Wallet Disconnected",
		Description: "Your wallet has been disconnected successfully.",
	}
}

func WalletNotConnected() Notification {
	return Notification{
		Title:       "Wallet Not Connected",
		Description: "Please connect your wallet first.",
		Variant:     VariantDestructive,
	}
}

func NetworkSwitched(network string) Notification {
	return Notification{
		Title:       "Network Switched",
		Description: fmt.Sprintf("Successfully switched to %s.", network),
	}
}

func NetworkSwitchFailed(network string) Notification {
	return Notification{
		Title:       "Network Switch Failed",
		Description: fmt.Sprintf("Failed to switch to %s. Please try manually.", network),
		Variant:     VariantDestructive,
	}
}

func LoggedOut() Notification {
	return Notification{
		Title:       "Logged out",
		Description: "You have been logged out successfully.",
	}
}
