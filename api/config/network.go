package config

import (
	"fmt"
	"os"
)

// Network represents a deployment network environment.
type Network string

const (
	NetworkMainnet  Network = "mainnet-beta"
	NetworkDevnet   Network = "devnet"
	NetworkLocalnet Network = "localnet"
)

// ValidNetworks contains all recognized network values.
var ValidNetworks = map[Network]bool{
	NetworkMainnet:  true,
	NetworkDevnet:   true,
	NetworkLocalnet: true,
}

// USDC mint identities. Only these mints are accepted outside localnet.
const (
	// USDCDevnet is Circle's official devnet USDC mint.
	USDCDevnet = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	// USDCMainnet is Circle's official mainnet USDC mint.
	USDCMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// NetworkFromEnv reads VAULT_NETWORK, falling back to the given default.
func NetworkFromEnv(def Network) (Network, error) {
	v := os.Getenv("VAULT_NETWORK")
	if v == "" {
		return def, nil
	}
	n := Network(v)
	if !ValidNetworks[n] {
		return "", fmt.Errorf("unknown network %q (expected devnet, mainnet-beta or localnet)", v)
	}
	return n, nil
}

// MintAllowed reports whether the given mint is accepted on this network.
// Localnet accepts any mint so tests can run against mock mints.
func (n Network) MintAllowed(mint string) bool {
	switch n {
	case NetworkMainnet:
		return mint == USDCMainnet
	case NetworkDevnet:
		return mint == USDCDevnet
	case NetworkLocalnet:
		return true
	default:
		return false
	}
}
