package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/config"
)

func TestNetworkFromEnv(t *testing.T) {
	t.Setenv("VAULT_NETWORK", "")
	n, err := config.NetworkFromEnv(config.NetworkDevnet)
	require.NoError(t, err)
	assert.Equal(t, config.NetworkDevnet, n)

	t.Setenv("VAULT_NETWORK", "mainnet-beta")
	n, err = config.NetworkFromEnv(config.NetworkDevnet)
	require.NoError(t, err)
	assert.Equal(t, config.NetworkMainnet, n)

	t.Setenv("VAULT_NETWORK", "testnet")
	_, err = config.NetworkFromEnv(config.NetworkDevnet)
	assert.Error(t, err)
}

func TestMintAllowed(t *testing.T) {
	assert.True(t, config.NetworkMainnet.MintAllowed(config.USDCMainnet))
	assert.False(t, config.NetworkMainnet.MintAllowed(config.USDCDevnet))

	assert.True(t, config.NetworkDevnet.MintAllowed(config.USDCDevnet))
	assert.False(t, config.NetworkDevnet.MintAllowed(config.USDCMainnet))
	assert.False(t, config.NetworkDevnet.MintAllowed("SomeOtherMint1111111111111111111111111111111"))

	assert.True(t, config.NetworkLocalnet.MintAllowed("SomeOtherMint1111111111111111111111111111111"))
}
