package gateway_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/gateway"
	"github.com/sparklabs/ideavault/api/vault"
)

func ident(t *testing.T, b byte) vault.Identity {
	t.Helper()
	id, err := vault.IdentityFromBytes(bytes.Repeat([]byte{b}, vault.IdentitySize))
	require.NoError(t, err)
	return id
}

func TestMemory_EnsureAccountIdempotent(t *testing.T) {
	gw := gateway.NewMemory()
	ctx := context.Background()
	mint, owner := ident(t, 1), ident(t, 2)

	first, err := gw.EnsureAccount(ctx, mint, owner)
	require.NoError(t, err)
	assert.Equal(t, vault.TokenAccountAddress(owner, mint), first)

	second, err := gw.EnsureAccount(ctx, mint, owner)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	balance, err := gw.Balance(ctx, mint, first)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestMemory_TransferRequiresAuthorization(t *testing.T) {
	gw := gateway.NewMemory()
	ctx := context.Background()
	mint, alice, bob := ident(t, 1), ident(t, 2), ident(t, 3)

	aliceAcc, err := gw.Mint(ctx, mint, alice, 1000)
	require.NoError(t, err)
	bobAcc, err := gw.EnsureAccount(ctx, mint, bob)
	require.NoError(t, err)

	// Bob cannot move Alice's funds.
	err = gw.Transfer(ctx, mint, aliceAcc, bobAcc, 500, vault.OwnerAuth(bob))
	assert.Error(t, err)

	err = gw.Transfer(ctx, mint, aliceAcc, bobAcc, 500, vault.OwnerAuth(alice))
	require.NoError(t, err)

	balance, err := gw.Balance(ctx, mint, bobAcc)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)

	// Overdrafts are rejected.
	err = gw.Transfer(ctx, mint, aliceAcc, bobAcc, 501, vault.OwnerAuth(alice))
	assert.Error(t, err)
}

func TestMemory_DerivedAuthority(t *testing.T) {
	gw := gateway.NewMemory()
	ctx := context.Background()
	mint, user := ident(t, 1), ident(t, 2)

	seed := vault.DeriveSeed("my-campaign")
	vaultAddr := vault.VaultAddress(seed)

	custody, err := gw.Mint(ctx, mint, vaultAddr, 1000)
	require.NoError(t, err)
	userAcc, err := gw.EnsureAccount(ctx, mint, user)
	require.NoError(t, err)

	// A proof for a different seed does not authorize the custody account.
	wrong := vault.DerivedAuth(vault.DeriveSeed("other"), vault.DerivationBump)
	err = gw.Transfer(ctx, mint, custody, userAcc, 400, wrong)
	assert.Error(t, err)

	err = gw.Transfer(ctx, mint, custody, userAcc, 400, vault.DerivedAuth(seed, vault.DerivationBump))
	require.NoError(t, err)

	balance, err := gw.Balance(ctx, mint, userAcc)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), balance)
}

func TestMemory_MintMismatch(t *testing.T) {
	gw := gateway.NewMemory()
	ctx := context.Background()
	mintA, mintB, owner := ident(t, 1), ident(t, 2), ident(t, 3)

	acc, err := gw.Mint(ctx, mintA, owner, 1000)
	require.NoError(t, err)

	_, err = gw.Balance(ctx, mintB, acc)
	assert.Error(t, err)
}
