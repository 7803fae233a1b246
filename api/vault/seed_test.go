package vault_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/vault"
)

func ident(t *testing.T, b byte) vault.Identity {
	t.Helper()
	id, err := vault.IdentityFromBytes(bytes.Repeat([]byte{b}, vault.IdentitySize))
	require.NoError(t, err)
	return id
}

func TestDeriveSeed_Deterministic(t *testing.T) {
	a := vault.DeriveSeed("my-campaign")
	b := vault.DeriveSeed("my-campaign")
	c := vault.DeriveSeed("other-campaign")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, a.Matches("my-campaign"))
	assert.False(t, a.Matches("other-campaign"))
}

func TestParseSeed(t *testing.T) {
	seed := vault.DeriveSeed("my-campaign")

	parsed, err := vault.ParseSeed(seed.Hex())
	require.NoError(t, err)
	assert.Equal(t, seed, parsed)

	_, err = vault.ParseSeed("not-hex")
	assert.Error(t, err)

	_, err = vault.ParseSeed("abcd")
	assert.Error(t, err, "short seeds are rejected")
}

func TestVaultAddress_Deterministic(t *testing.T) {
	seed := vault.DeriveSeed("my-campaign")

	addr1 := vault.VaultAddress(seed)
	addr2 := vault.VaultAddress(seed)
	assert.Equal(t, addr1, addr2)

	other := vault.VaultAddress(vault.DeriveSeed("other-campaign"))
	assert.NotEqual(t, addr1, other)

	// Derived addresses are valid identities.
	_, err := vault.ParseIdentity(addr1.String())
	assert.NoError(t, err)
}

func TestTokenAccountAddress(t *testing.T) {
	owner := ident(t, 1)
	mint := ident(t, 2)

	acc := vault.TokenAccountAddress(owner, mint)
	assert.Equal(t, acc, vault.TokenAccountAddress(owner, mint))
	assert.NotEqual(t, acc, vault.TokenAccountAddress(mint, owner), "owner and mint are not interchangeable")
	assert.NotEqual(t, acc, vault.TokenAccountAddress(ident(t, 3), mint))
}

func TestAuthorityProof(t *testing.T) {
	seed := vault.DeriveSeed("my-campaign")
	vaultAddr := vault.VaultAddress(seed)

	proof := vault.AuthorityProof{Seed: seed, Bump: vault.DerivationBump}
	assert.Equal(t, vaultAddr, proof.Address())
	assert.True(t, proof.Authorizes(vaultAddr))
	assert.False(t, proof.Authorizes(ident(t, 1)))

	// A different bump derives a different authority.
	wrongBump := vault.AuthorityProof{Seed: seed, Bump: 1}
	assert.False(t, wrongBump.Authorizes(vaultAddr))
}

func TestParseIdentity(t *testing.T) {
	id := ident(t, 7)

	parsed, err := vault.ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = vault.ParseIdentity("")
	assert.Error(t, err)

	_, err = vault.ParseIdentity("0OIl") // invalid base58 alphabet
	assert.Error(t, err)

	_, err = vault.ParseIdentity("abc") // too short
	assert.Error(t, err)
}

func TestIdentityIsZero(t *testing.T) {
	zero, err := vault.IdentityFromBytes(make([]byte, vault.IdentitySize))
	require.NoError(t, err)

	assert.True(t, vault.Identity("").IsZero())
	assert.True(t, zero.IsZero())
	assert.False(t, ident(t, 1).IsZero())
}
