package vault

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// DerivationBump tags derived addresses so they can never collide with a
// conventional public key preimage.
const DerivationBump uint8 = 255

// Derivation prefixes. Each derived address family gets its own prefix.
const (
	prefixVault        = "vault"
	prefixTokenAccount = "ata"
)

// Seed is the 32-byte derivation seed for a vault: sha256 of the campaign's
// idea id. Addressing works on the seed rather than the idea id itself so
// seed material stays at a fixed 32 bytes.
type Seed [32]byte

// DeriveSeed computes the canonical seed for an idea id.
func DeriveSeed(ideaID string) Seed {
	return sha256.Sum256([]byte(ideaID))
}

// ParseSeed decodes a hex-encoded 32-byte seed.
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("failed to decode vault seed: %w", err)
	}
	if len(raw) != len(seed) {
		return seed, fmt.Errorf("invalid vault seed size: expected %d, got %d", len(seed), len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// Hex returns the seed in its hex wire encoding.
func (s Seed) Hex() string {
	return hex.EncodeToString(s[:])
}

// Matches reports whether the seed is the canonical derivation of ideaID.
func (s Seed) Matches(ideaID string) bool {
	derived := DeriveSeed(ideaID)
	return bytes.Equal(s[:], derived[:])
}

// VaultAddress derives the vault record address for a seed. The derivation is
// collision-free per seed, so creating a vault at an occupied address means
// the idea id is already taken.
func VaultAddress(seed Seed) Identity {
	return deriveAddress(prefixVault, seed[:], []byte{DerivationBump})
}

// TokenAccountAddress derives the token account held by owner for mint.
// The vault's custody account is the token account owned by the vault address.
func TokenAccountAddress(owner, mint Identity) Identity {
	return deriveAddress(prefixTokenAccount, []byte(owner), []byte(mint))
}

func deriveAddress(parts ...any) Identity {
	h := sha256.New()
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			h.Write([]byte(v))
		case []byte:
			h.Write(v)
		}
	}
	return Identity(base58.Encode(h.Sum(nil)))
}

// AuthorityProof is the derivation path of a vault authority. Presenting it
// lets the vault authorize transfers out of its custody account without a
// private key ever existing: the gateway re-derives the address and checks it
// against the account owner.
type AuthorityProof struct {
	Seed Seed  `json:"seed"`
	Bump uint8 `json:"bump"`
}

// Address returns the authority address this proof derives.
func (p AuthorityProof) Address() Identity {
	return deriveAddress(prefixVault, p.Seed[:], []byte{p.Bump})
}

// Authorizes reports whether the proof derives the given account owner.
func (p AuthorityProof) Authorizes(owner Identity) bool {
	return p.Address() == owner
}
