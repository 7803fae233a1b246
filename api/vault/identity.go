package vault

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentitySize is the raw byte length of an identity key.
const IdentitySize = 32

// Identity is a base58-encoded 32-byte public identity, used for signers,
// mints and token accounts alike.
type Identity string

// ParseIdentity validates a base58 string as a 32-byte identity.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return "", fmt.Errorf("identity is empty")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode identity: %w", err)
	}
	if len(raw) != IdentitySize {
		return "", fmt.Errorf("invalid identity size: expected %d, got %d", IdentitySize, len(raw))
	}
	return Identity(s), nil
}

// IdentityFromBytes encodes raw key bytes as an identity.
func IdentityFromBytes(raw []byte) (Identity, error) {
	if len(raw) != IdentitySize {
		return "", fmt.Errorf("invalid identity size: expected %d, got %d", IdentitySize, len(raw))
	}
	return Identity(base58.Encode(raw)), nil
}

func (i Identity) String() string {
	return string(i)
}

// Bytes returns the decoded key bytes, or nil if the identity is malformed.
func (i Identity) Bytes() []byte {
	raw, err := base58.Decode(string(i))
	if err != nil || len(raw) != IdentitySize {
		return nil
	}
	return raw
}

// IsZero reports whether the identity is unset or the all-zero key.
func (i Identity) IsZero() bool {
	if i == "" {
		return true
	}
	raw := i.Bytes()
	if raw == nil {
		return false
	}
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}
