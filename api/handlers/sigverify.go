package handlers

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// VerifyEd25519Signature verifies an Ed25519 signature over message, with the
// public key in base58 and the signature in base64 (any common variant).
func VerifyEd25519Signature(publicKeyBase58, message, signatureBase64 string) (bool, error) {
	publicKeyBytes, err := base58.Decode(publicKeyBase58)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(publicKeyBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key size: expected %d, got %d", ed25519.PublicKeySize, len(publicKeyBytes))
	}

	signatureBytes, err := base64.StdEncoding.DecodeString(signatureBase64)
	if err != nil {
		// Try URL-safe base64
		signatureBytes, err = base64.URLEncoding.DecodeString(signatureBase64)
		if err != nil {
			// Try raw base64 (without padding)
			signatureBytes, err = base64.RawStdEncoding.DecodeString(signatureBase64)
			if err != nil {
				return false, fmt.Errorf("failed to decode signature: %w", err)
			}
		}
	}
	if len(signatureBytes) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature size: expected %d, got %d", ed25519.SignatureSize, len(signatureBytes))
	}

	return ed25519.Verify(ed25519.PublicKey(publicKeyBytes), []byte(message), signatureBytes), nil
}

// BuildAuthMessage builds the canonical message a client signs for an action.
// The action name and nonce are always present; each action appends its own
// binding fields so a signature cannot be replayed against different
// parameters.
func BuildAuthMessage(action, nonce string, fields ...string) string {
	var b strings.Builder
	b.WriteString("ideavault:")
	b.WriteString(action)
	b.WriteString("\nnonce:")
	b.WriteString(nonce)
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(f)
	}
	return b.String()
}
