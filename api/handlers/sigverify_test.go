package handlers_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/handlers"
)

func TestVerifyEd25519Signature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	message := handlers.BuildAuthMessage("deposit", "abc123", "vault:xyz", "amount:5000")
	sig := ed25519.Sign(priv, []byte(message))

	tests := []struct {
		name      string
		publicKey string
		message   string
		signature string
		valid     bool
		wantErr   bool
	}{
		{
			name:      "valid standard base64",
			publicKey: base58.Encode(pub),
			message:   message,
			signature: base64.StdEncoding.EncodeToString(sig),
			valid:     true,
		},
		{
			name:      "valid raw base64",
			publicKey: base58.Encode(pub),
			message:   message,
			signature: base64.RawStdEncoding.EncodeToString(sig),
			valid:     true,
		},
		{
			name:      "tampered message",
			publicKey: base58.Encode(pub),
			message:   message + "x",
			signature: base64.StdEncoding.EncodeToString(sig),
			valid:     false,
		},
		{
			name:      "malformed public key",
			publicKey: "not-base58-0OIl",
			message:   message,
			signature: base64.StdEncoding.EncodeToString(sig),
			wantErr:   true,
		},
		{
			name:      "short public key",
			publicKey: base58.Encode(pub[:16]),
			message:   message,
			signature: base64.StdEncoding.EncodeToString(sig),
			wantErr:   true,
		},
		{
			name:      "malformed signature",
			publicKey: base58.Encode(pub),
			message:   message,
			signature: "%%%",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := handlers.VerifyEd25519Signature(tt.publicKey, tt.message, tt.signature)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestBuildAuthMessage(t *testing.T) {
	msg := handlers.BuildAuthMessage("withdraw", "n1", "vault:abc", "amount:2000")
	assert.Equal(t, "ideavault:withdraw\nnonce:n1\nvault:abc\namount:2000", msg)

	// Different bindings produce different messages.
	assert.NotEqual(t, msg, handlers.BuildAuthMessage("withdraw", "n1", "vault:abc", "amount:2001"))
	assert.NotEqual(t, msg, handlers.BuildAuthMessage("deposit", "n1", "vault:abc", "amount:2000"))
}
