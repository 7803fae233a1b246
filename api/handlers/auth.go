package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparklabs/ideavault/api/vault"
)

// Nonce lifetime
const nonceLifetime = 5 * time.Minute

// ErrNonceInvalid covers unknown, expired, and already-used nonces. Each
// issued nonce authorizes exactly one signed request.
var ErrNonceInvalid = errors.New("nonce is invalid or expired")

// NonceStore issues and consumes one-time authentication nonces.
type NonceStore interface {
	Issue(ctx context.Context, nonce string, expiresAt time.Time) error
	// Consume removes the nonce. Returns ErrNonceInvalid when the nonce is
	// unknown or past its expiry.
	Consume(ctx context.Context, nonce string, now time.Time) error
}

// generateNonce generates a cryptographically secure nonce
func generateNonce() (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(nonceBytes), nil
}

// NonceResponse is the response for GET /api/auth/nonce
type NonceResponse struct {
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetNonce issues a fresh one-time nonce for a signed request.
func (h *Handlers) GetNonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := generateNonce()
	if err != nil {
		h.log.Error("failed to generate nonce", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to generate nonce")
		return
	}

	expiresAt := h.now().Add(nonceLifetime)
	if err := h.nonces.Issue(r.Context(), nonce, expiresAt); err != nil {
		h.log.Error("failed to store nonce", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to store nonce")
		return
	}

	writeJSON(w, http.StatusOK, NonceResponse{Nonce: nonce, ExpiresAt: expiresAt})
}

// SignedRequest is the authentication envelope every mutating request
// carries. Signature is the base64 ed25519 signature by Signer's key over the
// canonical message for the request (see buildAuthMessage).
type SignedRequest struct {
	Signer    string `json:"signer"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// authenticate verifies the envelope: the nonce must be live and unused, and
// the signature must verify against the signer's public key over message.
// Returns the signer's identity on success.
func (h *Handlers) authenticate(ctx context.Context, req SignedRequest, message string) (vault.Identity, error) {
	signer, err := vault.ParseIdentity(req.Signer)
	if err != nil {
		return "", fmt.Errorf("invalid signer: %w", err)
	}

	if err := h.nonces.Consume(ctx, req.Nonce, h.now()); err != nil {
		return "", err
	}

	valid, err := VerifyEd25519Signature(req.Signer, message, req.Signature)
	if err != nil {
		return "", fmt.Errorf("failed to verify signature: %w", err)
	}
	if !valid {
		return "", errors.New("signature verification failed")
	}
	return signer, nil
}

// MemNonces is an in-memory NonceStore for tests and local development.
type MemNonces struct {
	mu     sync.Mutex
	nonces map[string]time.Time
}

// NewMemNonces returns an empty store.
func NewMemNonces() *MemNonces {
	return &MemNonces{nonces: map[string]time.Time{}}
}

func (s *MemNonces) Issue(_ context.Context, nonce string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonce] = expiresAt
	return nil
}

func (s *MemNonces) Consume(_ context.Context, nonce string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.nonces[nonce]
	if !ok {
		return ErrNonceInvalid
	}
	delete(s.nonces, nonce)
	if now.After(expiresAt) {
		return ErrNonceInvalid
	}
	return nil
}

// PgNonces stores nonces in postgres so any API replica can consume a nonce
// issued by another.
type PgNonces struct {
	pool *pgxpool.Pool
}

// NewPgNonces wraps an existing connection pool.
func NewPgNonces(pool *pgxpool.Pool) *PgNonces {
	return &PgNonces{pool: pool}
}

func (s *PgNonces) Issue(ctx context.Context, nonce string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_nonces (nonce, expires_at) VALUES ($1, $2)
	`, nonce, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert nonce: %w", err)
	}
	return nil
}

func (s *PgNonces) Consume(ctx context.Context, nonce string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM auth_nonces WHERE nonce = $1 AND expires_at > $2
	`, nonce, now)
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNonceInvalid
	}
	return nil
}

// PurgeExpired removes nonces past their expiry. Called periodically from the
// API's background loop.
func (s *PgNonces) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auth_nonces WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge nonces: %w", err)
	}
	return tag.RowsAffected(), nil
}
