package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/sparklabs/ideavault/api/vault"
)

// ErrorResponse is the JSON body for every error status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeEngineError maps engine sentinel errors to HTTP statuses. Anything
// unmapped is an internal error and gets logged with its cause.
func writeEngineError(w http.ResponseWriter, log *slog.Logger, err error) {
	for _, m := range engineErrorMap {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	log.Error("internal error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
}

var engineErrorMap = []struct {
	err    error
	status int
	code   string
}{
	{vault.ErrUnauthorized, http.StatusForbidden, "unauthorized"},

	{vault.ErrInvalidAdmin, http.StatusBadRequest, "invalid_admin"},
	{vault.ErrIdeaIDEmpty, http.StatusBadRequest, "idea_id_empty"},
	{vault.ErrIdeaIDTooLong, http.StatusBadRequest, "idea_id_too_long"},
	{vault.ErrInvalidVaultSeed, http.StatusBadRequest, "invalid_vault_seed"},
	{vault.ErrUnauthorizedMint, http.StatusBadRequest, "unauthorized_mint"},
	{vault.ErrInvalidMint, http.StatusBadRequest, "invalid_mint"},
	{vault.ErrInvalidCustodyAccount, http.StatusBadRequest, "invalid_custody_account"},
	{vault.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{vault.ErrAmountTooSmall, http.StatusBadRequest, "amount_too_small"},
	{vault.ErrInsufficientDeposit, http.StatusBadRequest, "insufficient_deposit"},
	{vault.ErrOverflow, http.StatusBadRequest, "amount_overflow"},

	{vault.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{vault.ErrProtocolPaused, http.StatusConflict, "protocol_paused"},
	{vault.ErrVaultExists, http.StatusConflict, "vault_exists"},

	{vault.ErrNotInitialized, http.StatusNotFound, "not_initialized"},
	{vault.ErrVaultNotFound, http.StatusNotFound, "vault_not_found"},
	{vault.ErrDepositNotFound, http.StatusNotFound, "deposit_not_found"},
}

// GetIPFromRequest returns the client IP, honoring X-Forwarded-For when the
// service runs behind a proxy.
func GetIPFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
