package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sparklabs/ideavault/api/metrics"
	"github.com/sparklabs/ideavault/api/vault"
)

// InitializeVaultRequest creates the vault for an idea. VaultSeed is the hex
// sha256 of IdeaID; the engine recomputes and checks it.
type InitializeVaultRequest struct {
	SignedRequest
	IdeaID    string `json:"idea_id"`
	VaultSeed string `json:"vault_seed"`
	Mint      string `json:"mint"`
}

// InitializeVault handles POST /api/vaults.
func (h *Handlers) InitializeVault(w http.ResponseWriter, r *http.Request) {
	var req InitializeVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	seed, err := vault.ParseSeed(req.VaultSeed)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_vault_seed", err.Error())
		return
	}

	msg := BuildAuthMessage("init_vault", req.Nonce,
		"idea_id:"+req.IdeaID, "vault_seed:"+req.VaultSeed, "mint:"+req.Mint)
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	v, err := h.engine.InitializeVault(r.Context(), caller, req.IdeaID, seed, vault.Identity(req.Mint))
	metrics.RecordVaultOperation("init_vault", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// AmountRequest is the signed envelope plus an amount in base units.
type AmountRequest struct {
	SignedRequest
	Amount uint64 `json:"amount"`
}

// Deposit handles POST /api/vaults/{address}/deposit.
func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg := BuildAuthMessage("deposit", req.Nonce,
		"vault:"+address, "amount:"+strconv.FormatUint(req.Amount, 10))
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	d, err := h.engine.Deposit(r.Context(), caller, vault.Identity(address), req.Amount)
	metrics.RecordVaultOperation("deposit", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	metrics.RecordDeposit(req.Amount)
	writeJSON(w, http.StatusOK, d)
}

// Withdraw handles POST /api/vaults/{address}/withdraw.
func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg := BuildAuthMessage("withdraw", req.Nonce,
		"vault:"+address, "amount:"+strconv.FormatUint(req.Amount, 10))
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	d, err := h.engine.Withdraw(r.Context(), caller, vault.Identity(address), req.Amount)
	metrics.RecordVaultOperation("withdraw", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	metrics.RecordWithdrawal("user", req.Amount)
	writeJSON(w, http.StatusOK, d)
}

// AdminWithdrawRequest sweeps a vault's full custody balance to the admin.
type AdminWithdrawRequest struct {
	SignedRequest
}

// AdminWithdrawResponse reports the swept amount.
type AdminWithdrawResponse struct {
	Vault  string `json:"vault"`
	Amount uint64 `json:"amount"`
}

// AdminWithdraw handles POST /api/vaults/{address}/sweep.
func (h *Handlers) AdminWithdraw(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req AdminWithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg := BuildAuthMessage("admin_withdraw", req.Nonce, "vault:"+address)
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	amount, err := h.engine.AdminWithdraw(r.Context(), caller, vault.Identity(address))
	metrics.RecordVaultOperation("admin_withdraw", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	metrics.RecordWithdrawal("admin", amount)
	writeJSON(w, http.StatusOK, AdminWithdrawResponse{Vault: address, Amount: amount})
}

// GetVault handles GET /api/vaults/{address}.
func (h *Handlers) GetVault(w http.ResponseWriter, r *http.Request) {
	v, err := h.engine.GetVault(r.Context(), vault.Identity(chi.URLParam(r, "address")))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListVaultsResponse is a page of vaults.
type ListVaultsResponse struct {
	Vaults []vault.Vault `json:"vaults"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListVaults handles GET /api/vaults.
func (h *Handlers) ListVaults(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	vaults, total, err := h.engine.ListVaults(r.Context(), limit, offset)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListVaultsResponse{
		Vaults: vaults,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetUserDeposit handles GET /api/vaults/{address}/deposits/{user}.
func (h *Handlers) GetUserDeposit(w http.ResponseWriter, r *http.Request) {
	d, err := h.engine.GetUserDeposit(r.Context(),
		vault.Identity(chi.URLParam(r, "address")),
		vault.Identity(chi.URLParam(r, "user")))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CustodyBalanceResponse reports a vault's actual custody balance.
type CustodyBalanceResponse struct {
	Vault   string `json:"vault"`
	Balance uint64 `json:"balance"`
}

// GetCustodyBalance handles GET /api/vaults/{address}/balance.
func (h *Handlers) GetCustodyBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	balance, err := h.engine.CustodyBalance(r.Context(), vault.Identity(address))
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, CustodyBalanceResponse{Vault: address, Balance: balance})
}

// ListEventsResponse is a page of events, newest first.
type ListEventsResponse struct {
	Events []vault.Event `json:"events"`
}

// ListEvents handles GET /api/events. An optional vault query parameter
// filters to one vault.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	events, err := h.engine.ListEvents(r.Context(), vault.Identity(r.URL.Query().Get("vault")), limit)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEventsResponse{Events: events})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
