package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sparklabs/ideavault/api/metrics"
	"github.com/sparklabs/ideavault/api/vault"
)

// InitializeAdminConfigRequest creates the admin singleton with the signer as
// the initial administrator.
type InitializeAdminConfigRequest struct {
	SignedRequest
}

// InitializeAdminConfig handles POST /api/admin/config.
func (h *Handlers) InitializeAdminConfig(w http.ResponseWriter, r *http.Request) {
	var req InitializeAdminConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg := BuildAuthMessage("init_admin_config", req.Nonce)
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	cfg, err := h.engine.InitializeAdminConfig(r.Context(), caller)
	metrics.RecordVaultOperation("init_admin_config", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	metrics.SetPaused(false)
	writeJSON(w, http.StatusCreated, cfg)
}

// UpdateAdminRequest hands the admin role to NewAdmin.
type UpdateAdminRequest struct {
	SignedRequest
	NewAdmin string `json:"new_admin"`
}

// UpdateAdmin handles POST /api/admin/update.
func (h *Handlers) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req UpdateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	newAdmin, err := vault.ParseIdentity(req.NewAdmin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_admin", err.Error())
		return
	}

	msg := BuildAuthMessage("update_admin", req.Nonce, "new_admin:"+req.NewAdmin)
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	err = h.engine.UpdateAdmin(r.Context(), caller, newAdmin)
	metrics.RecordVaultOperation("update_admin", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	cfg, err := h.engine.AdminConfig(r.Context())
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// TogglePauseRequest flips the global pause flag.
type TogglePauseRequest struct {
	SignedRequest
}

// TogglePauseResponse reports the resulting pause state.
type TogglePauseResponse struct {
	IsPaused bool `json:"is_paused"`
}

// TogglePause handles POST /api/admin/pause.
func (h *Handlers) TogglePause(w http.ResponseWriter, r *http.Request) {
	var req TogglePauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	msg := BuildAuthMessage("toggle_pause", req.Nonce)
	caller, err := h.authenticate(r.Context(), req.SignedRequest, msg)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
		return
	}

	start := h.clock.Now()
	paused, err := h.engine.TogglePause(r.Context(), caller)
	metrics.RecordVaultOperation("toggle_pause", h.clock.Since(start), err)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	metrics.SetPaused(paused)
	writeJSON(w, http.StatusOK, TogglePauseResponse{IsPaused: paused})
}

// GetAdminConfig handles GET /api/admin/config.
func (h *Handlers) GetAdminConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.engine.AdminConfig(r.Context())
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
