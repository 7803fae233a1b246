package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event kinds, one per successful mutation.
const (
	EventAdminConfigInitialized = "AdminConfigInitialized"
	EventAdminUpdated           = "AdminUpdated"
	EventPauseToggled           = "PauseToggled"
	EventVaultInitialized       = "VaultInitialized"
	EventUserDeposited          = "UserDeposited"
	EventUserWithdrawn          = "UserWithdrawn"
	EventAdminWithdrawn         = "AdminWithdrawn"
)

// AdminConfigInitializedPayload carries the initial administrator.
type AdminConfigInitializedPayload struct {
	Admin Identity `json:"admin"`
}

// AdminUpdatedPayload carries the administrator handover.
type AdminUpdatedPayload struct {
	OldAdmin Identity `json:"old_admin"`
	NewAdmin Identity `json:"new_admin"`
}

// PauseToggledPayload carries the resulting pause state.
type PauseToggledPayload struct {
	IsPaused bool     `json:"is_paused"`
	Admin    Identity `json:"admin"`
}

// VaultInitializedPayload carries the new vault's identity.
type VaultInitializedPayload struct {
	Vault         Identity `json:"vault"`
	IdeaID        string   `json:"idea_id"`
	Mint          Identity `json:"mint"`
	InitializedBy Identity `json:"initialized_by"`
}

// UserDepositedPayload carries the deposit and the resulting totals.
type UserDepositedPayload struct {
	Vault      Identity `json:"vault"`
	User       Identity `json:"user"`
	Amount     uint64   `json:"amount"`
	UserTotal  uint64   `json:"user_total"`
	VaultTotal uint64   `json:"vault_total"`
}

// UserWithdrawnPayload carries the withdrawal and the resulting totals.
type UserWithdrawnPayload struct {
	Vault         Identity `json:"vault"`
	User          Identity `json:"user"`
	Amount        uint64   `json:"amount"`
	UserRemaining uint64   `json:"user_remaining"`
	VaultTotal    uint64   `json:"vault_total"`
}

// AdminWithdrawnPayload carries the swept amount.
type AdminWithdrawnPayload struct {
	Vault  Identity `json:"vault"`
	Admin  Identity `json:"admin"`
	Amount uint64   `json:"amount"`
}

func newEvent(kind string, vaultAddr Identity, payload any, at time.Time) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return &Event{
		ID:        uuid.New(),
		Kind:      kind,
		Vault:     vaultAddr,
		Payload:   raw,
		CreatedAt: at,
	}, nil
}
