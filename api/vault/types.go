package vault

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AdminConfig is the singleton administrator record. Exactly one instance
// exists for the system's lifetime; re-initialization fails.
type AdminConfig struct {
	Admin     Identity  `json:"admin"`
	IsPaused  bool      `json:"is_paused"`
	Bump      uint8     `json:"bump"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vault is the custody record for one funding campaign.
type Vault struct {
	Address        Identity  `json:"address"`
	IdeaID         string    `json:"idea_id"`
	Seed           Seed      `json:"-"`
	SeedHex        string    `json:"vault_seed"`
	Bump           uint8     `json:"bump"`
	Mint           Identity  `json:"mint"`
	CustodyAccount Identity  `json:"custody_account"`
	TotalDeposited uint64    `json:"total_deposited"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserDeposit tracks the outstanding balance owed to one depositor from one
// vault. Created lazily on first deposit; never deleted, idle at zero after
// a full withdrawal.
type UserDeposit struct {
	Vault     Identity  `json:"vault"`
	User      Identity  `json:"user"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is an append-only record of a successful mutation. Events are
// informational; nothing in the core reads them back for control flow.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Vault     Identity        `json:"vault,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
