package vault

import "context"

// Store is the persistence boundary for the ledger. Every mutating operation
// runs inside a single WithTx transaction: either all of its writes commit or
// none do, which is what lets the engine apply local effects before invoking
// the transfer gateway and still abort cleanly when the gateway fails.
type Store interface {
	// WithTx runs fn inside one transaction. A non-nil error from fn rolls
	// every write back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Read-only access outside a transaction.
	GetAdminConfig(ctx context.Context) (*AdminConfig, error)
	GetVault(ctx context.Context, address Identity) (*Vault, error)
	ListVaults(ctx context.Context, limit, offset int) ([]Vault, int, error)
	GetUserDeposit(ctx context.Context, vaultAddr, user Identity) (*UserDeposit, error)
	ListEvents(ctx context.Context, vaultAddr Identity, limit int) ([]Event, error)
}

// Tx is the transactional view of the store. Records fetched "ForUpdate" are
// locked until the transaction ends, serializing operations that touch the
// same vault or deposit; operations on disjoint records run concurrently.
type Tx interface {
	// GetAdminConfig returns ErrNotInitialized when no config row exists.
	GetAdminConfig(ctx context.Context) (*AdminConfig, error)
	// GetAdminConfigForUpdate locks the singleton row for mutation.
	GetAdminConfigForUpdate(ctx context.Context) (*AdminConfig, error)
	// InsertAdminConfig returns ErrAlreadyInitialized when the singleton
	// row already exists.
	InsertAdminConfig(ctx context.Context, cfg *AdminConfig) error
	UpdateAdminConfig(ctx context.Context, cfg *AdminConfig) error

	// GetVaultForUpdate returns ErrVaultNotFound when the vault does not
	// exist.
	GetVaultForUpdate(ctx context.Context, address Identity) (*Vault, error)
	// InsertVault returns ErrVaultExists when a vault already occupies the
	// derived address (or the idea id is already taken).
	InsertVault(ctx context.Context, v *Vault) error
	UpdateVaultTotal(ctx context.Context, address Identity, total uint64) error

	// GetUserDepositForUpdate returns ErrDepositNotFound when no record
	// exists yet for this vault and user.
	GetUserDepositForUpdate(ctx context.Context, vaultAddr, user Identity) (*UserDeposit, error)
	UpsertUserDeposit(ctx context.Context, d *UserDeposit) error

	InsertEvent(ctx context.Context, e *Event) error
}
