package vault

import (
	"context"
	"fmt"
)

// MaxIdeaIDLength bounds the human-readable campaign label.
const MaxIdeaIDLength = 64

// InitializeVault creates the vault for an idea id. One vault exists per
// idea id: the record address derives from sha256(ideaID), so a second
// initialization lands on an occupied address and fails with ErrVaultExists.
// The caller supplies the seed alongside the idea id and the engine recomputes
// and checks it rather than trusting it.
func (e *Engine) InitializeVault(ctx context.Context, caller Identity, ideaID string, seed Seed, mint Identity) (*Vault, error) {
	address := VaultAddress(seed)
	now := e.clock.Now().UTC()
	v := &Vault{
		Address:        address,
		IdeaID:         ideaID,
		Seed:           seed,
		SeedHex:        seed.Hex(),
		Bump:           DerivationBump,
		Mint:           mint,
		CustodyAccount: TokenAccountAddress(address, mint),
		TotalDeposited: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := requireUnpaused(ctx, tx); err != nil {
			return err
		}
		if len(ideaID) > MaxIdeaIDLength {
			return ErrIdeaIDTooLong
		}
		if ideaID == "" {
			return ErrIdeaIDEmpty
		}
		if !seed.Matches(ideaID) {
			return ErrInvalidVaultSeed
		}
		if !e.network.MintAllowed(mint.String()) {
			return ErrUnauthorizedMint
		}
		if _, err := ParseIdentity(mint.String()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMint, err)
		}

		// Effects: record the vault before touching the gateway.
		if err := tx.InsertVault(ctx, v); err != nil {
			return err
		}

		// Interactions: create the custody account under the vault's
		// derived authority. EnsureAccount is idempotent, so an aborted
		// transaction leaves no stray state behind.
		custody, err := e.gateway.EnsureAccount(ctx, mint, address)
		if err != nil {
			return fmt.Errorf("failed to create custody account: %w", err)
		}
		if custody != v.CustodyAccount {
			return ErrInvalidCustodyAccount
		}

		ev, err := newEvent(EventVaultInitialized, address, VaultInitializedPayload{
			Vault:         address,
			IdeaID:        ideaID,
			Mint:          mint,
			InitializedBy: caller,
		}, now)
		if err != nil {
			return err
		}
		return tx.InsertEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("vault initialized",
		"vault", address, "idea_id", ideaID, "mint", mint, "initialized_by", caller)
	return v, nil
}

// GetVault returns the vault at the given derived address.
func (e *Engine) GetVault(ctx context.Context, address Identity) (*Vault, error) {
	return e.store.GetVault(ctx, address)
}

// ListVaults returns a page of vaults and the total count.
func (e *Engine) ListVaults(ctx context.Context, limit, offset int) ([]Vault, int, error) {
	return e.store.ListVaults(ctx, limit, offset)
}

// GetUserDeposit returns the deposit record for one vault and depositor.
func (e *Engine) GetUserDeposit(ctx context.Context, vaultAddr, user Identity) (*UserDeposit, error) {
	return e.store.GetUserDeposit(ctx, vaultAddr, user)
}

// ListEvents returns recent events, optionally filtered to one vault.
func (e *Engine) ListEvents(ctx context.Context, vaultAddr Identity, limit int) ([]Event, error) {
	return e.store.ListEvents(ctx, vaultAddr, limit)
}

// CustodyBalance reads the actual gateway balance of a vault's custody
// account. This is the source of truth the admin sweep acts on, as opposed to
// the ledger's total_deposited.
func (e *Engine) CustodyBalance(ctx context.Context, vaultAddr Identity) (uint64, error) {
	v, err := e.store.GetVault(ctx, vaultAddr)
	if err != nil {
		return 0, err
	}
	return e.gateway.Balance(ctx, v.Mint, v.CustodyAccount)
}
