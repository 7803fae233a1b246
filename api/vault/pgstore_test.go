package vault_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/config"
	"github.com/sparklabs/ideavault/api/gateway"
	apitesting "github.com/sparklabs/ideavault/api/testing"
	"github.com/sparklabs/ideavault/api/vault"
)

// TestPgStore runs the storage layer against a real postgres container. One
// container serves all subtests; each subtest uses its own identities and
// idea ids so they do not collide.
func TestPgStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	db, err := apitesting.NewDB(ctx, slog.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	apitesting.MigrateTestDB(t, db)
	pool := apitesting.NewTestPool(t, db)
	store := vault.NewPgStore(pool)

	t.Run("admin config lifecycle", func(t *testing.T) {
		_, err := store.GetAdminConfig(ctx)
		assert.ErrorIs(t, err, vault.ErrNotInitialized)

		admin := ident(t, 1)
		err = store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.InsertAdminConfig(ctx, &vault.AdminConfig{Admin: admin, Bump: vault.DerivationBump})
		})
		require.NoError(t, err)

		cfg, err := store.GetAdminConfig(ctx)
		require.NoError(t, err)
		assert.Equal(t, admin, cfg.Admin)
		assert.False(t, cfg.IsPaused)

		// The singleton cannot be inserted twice.
		err = store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.InsertAdminConfig(ctx, &vault.AdminConfig{Admin: ident(t, 2)})
		})
		assert.ErrorIs(t, err, vault.ErrAlreadyInitialized)

		// Update flips the pause flag.
		err = store.WithTx(ctx, func(tx vault.Tx) error {
			cfg, err := tx.GetAdminConfigForUpdate(ctx)
			if err != nil {
				return err
			}
			cfg.IsPaused = true
			return tx.UpdateAdminConfig(ctx, cfg)
		})
		require.NoError(t, err)

		cfg, err = store.GetAdminConfig(ctx)
		require.NoError(t, err)
		assert.True(t, cfg.IsPaused)

		err = store.WithTx(ctx, func(tx vault.Tx) error {
			cfg.IsPaused = false
			return tx.UpdateAdminConfig(ctx, cfg)
		})
		require.NoError(t, err)
	})

	t.Run("vault round trip", func(t *testing.T) {
		seed := vault.DeriveSeed("pg-idea-1")
		mint := ident(t, 3)
		address := vault.VaultAddress(seed)
		v := &vault.Vault{
			Address:        address,
			IdeaID:         "pg-idea-1",
			Seed:           seed,
			SeedHex:        seed.Hex(),
			Bump:           vault.DerivationBump,
			Mint:           mint,
			CustodyAccount: vault.TokenAccountAddress(address, mint),
		}

		err := store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.InsertVault(ctx, v)
		})
		require.NoError(t, err)

		got, err := store.GetVault(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, v.IdeaID, got.IdeaID)
		assert.Equal(t, v.Seed, got.Seed)
		assert.Equal(t, v.CustodyAccount, got.CustodyAccount)
		assert.Zero(t, got.TotalDeposited)

		// Same address again violates the primary key.
		err = store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.InsertVault(ctx, v)
		})
		assert.ErrorIs(t, err, vault.ErrVaultExists)

		_, err = store.GetVault(ctx, ident(t, 99))
		assert.ErrorIs(t, err, vault.ErrVaultNotFound)
	})

	t.Run("deposit upsert and totals", func(t *testing.T) {
		seed := vault.DeriveSeed("pg-idea-2")
		mint := ident(t, 3)
		address := vault.VaultAddress(seed)
		user := ident(t, 4)

		err := store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.InsertVault(ctx, &vault.Vault{
				Address: address, IdeaID: "pg-idea-2", Seed: seed, SeedHex: seed.Hex(),
				Bump: vault.DerivationBump, Mint: mint,
				CustodyAccount: vault.TokenAccountAddress(address, mint),
			})
		})
		require.NoError(t, err)

		err = store.WithTx(ctx, func(tx vault.Tx) error {
			if _, err := tx.GetUserDepositForUpdate(ctx, address, user); !assert.ErrorIs(t, err, vault.ErrDepositNotFound) {
				return err
			}
			if err := tx.UpsertUserDeposit(ctx, &vault.UserDeposit{Vault: address, User: user, Amount: 5000}); err != nil {
				return err
			}
			return tx.UpdateVaultTotal(ctx, address, 5000)
		})
		require.NoError(t, err)

		// Upsert replaces the amount.
		err = store.WithTx(ctx, func(tx vault.Tx) error {
			return tx.UpsertUserDeposit(ctx, &vault.UserDeposit{Vault: address, User: user, Amount: 3000})
		})
		require.NoError(t, err)

		d, err := store.GetUserDeposit(ctx, address, user)
		require.NoError(t, err)
		assert.Equal(t, uint64(3000), d.Amount)

		got, err := store.GetVault(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), got.TotalDeposited)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		seed := vault.DeriveSeed("pg-idea-rollback")
		mint := ident(t, 3)
		address := vault.VaultAddress(seed)

		err := store.WithTx(ctx, func(tx vault.Tx) error {
			if err := tx.InsertVault(ctx, &vault.Vault{
				Address: address, IdeaID: "pg-idea-rollback", Seed: seed, SeedHex: seed.Hex(),
				Bump: vault.DerivationBump, Mint: mint,
				CustodyAccount: vault.TokenAccountAddress(address, mint),
			}); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		_, err = store.GetVault(ctx, address)
		assert.ErrorIs(t, err, vault.ErrVaultNotFound)
	})

	t.Run("events", func(t *testing.T) {
		seed := vault.DeriveSeed("pg-idea-3")
		mint := ident(t, 3)
		address := vault.VaultAddress(seed)

		err := store.WithTx(ctx, func(tx vault.Tx) error {
			if err := tx.InsertVault(ctx, &vault.Vault{
				Address: address, IdeaID: "pg-idea-3", Seed: seed, SeedHex: seed.Hex(),
				Bump: vault.DerivationBump, Mint: mint,
				CustodyAccount: vault.TokenAccountAddress(address, mint),
			}); err != nil {
				return err
			}
			return tx.InsertEvent(ctx, &vault.Event{
				ID:        uuid.New(),
				Kind:      vault.EventVaultInitialized,
				Vault:     address,
				Payload:   json.RawMessage(`{}`),
				CreatedAt: time.Now().UTC(),
			})
		})
		require.NoError(t, err)

		events, err := store.ListEvents(ctx, address, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, vault.EventVaultInitialized, events[0].Kind)
		assert.Equal(t, address, events[0].Vault)
	})

	t.Run("engine on postgres", func(t *testing.T) {
		gw := gateway.NewMemory()
		engine, err := vault.NewEngine(vault.EngineConfig{
			Store:   store,
			Gateway: gw,
			Network: config.NetworkLocalnet,
		})
		require.NoError(t, err)

		user := ident(t, 5)
		mint := ident(t, 6)
		_, err = gw.Mint(ctx, mint, user, 10_000)
		require.NoError(t, err)

		v, err := engine.InitializeVault(ctx, user, "pg-idea-4", vault.DeriveSeed("pg-idea-4"), mint)
		require.NoError(t, err)

		d, err := engine.Deposit(ctx, user, v.Address, 5000)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), d.Amount)

		d, err = engine.Withdraw(ctx, user, v.Address, 2000)
		require.NoError(t, err)
		assert.Equal(t, uint64(3000), d.Amount)

		_, err = engine.Withdraw(ctx, user, v.Address, 4000)
		assert.ErrorIs(t, err, vault.ErrInsufficientDeposit)
	})
}
