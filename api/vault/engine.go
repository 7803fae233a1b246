package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/sparklabs/ideavault/api/config"
)

// DustFloor is the minimum accepted deposit in base units (0.001 USDC).
// Anything smaller is rejected to keep dust spam out of the ledger.
const DustFloor uint64 = 1000

// Engine implements the vault operations as atomic state transitions over a
// Store, invoking the TransferGateway only after local effects are applied
// inside the same transaction (check-effects-interactions).
type Engine struct {
	store   Store
	gateway TransferGateway
	network config.Network
	clock   clockwork.Clock
	log     *slog.Logger
}

// EngineConfig carries the engine's collaborators.
type EngineConfig struct {
	Store   Store
	Gateway TransferGateway
	Network config.Network
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("transfer gateway is required")
	}
	if !config.ValidNetworks[cfg.Network] {
		return nil, fmt.Errorf("unknown network %q", cfg.Network)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		store:   cfg.Store,
		gateway: cfg.Gateway,
		network: cfg.Network,
		clock:   cfg.Clock,
		log:     cfg.Logger,
	}, nil
}

// Network returns the deployment network the engine enforces mints for.
func (e *Engine) Network() config.Network {
	return e.network
}

// InitializeAdminConfig creates the admin singleton with the caller as the
// initial administrator. Can only succeed once for the system's lifetime.
func (e *Engine) InitializeAdminConfig(ctx context.Context, caller Identity) (*AdminConfig, error) {
	if caller.IsZero() {
		return nil, ErrInvalidAdmin
	}

	now := e.clock.Now().UTC()
	cfg := &AdminConfig{
		Admin:     caller,
		IsPaused:  false,
		Bump:      DerivationBump,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := e.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.InsertAdminConfig(ctx, cfg); err != nil {
			return err
		}
		ev, err := newEvent(EventAdminConfigInitialized, "", AdminConfigInitializedPayload{Admin: caller}, now)
		if err != nil {
			return err
		}
		return tx.InsertEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("admin config initialized", "admin", caller)
	return cfg, nil
}

// UpdateAdmin hands the administrator role to a new identity. Only the
// current admin can call this.
func (e *Engine) UpdateAdmin(ctx context.Context, caller, newAdmin Identity) error {
	if newAdmin.IsZero() {
		return ErrInvalidAdmin
	}

	var oldAdmin Identity
	err := e.store.WithTx(ctx, func(tx Tx) error {
		cfg, err := tx.GetAdminConfigForUpdate(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.Admin {
			return ErrUnauthorized
		}

		oldAdmin = cfg.Admin
		now := e.clock.Now().UTC()
		cfg.Admin = newAdmin
		cfg.UpdatedAt = now
		if err := tx.UpdateAdminConfig(ctx, cfg); err != nil {
			return err
		}

		ev, err := newEvent(EventAdminUpdated, "", AdminUpdatedPayload{OldAdmin: oldAdmin, NewAdmin: newAdmin}, now)
		if err != nil {
			return err
		}
		return tx.InsertEvent(ctx, ev)
	})
	if err != nil {
		return err
	}

	e.log.Info("admin updated", "old_admin", oldAdmin, "new_admin", newAdmin)
	return nil
}

// TogglePause flips the global pause flag and returns the resulting state.
// Only the current admin can call this.
func (e *Engine) TogglePause(ctx context.Context, caller Identity) (bool, error) {
	var paused bool
	err := e.store.WithTx(ctx, func(tx Tx) error {
		cfg, err := tx.GetAdminConfigForUpdate(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.Admin {
			return ErrUnauthorized
		}

		now := e.clock.Now().UTC()
		cfg.IsPaused = !cfg.IsPaused
		cfg.UpdatedAt = now
		paused = cfg.IsPaused
		if err := tx.UpdateAdminConfig(ctx, cfg); err != nil {
			return err
		}

		ev, err := newEvent(EventPauseToggled, "", PauseToggledPayload{IsPaused: paused, Admin: caller}, now)
		if err != nil {
			return err
		}
		return tx.InsertEvent(ctx, ev)
	})
	if err != nil {
		return false, err
	}

	e.log.Info("pause toggled", "is_paused", paused, "admin", caller)
	return paused, nil
}

// AdminConfig returns the current admin configuration.
func (e *Engine) AdminConfig(ctx context.Context) (*AdminConfig, error) {
	return e.store.GetAdminConfig(ctx)
}

// requireUnpaused loads the admin config inside tx and fails when the
// protocol is paused.
func requireUnpaused(ctx context.Context, tx Tx) (*AdminConfig, error) {
	cfg, err := tx.GetAdminConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.IsPaused {
		return nil, ErrProtocolPaused
	}
	return cfg, nil
}
