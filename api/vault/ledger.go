package vault

import (
	"context"
	"errors"
	"fmt"
)

// Deposit moves amount from user's token account into the vault's custody
// account and credits the user's ledger entry. The ledger writes happen before
// the gateway transfer inside one transaction, so a failed transfer rolls the
// credit back.
func (e *Engine) Deposit(ctx context.Context, user, vaultAddr Identity, amount uint64) (*UserDeposit, error) {
	var out *UserDeposit
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := requireUnpaused(ctx, tx); err != nil {
			return err
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if amount < DustFloor {
			return ErrAmountTooSmall
		}

		v, err := tx.GetVaultForUpdate(ctx, vaultAddr)
		if err != nil {
			return err
		}

		d, err := tx.GetUserDepositForUpdate(ctx, vaultAddr, user)
		if errors.Is(err, ErrDepositNotFound) {
			d = &UserDeposit{Vault: vaultAddr, User: user, CreatedAt: e.clock.Now().UTC()}
		} else if err != nil {
			return err
		}

		userTotal, err := CheckedAdd(d.Amount, amount)
		if err != nil {
			return err
		}
		vaultTotal, err := CheckedAdd(v.TotalDeposited, amount)
		if err != nil {
			return err
		}

		now := e.clock.Now().UTC()
		d.Amount = userTotal
		d.UpdatedAt = now
		if err := tx.UpsertUserDeposit(ctx, d); err != nil {
			return err
		}
		if err := tx.UpdateVaultTotal(ctx, vaultAddr, vaultTotal); err != nil {
			return err
		}

		// Interactions last: the transfer is authorized by the depositor,
		// whose signature the handler layer has already verified.
		source := TokenAccountAddress(user, v.Mint)
		if err := e.gateway.Transfer(ctx, v.Mint, source, v.CustodyAccount, amount, OwnerAuth(user)); err != nil {
			return fmt.Errorf("deposit transfer failed: %w", err)
		}

		ev, err := newEvent(EventUserDeposited, vaultAddr, UserDepositedPayload{
			Vault:      vaultAddr,
			User:       user,
			Amount:     amount,
			UserTotal:  userTotal,
			VaultTotal: vaultTotal,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, ev); err != nil {
			return err
		}

		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("user deposited",
		"vault", vaultAddr, "user", user, "amount", amount, "user_total", out.Amount)
	return out, nil
}

// Withdraw moves amount from the vault's custody account back to the user's
// token account, debiting the user's ledger entry. The user can withdraw up to
// their own recorded balance; the vault's derived authority signs the
// transfer out of custody.
func (e *Engine) Withdraw(ctx context.Context, user, vaultAddr Identity, amount uint64) (*UserDeposit, error) {
	var out *UserDeposit
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := requireUnpaused(ctx, tx); err != nil {
			return err
		}
		if amount == 0 {
			return ErrInvalidAmount
		}

		v, err := tx.GetVaultForUpdate(ctx, vaultAddr)
		if err != nil {
			return err
		}
		d, err := tx.GetUserDepositForUpdate(ctx, vaultAddr, user)
		if errors.Is(err, ErrDepositNotFound) {
			return ErrInsufficientDeposit
		}
		if err != nil {
			return err
		}
		if amount > d.Amount {
			return ErrInsufficientDeposit
		}

		userRemaining, err := CheckedSub(d.Amount, amount)
		if err != nil {
			return err
		}
		vaultTotal, err := CheckedSub(v.TotalDeposited, amount)
		if err != nil {
			return err
		}

		now := e.clock.Now().UTC()
		d.Amount = userRemaining
		d.UpdatedAt = now
		if err := tx.UpsertUserDeposit(ctx, d); err != nil {
			return err
		}
		if err := tx.UpdateVaultTotal(ctx, vaultAddr, vaultTotal); err != nil {
			return err
		}

		dest, err := e.gateway.EnsureAccount(ctx, v.Mint, user)
		if err != nil {
			return fmt.Errorf("failed to resolve destination account: %w", err)
		}
		if err := e.gateway.Transfer(ctx, v.Mint, v.CustodyAccount, dest, amount, DerivedAuth(v.Seed, v.Bump)); err != nil {
			return fmt.Errorf("withdraw transfer failed: %w", err)
		}

		ev, err := newEvent(EventUserWithdrawn, vaultAddr, UserWithdrawnPayload{
			Vault:         vaultAddr,
			User:          user,
			Amount:        amount,
			UserRemaining: userRemaining,
			VaultTotal:    vaultTotal,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, ev); err != nil {
			return err
		}

		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("user withdrew",
		"vault", vaultAddr, "user", user, "amount", amount, "user_remaining", out.Amount)
	return out, nil
}

// AdminWithdraw sweeps the vault's entire custody balance to the admin's
// token account. The swept amount is whatever the gateway reports for the
// custody account, which covers funds sent to it outside the deposit flow.
// Individual user ledger entries are left untouched; only the vault's running
// total is zeroed. The sweep works while the protocol is paused.
func (e *Engine) AdminWithdraw(ctx context.Context, caller, vaultAddr Identity) (uint64, error) {
	var swept uint64
	err := e.store.WithTx(ctx, func(tx Tx) error {
		cfg, err := tx.GetAdminConfig(ctx)
		if err != nil {
			return err
		}
		if caller != cfg.Admin {
			return ErrUnauthorized
		}

		v, err := tx.GetVaultForUpdate(ctx, vaultAddr)
		if err != nil {
			return err
		}

		balance, err := e.gateway.Balance(ctx, v.Mint, v.CustodyAccount)
		if err != nil {
			return fmt.Errorf("failed to read custody balance: %w", err)
		}
		if balance == 0 {
			return ErrInvalidAmount
		}

		now := e.clock.Now().UTC()
		if err := tx.UpdateVaultTotal(ctx, vaultAddr, 0); err != nil {
			return err
		}

		dest, err := e.gateway.EnsureAccount(ctx, v.Mint, caller)
		if err != nil {
			return fmt.Errorf("failed to resolve admin account: %w", err)
		}
		if err := e.gateway.Transfer(ctx, v.Mint, v.CustodyAccount, dest, balance, DerivedAuth(v.Seed, v.Bump)); err != nil {
			return fmt.Errorf("sweep transfer failed: %w", err)
		}

		ev, err := newEvent(EventAdminWithdrawn, vaultAddr, AdminWithdrawnPayload{
			Vault:  vaultAddr,
			Admin:  caller,
			Amount: balance,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.InsertEvent(ctx, ev); err != nil {
			return err
		}

		swept = balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.log.Info("admin swept vault", "vault", vaultAddr, "admin", caller, "amount", swept)
	return swept, nil
}
