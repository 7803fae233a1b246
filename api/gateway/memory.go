// Package gateway provides TransferGateway implementations: an in-memory
// token ledger for tests and local development, and a JSON-RPC client for a
// real token service.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/sparklabs/ideavault/api/vault"
)

// Memory is an in-process token ledger. Accounts derive their addresses the
// same way the rest of the system does, so engine-derived custody addresses
// resolve to real accounts here.
type Memory struct {
	mu       sync.Mutex
	accounts map[vault.Identity]*memAccount
}

type memAccount struct {
	mint    vault.Identity
	owner   vault.Identity
	balance uint64
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{accounts: map[vault.Identity]*memAccount{}}
}

func (m *Memory) EnsureAccount(_ context.Context, mint, owner vault.Identity) (vault.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := vault.TokenAccountAddress(owner, mint)
	if acc, ok := m.accounts[addr]; ok {
		if acc.mint != mint {
			return "", fmt.Errorf("account %s exists with different mint", addr)
		}
		return addr, nil
	}
	m.accounts[addr] = &memAccount{mint: mint, owner: owner}
	return addr, nil
}

func (m *Memory) Balance(_ context.Context, mint, account vault.Identity) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[account]
	if !ok {
		return 0, fmt.Errorf("unknown account %s", account)
	}
	if acc.mint != mint {
		return 0, fmt.Errorf("account %s does not hold mint %s", account, mint)
	}
	return acc.balance, nil
}

func (m *Memory) Transfer(_ context.Context, mint, from, to vault.Identity, amount uint64, auth vault.Authorization) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.accounts[from]
	if !ok {
		return fmt.Errorf("unknown source account %s", from)
	}
	dst, ok := m.accounts[to]
	if !ok {
		return fmt.Errorf("unknown destination account %s", to)
	}
	if src.mint != mint || dst.mint != mint {
		return fmt.Errorf("mint mismatch on transfer %s -> %s", from, to)
	}
	if !authorized(src.owner, auth) {
		return fmt.Errorf("transfer from %s not authorized", from)
	}
	if src.balance < amount {
		return fmt.Errorf("insufficient balance in %s: have %d, need %d", from, src.balance, amount)
	}

	src.balance -= amount
	dst.balance += amount
	return nil
}

// authorized checks that auth proves control of owner: either the owner
// signed directly, or the presented derivation proof resolves to owner.
func authorized(owner vault.Identity, auth vault.Authorization) bool {
	if auth.Owner != "" {
		return auth.Owner == owner
	}
	if auth.Proof != nil {
		return auth.Proof.Authorizes(owner)
	}
	return false
}

// Mint credits amount to owner's token account, creating it if needed. Test
// and local-development faucet; not part of TransferGateway.
func (m *Memory) Mint(ctx context.Context, mint, owner vault.Identity, amount uint64) (vault.Identity, error) {
	addr, err := m.EnsureAccount(ctx, mint, owner)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[addr].balance += amount
	return addr, nil
}
