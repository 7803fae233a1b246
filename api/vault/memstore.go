package vault

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by unit tests and local development.
// WithTx holds the store lock for the whole transaction and mutates a staged
// copy of the state, so a failed transaction leaves the store untouched and
// concurrent transactions are fully serialized.
type MemStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	admin    *AdminConfig
	vaults   map[Identity]*Vault
	deposits map[depositKey]*UserDeposit
	events   []Event
}

type depositKey struct {
	vault Identity
	user  Identity
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{state: memState{
		vaults:   map[Identity]*Vault{},
		deposits: map[depositKey]*UserDeposit{},
	}}
}

func (s *MemStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&memTx{state: &staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *MemStore) GetAdminConfig(ctx context.Context) (*AdminConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&memTx{state: &s.state}).GetAdminConfig(ctx)
}

func (s *MemStore) GetVault(_ context.Context, address Identity) (*Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.vaults[address]
	if !ok {
		return nil, ErrVaultNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *MemStore) ListVaults(_ context.Context, limit, offset int) ([]Vault, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Vault, 0, len(s.state.vaults))
	for _, v := range s.state.vaults {
		all = append(all, *v)
	}
	// Newest first, address as tiebreaker to keep pagination stable.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Address < all[j].Address
	})

	total := len(all)
	if offset >= total {
		return []Vault{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *MemStore) GetUserDeposit(_ context.Context, vaultAddr, user Identity) (*UserDeposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.state.deposits[depositKey{vaultAddr, user}]
	if !ok {
		return nil, ErrDepositNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemStore) ListEvents(_ context.Context, vaultAddr Identity, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Event{}
	for i := len(s.state.events) - 1; i >= 0; i-- {
		e := s.state.events[i]
		if vaultAddr != "" && e.Vault != vaultAddr {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (st memState) clone() memState {
	cp := memState{
		vaults:   make(map[Identity]*Vault, len(st.vaults)),
		deposits: make(map[depositKey]*UserDeposit, len(st.deposits)),
		events:   slices.Clone(st.events),
	}
	if st.admin != nil {
		a := *st.admin
		cp.admin = &a
	}
	for k, v := range st.vaults {
		vv := *v
		cp.vaults[k] = &vv
	}
	for k, d := range st.deposits {
		dd := *d
		cp.deposits[k] = &dd
	}
	return cp
}

// memTx mutates a staged state copy.
type memTx struct {
	state *memState
}

func (t *memTx) GetAdminConfig(context.Context) (*AdminConfig, error) {
	if t.state.admin == nil {
		return nil, ErrNotInitialized
	}
	cp := *t.state.admin
	return &cp, nil
}

func (t *memTx) GetAdminConfigForUpdate(ctx context.Context) (*AdminConfig, error) {
	return t.GetAdminConfig(ctx)
}

func (t *memTx) InsertAdminConfig(_ context.Context, cfg *AdminConfig) error {
	if t.state.admin != nil {
		return ErrAlreadyInitialized
	}
	cp := *cfg
	t.state.admin = &cp
	return nil
}

func (t *memTx) UpdateAdminConfig(_ context.Context, cfg *AdminConfig) error {
	if t.state.admin == nil {
		return ErrNotInitialized
	}
	cp := *cfg
	t.state.admin = &cp
	return nil
}

func (t *memTx) GetVaultForUpdate(_ context.Context, address Identity) (*Vault, error) {
	v, ok := t.state.vaults[address]
	if !ok {
		return nil, ErrVaultNotFound
	}
	cp := *v
	return &cp, nil
}

func (t *memTx) InsertVault(_ context.Context, v *Vault) error {
	if _, ok := t.state.vaults[v.Address]; ok {
		return ErrVaultExists
	}
	for _, existing := range t.state.vaults {
		if existing.IdeaID == v.IdeaID {
			return ErrVaultExists
		}
	}
	cp := *v
	t.state.vaults[v.Address] = &cp
	return nil
}

func (t *memTx) UpdateVaultTotal(_ context.Context, address Identity, total uint64) error {
	v, ok := t.state.vaults[address]
	if !ok {
		return ErrVaultNotFound
	}
	v.TotalDeposited = total
	return nil
}

func (t *memTx) GetUserDepositForUpdate(_ context.Context, vaultAddr, user Identity) (*UserDeposit, error) {
	d, ok := t.state.deposits[depositKey{vaultAddr, user}]
	if !ok {
		return nil, ErrDepositNotFound
	}
	cp := *d
	return &cp, nil
}

func (t *memTx) UpsertUserDeposit(_ context.Context, d *UserDeposit) error {
	cp := *d
	t.state.deposits[depositKey{d.Vault, d.User}] = &cp
	return nil
}

func (t *memTx) InsertEvent(_ context.Context, e *Event) error {
	t.state.events = append(t.state.events, *e)
	return nil
}
