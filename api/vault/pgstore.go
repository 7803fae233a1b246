package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists the ledger in postgres. Row locks via SELECT ... FOR
// UPDATE serialize concurrent operations on the same vault or deposit.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps an existing connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// querier is the subset of pgx shared by the pool and an open transaction, so
// the read helpers below serve both paths.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgTx{q: dbtx}); err != nil {
		return err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PgStore) GetAdminConfig(ctx context.Context) (*AdminConfig, error) {
	return getAdminConfig(ctx, s.pool, false)
}

func (s *PgStore) GetVault(ctx context.Context, address Identity) (*Vault, error) {
	return getVault(ctx, s.pool, address, false)
}

func (s *PgStore) ListVaults(ctx context.Context, limit, offset int) ([]Vault, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vaults`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vaults: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT address, idea_id, vault_seed, bump, mint, custody_account,
		       total_deposited, created_at, updated_at
		FROM vaults
		ORDER BY created_at DESC, address
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vaults: %w", err)
	}
	defer rows.Close()

	vaults := []Vault{}
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, 0, err
		}
		vaults = append(vaults, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read vault rows: %w", err)
	}
	return vaults, total, nil
}

func (s *PgStore) GetUserDeposit(ctx context.Context, vaultAddr, user Identity) (*UserDeposit, error) {
	return getUserDeposit(ctx, s.pool, vaultAddr, user, false)
}

func (s *PgStore) ListEvents(ctx context.Context, vaultAddr Identity, limit int) ([]Event, error) {
	query := `
		SELECT id, kind, COALESCE(vault_address, ''), payload, created_at
		FROM events
	`
	args := []any{}
	if vaultAddr != "" {
		query += ` WHERE vault_address = $1`
		args = append(args, string(vaultAddr))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var vault string
		if err := rows.Scan(&e.ID, &e.Kind, &vault, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Vault = Identity(vault)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event rows: %w", err)
	}
	return events, nil
}

// pgTx implements Tx over an open pgx transaction.
type pgTx struct {
	q pgx.Tx
}

func (t *pgTx) GetAdminConfig(ctx context.Context) (*AdminConfig, error) {
	return getAdminConfig(ctx, t.q, false)
}

func (t *pgTx) GetAdminConfigForUpdate(ctx context.Context) (*AdminConfig, error) {
	return getAdminConfig(ctx, t.q, true)
}

func (t *pgTx) InsertAdminConfig(ctx context.Context, cfg *AdminConfig) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO admin_config (id, admin, is_paused, bump, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
	`, string(cfg.Admin), cfg.IsPaused, int16(cfg.Bump), cfg.CreatedAt, cfg.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to insert admin config: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateAdminConfig(ctx context.Context, cfg *AdminConfig) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE admin_config SET admin = $1, is_paused = $2, updated_at = $3 WHERE id = 1
	`, string(cfg.Admin), cfg.IsPaused, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update admin config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInitialized
	}
	return nil
}

func (t *pgTx) GetVaultForUpdate(ctx context.Context, address Identity) (*Vault, error) {
	return getVault(ctx, t.q, address, true)
}

func (t *pgTx) InsertVault(ctx context.Context, v *Vault) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO vaults (address, idea_id, vault_seed, bump, mint, custody_account,
		                    total_deposited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, string(v.Address), v.IdeaID, v.Seed[:], int16(v.Bump), string(v.Mint),
		string(v.CustodyAccount), int64(v.TotalDeposited), v.CreatedAt, v.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrVaultExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert vault: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateVaultTotal(ctx context.Context, address Identity, total uint64) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE vaults SET total_deposited = $1, updated_at = now() WHERE address = $2
	`, int64(total), string(address))
	if err != nil {
		return fmt.Errorf("failed to update vault total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVaultNotFound
	}
	return nil
}

func (t *pgTx) GetUserDepositForUpdate(ctx context.Context, vaultAddr, user Identity) (*UserDeposit, error) {
	return getUserDeposit(ctx, t.q, vaultAddr, user, true)
}

func (t *pgTx) UpsertUserDeposit(ctx context.Context, d *UserDeposit) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO user_deposits (vault_address, user_address, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vault_address, user_address)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`, string(d.Vault), string(d.User), int64(d.Amount), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user deposit: %w", err)
	}
	return nil
}

func (t *pgTx) InsertEvent(ctx context.Context, e *Event) error {
	var vault *string
	if e.Vault != "" {
		s := string(e.Vault)
		vault = &s
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO events (id, kind, vault_address, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Kind, vault, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func getAdminConfig(ctx context.Context, q querier, forUpdate bool) (*AdminConfig, error) {
	query := `SELECT admin, is_paused, bump, created_at, updated_at FROM admin_config WHERE id = 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var cfg AdminConfig
	var admin string
	var bump int16
	err := q.QueryRow(ctx, query).Scan(&admin, &cfg.IsPaused, &bump, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin config: %w", err)
	}
	cfg.Admin = Identity(admin)
	cfg.Bump = uint8(bump)
	return &cfg, nil
}

func getVault(ctx context.Context, q querier, address Identity, forUpdate bool) (*Vault, error) {
	query := `
		SELECT address, idea_id, vault_seed, bump, mint, custody_account,
		       total_deposited, created_at, updated_at
		FROM vaults WHERE address = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	v, err := scanVault(q.QueryRow(ctx, query, string(address)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVaultNotFound
	}
	return v, err
}

func getUserDeposit(ctx context.Context, q querier, vaultAddr, user Identity, forUpdate bool) (*UserDeposit, error) {
	query := `
		SELECT vault_address, user_address, amount, created_at, updated_at
		FROM user_deposits WHERE vault_address = $1 AND user_address = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var d UserDeposit
	var vault, userAddr string
	var amount int64
	err := q.QueryRow(ctx, query, string(vaultAddr), string(user)).
		Scan(&vault, &userAddr, &amount, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user deposit: %w", err)
	}
	d.Vault = Identity(vault)
	d.User = Identity(userAddr)
	d.Amount = uint64(amount)
	return &d, nil
}

func scanVault(row pgx.Row) (*Vault, error) {
	var v Vault
	var address, mint, custody string
	var seed []byte
	var bump int16
	var total int64
	err := row.Scan(&address, &v.IdeaID, &seed, &bump, &mint, &custody,
		&total, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}
	if len(seed) != len(v.Seed) {
		return nil, fmt.Errorf("vault %s has malformed seed (%d bytes)", address, len(seed))
	}
	copy(v.Seed[:], seed)
	v.Address = Identity(address)
	v.SeedHex = v.Seed.Hex()
	v.Mint = Identity(mint)
	v.CustodyAccount = Identity(custody)
	v.TotalDeposited = uint64(total)
	v.Bump = uint8(bump)
	return &v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
