package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ accounts.Repository = (*AccountRepository)(nil)

const uniqueViolation = "23505"

type accountRow struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     string
	LastLoginIP      *string
	RecentIPs        []string
	RecentDevices    []string
	AlertOnNewDevice bool
	CreatedAt        pgtype.Timestamptz
}

const accountColumns = `id, name, email, password_hash, last_login_ip, recent_ips, recent_devices, alert_on_new_device, created_at`

func (r *AccountRepository) CreateAccount(ctx context.Context, params accounts.CreateAccountDBParams) (*accounts.Account, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO accounts (name, email, password_hash)
VALUES ($1, lower($2), $3)
RETURNING `+accountColumns+`
`, params.Name, params.Email, params.PasswordHash)

	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, accounts.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+accountColumns+`
  FROM accounts
 WHERE email = lower($1)
 LIMIT 1
`, email)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+accountColumns+`
  FROM accounts
 WHERE id = $1
 LIMIT 1
`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, accounts.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) UpdateLoginHistory(ctx context.Context, id uuid.UUID, update accounts.HistoryUpdate) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `
UPDATE accounts
   SET last_login_ip = $2,
       recent_ips = $3,
       recent_devices = $4
 WHERE id = $1
`, id, update.LastLoginIP, update.RecentIPs, update.RecentDevices)
	if err != nil {
		return fmt.Errorf("update login history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) SetAlertPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `
UPDATE accounts SET alert_on_new_device = $2 WHERE id = $1
`, id, enabled)
	if err != nil {
		return fmt.Errorf("set alert preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return accounts.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*accounts.Account, error) {
	var data accountRow
	if err := row.Scan(
		&data.ID,
		&data.Name,
		&data.Email,
		&data.PasswordHash,
		&data.LastLoginIP,
		&data.RecentIPs,
		&data.RecentDevices,
		&data.AlertOnNewDevice,
		&data.CreatedAt,
	); err != nil {
		return nil, err
	}

	account := &accounts.Account{
		ID:               data.ID,
		Name:             data.Name,
		Email:            data.Email,
		PasswordHash:     data.PasswordHash,
		RecentIPs:        data.RecentIPs,
		RecentDevices:    data.RecentDevices,
		AlertOnNewDevice: data.AlertOnNewDevice,
	}
	if data.LastLoginIP != nil {
		account.LastLoginIP = *data.LastLoginIP
	}
	if data.CreatedAt.Valid {
		account.CreatedAt = data.CreatedAt.Time
	}
	return account, nil
}
