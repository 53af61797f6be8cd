package accounts

import (
	"context"

	"github.com/google/uuid"
)

// CreateAccountDBParams contains the persisted fields for a new account.
// Recent-IP and recent-device lists start empty and the alert preference
// defaults to enabled; the repository owns those defaults.
type CreateAccountDBParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// Repository is the persistence collaborator for accounts. Lookups by
// email are case-insensitive and include the password hash; callers are
// responsible for not leaking it.
type Repository interface {
	CreateAccount(ctx context.Context, params CreateAccountDBParams) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	UpdateLoginHistory(ctx context.Context, id uuid.UUID, update HistoryUpdate) error
	SetAlertPreference(ctx context.Context, id uuid.UUID, enabled bool) error
}
