package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is the domain model for a registered account. PasswordHash
// is populated only on lookups that feed credential verification and
// must never leave the accounts package in a response payload.
type Account struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     string
	LastLoginIP      string
	RecentIPs        []string
	RecentDevices    []string
	AlertOnNewDevice bool
	CreatedAt        time.Time
}

// Public returns the externally visible identity fields.
func (a *Account) Public() PublicAccount {
	return PublicAccount{ID: a.ID, Name: a.Name, Email: a.Email}
}

// PublicAccount is the identity shape returned by the HTTP boundary.
type PublicAccount struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// RegisterParams contains parameters for creating a new account.
type RegisterParams struct {
	Name     string `validate:"required,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
}

// LoginParams contains credentials plus the request origin used for
// anomaly detection. IP may be empty (recorded as-is, never dropped).
type LoginParams struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required"`
	IP        string
	UserAgent string
}

// LoginResult is the response contract for a successful login.
type LoginResult struct {
	Token         string
	SecurityAlert bool
	Account       PublicAccount
}
