// Package accounts implements registration, login, and the login
// security subsystem: credential verification, per-account IP/device
// history classification, and conditional alerting.
//
// Core operations:
//   - Register: Creates an account with a bcrypt-hashed password
//   - Login: Verifies credentials, classifies the request origin
//     against recent history, dispatches a best-effort security alert,
//     records the updated history, and mints a session token
//
// Passwords use bcrypt with cost factor 12. History lists are bounded
// to the 5 most recent distinct entries per account.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service orchestrates the authentication flow. Each request is
// independent; the repository is the single source of truth for
// account history, and two concurrent logins for the same account
// race last-writer-wins on the persisted lists.
type Service struct {
	repo      Repository
	tokens    *auth.JWTManager
	alerts    *AlertDispatcher
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, tokens *auth.JWTManager, alerts *AlertDispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		alerts:    alerts,
		logger:    logger.With().Str("component", "accounts").Logger(),
		validator: validator.New(),
	}
}

// Register creates a new account. The password is hashed before
// anything is persisted; duplicate email (case-insensitive) returns
// ErrEmailTaken with no account created.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Account, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}

	email := normalizeEmail(params.Email)

	existing, err := s.repo.GetAccountByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.repo.CreateAccount(ctx, CreateAccountDBParams{
		Name:         strings.TrimSpace(params.Name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.Registrations.Inc()
	s.logger.Info().
		Str("account_id", account.ID.String()).
		Msg("account registered")

	return account, nil
}

// Login verifies credentials and runs the login security pipeline.
// The origin is classified against the pre-update history lists and
// the alert decision is made strictly before the lists are mutated,
// so the current login cannot suppress its own alert.
func (s *Service) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}

	account, err := s.repo.GetAccountByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			metrics.Logins.WithLabelValues("unknown_email").Inc()
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !auth.VerifyPassword(params.Password, account.PasswordHash) {
		metrics.Logins.WithLabelValues("bad_password").Inc()
		s.logger.Warn().
			Str("account_id", account.ID.String()).
			Msg("login failed: password mismatch")
		return nil, ErrInvalidCredentials
	}

	device := auth.FingerprintDevice(params.UserAgent)
	classification := Classify(account, params.IP, device)
	alerted := s.alerts.MaybeAlert(ctx, account, classification, params.IP, device)

	update := RecordLogin(account, params.IP, device)
	if err := s.repo.UpdateLoginHistory(ctx, account.ID, update); err != nil {
		return nil, fmt.Errorf("update login history: %w", err)
	}

	token, err := s.tokens.Issue(account.ID.String())
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	metrics.Logins.WithLabelValues("success").Inc()
	s.logger.Info().
		Str("account_id", account.ID.String()).
		Bool("new_ip", classification.NewIP).
		Bool("new_device", classification.NewDevice).
		Bool("alerted", alerted).
		Msg("login succeeded")

	return &LoginResult{
		Token:         token,
		SecurityAlert: alerted,
		Account:       account.Public(),
	}, nil
}

// Get retrieves an account by id, typically for the authorization
// boundary after token verification.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	accountID, err := parseAccountID(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// SetAlertPreference toggles the alert-on-new-device notification flag.
func (s *Service) SetAlertPreference(ctx context.Context, id string, enabled bool) error {
	accountID, err := parseAccountID(id)
	if err != nil {
		return ErrAccountNotFound
	}
	if err := s.repo.SetAlertPreference(ctx, accountID, enabled); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("set alert preference: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseAccountID(id string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(id))
}
