package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherpoint/server/internal/audit"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockAccountRepository is a mock implementation of accounts.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, params accounts.CreateAccountDBParams) (*accounts.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateLoginHistory(ctx context.Context, id uuid.UUID, update accounts.HistoryUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockAccountRepository) SetAlertPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func newAuthHandler(repo accounts.Repository) *AuthHandler {
	logger := zerolog.Nop()
	tokens := auth.NewJWTManager("handler-test-secret", time.Hour, "gatherpoint-test")
	dispatcher := accounts.NewAlertDispatcher(nil, time.Second, logger)
	service := accounts.NewService(repo, tokens, dispatcher, logger)
	return NewAuthHandler(service, logger, audit.NewLogger(logger), "test", nil)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestRegister(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name           string
		requestBody    registerRequest
		mockSetup      func(*MockAccountRepository)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful registration",
			requestBody: registerRequest{
				Name:     "Ada Lovelace",
				Email:    "ada@example.com",
				Password: "correct-horse-battery",
			},
			mockSetup: func(m *MockAccountRepository) {
				m.On("GetAccountByEmail", mock.Anything, "ada@example.com").
					Return(nil, accounts.ErrAccountNotFound)
				m.On("CreateAccount", mock.Anything, mock.Anything).
					Return(&accounts.Account{ID: accountID, Name: "Ada Lovelace", Email: "ada@example.com"}, nil)
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp accounts.PublicAccount
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, accountID, resp.ID)
				assert.Equal(t, "ada@example.com", resp.Email)
				assert.NotContains(t, rec.Body.String(), "password")
			},
		},
		{
			name: "duplicate email",
			requestBody: registerRequest{
				Name:     "Ada Lovelace",
				Email:    "ada@example.com",
				Password: "correct-horse-battery",
			},
			mockSetup: func(m *MockAccountRepository) {
				m.On("GetAccountByEmail", mock.Anything, "ada@example.com").
					Return(&accounts.Account{ID: accountID, Email: "ada@example.com"}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "password too short",
			requestBody: registerRequest{
				Name:     "Ada Lovelace",
				Email:    "ada@example.com",
				Password: "short",
			},
			mockSetup:      func(m *MockAccountRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			requestBody: registerRequest{
				Name:     "Ada Lovelace",
				Email:    "not-an-email",
				Password: "correct-horse-battery",
			},
			mockSetup:      func(m *MockAccountRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			tt.mockSetup(repo)
			handler := newAuthHandler(repo)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	accountID := uuid.New()

	stored := func(t *testing.T) *accounts.Account {
		return &accounts.Account{
			ID:               accountID,
			Name:             "Ada Lovelace",
			Email:            "ada@example.com",
			PasswordHash:     mustHash(t, "correct-horse-battery"),
			RecentIPs:        []string{"192.0.2.1"},
			RecentDevices:    []string{auth.FingerprintDevice("known-agent/1.0")},
			AlertOnNewDevice: true,
		}
	}

	tests := []struct {
		name           string
		requestBody    loginRequest
		userAgent      string
		mockSetup      func(*testing.T, *MockAccountRepository)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful login from known origin",
			requestBody: loginRequest{
				Email:    "ada@example.com",
				Password: "correct-horse-battery",
			},
			userAgent: "known-agent/1.0",
			mockSetup: func(t *testing.T, m *MockAccountRepository) {
				m.On("GetAccountByEmail", mock.Anything, "ada@example.com").Return(stored(t), nil)
				m.On("UpdateLoginHistory", mock.Anything, accountID, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp loginResponse
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Token)
				assert.False(t, resp.SecurityAlert)
				assert.Equal(t, "ada@example.com", resp.User.Email)
			},
		},
		{
			name: "wrong password",
			requestBody: loginRequest{
				Email:    "ada@example.com",
				Password: "wrong-password-here",
			},
			userAgent: "known-agent/1.0",
			mockSetup: func(t *testing.T, m *MockAccountRepository) {
				m.On("GetAccountByEmail", mock.Anything, "ada@example.com").Return(stored(t), nil)
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "Invalid credentials")
			},
		},
		{
			name: "unknown email",
			requestBody: loginRequest{
				Email:    "nobody@example.com",
				Password: "correct-horse-battery",
			},
			mockSetup: func(t *testing.T, m *MockAccountRepository) {
				m.On("GetAccountByEmail", mock.Anything, "nobody@example.com").
					Return(nil, accounts.ErrAccountNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "missing password",
			requestBody: loginRequest{
				Email: "ada@example.com",
			},
			mockSetup:      func(t *testing.T, m *MockAccountRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			tt.mockSetup(t, repo)
			handler := newAuthHandler(repo)

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLoginDoesNotLeakHash(t *testing.T) {
	accountID := uuid.New()
	repo := new(MockAccountRepository)
	hash := mustHash(t, "correct-horse-battery")
	repo.On("GetAccountByEmail", mock.Anything, "ada@example.com").Return(&accounts.Account{
		ID:           accountID,
		Email:        "ada@example.com",
		PasswordHash: hash,
	}, nil)
	repo.On("UpdateLoginHistory", mock.Anything, accountID, mock.Anything).Return(nil)

	handler := newAuthHandler(repo)

	body, _ := json.Marshal(loginRequest{Email: "ada@example.com", Password: "correct-horse-battery"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), hash)
}
