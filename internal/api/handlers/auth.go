package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/audit"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler handles registration and login endpoints.
type AuthHandler struct {
	service           *accounts.Service
	logger            zerolog.Logger
	auditLogger       *audit.Logger
	env               string
	trustedProxyCIDRs []string
}

func NewAuthHandler(service *accounts.Service, logger zerolog.Logger, auditLogger *audit.Logger, env string, trustedProxyCIDRs []string) *AuthHandler {
	return &AuthHandler{
		service:           service,
		logger:            logger.With().Str("handler", "auth").Logger(),
		auditLogger:       auditLogger,
		env:               env,
		trustedProxyCIDRs: trustedProxyCIDRs,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token         string                 `json:"token"`
	SecurityAlert bool                   `json:"security_alert"`
	User          accounts.PublicAccount `json:"user"`
}

type alertPreferenceRequest struct {
	AlertOnNewDevice bool `json:"alert_on_new_device"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.env)
		return
	}

	account, err := h.service.Register(r.Context(), accounts.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email is already registered", nil, h.env)
		case isValidationError(err):
			writeValidationProblem(w, r, err, h.env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
		}
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSuccess("auth.register", account.Email, middleware.ClientIP(r, h.trustedProxyCIDRs), nil)
	}
	writeJSON(w, http.StatusCreated, account.Public(), h.logger)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.env)
		return
	}

	clientIP := middleware.ClientIP(r, h.trustedProxyCIDRs)
	result, err := h.service.Login(r.Context(), accounts.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		IP:        clientIP,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrAccountNotFound):
			h.auditLoginFailure(req.Email, clientIP, "unknown_email")
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Account not found", nil, h.env)
		case errors.Is(err, accounts.ErrInvalidCredentials):
			h.auditLoginFailure(req.Email, clientIP, "invalid_credentials")
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", nil, h.env)
		case isValidationError(err):
			writeValidationProblem(w, r, err, h.env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
		}
		return
	}

	if h.auditLogger != nil {
		h.auditLogger.LogSuccess("auth.login", result.Account.Email, clientIP, map[string]string{
			"security_alert": strconv.FormatBool(result.SecurityAlert),
		})
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:         result.Token,
		SecurityAlert: result.SecurityAlert,
		User:          result.Account,
	}, h.logger)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), middleware.AccountID(r))
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Account not found", nil, h.env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, account.Public(), h.logger)
}

// SetAlertPreference handles PUT /api/v1/auth/alerts
func (h *AuthHandler) SetAlertPreference(w http.ResponseWriter, r *http.Request) {
	var req alertPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.env)
		return
	}

	if err := h.service.SetAlertPreference(r.Context(), middleware.AccountID(r), req.AlertOnNewDevice); err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Account not found", nil, h.env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.env)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) auditLoginFailure(email, clientIP, reason string) {
	if h.auditLogger == nil {
		return
	}
	h.auditLogger.LogFailure("auth.login", email, clientIP, map[string]string{"reason": reason})
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func writeValidationProblem(w http.ResponseWriter, r *http.Request, err error, env string) {
	fields := map[string]interface{}{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Validation failed", err, env, problem.WithErrors(fields))
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
