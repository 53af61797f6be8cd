package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/gatherpoint/server/internal/config"
	"github.com/rs/zerolog"
)

// LoginAlertData holds data for rendering the security alert email.
type LoginAlertData struct {
	Name   string
	IP     string
	Device string
	Date   string
}

// Service sends transactional email through the Resend API. When email
// is disabled in config it logs the would-be send and reports success,
// which keeps development environments free of provider credentials.
type Service struct {
	config       config.EmailConfig
	resendClient resendSender
	templates    *template.Template
	logger       zerolog.Logger
}

var loginAlertTemplate = template.Must(template.New("login_alert").Parse(`<html>
<body>
<p>Hi {{.Name}},</p>
<p>We noticed a sign-in to your Gatherpoint account from a new location or device:</p>
<ul>
<li>IP address: {{.IP}}</li>
<li>Device: {{.Device}}</li>
<li>Date: {{.Date}}</li>
</ul>
<p>If this was you, no action is needed. If you don't recognize this activity,
change your password right away.</p>
</body>
</html>`))

func NewService(cfg config.EmailConfig, logger zerolog.Logger) *Service {
	s := &Service{
		config:    cfg,
		templates: loginAlertTemplate,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		s.resendClient = newResendClient(cfg.ResendAPIKey)
	}
	return s
}

// SendLoginAlert sends a security notification about a login from an
// unrecognized IP or device.
func (s *Service) SendLoginAlert(ctx context.Context, to, name, ip, device string, at time.Time) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("ip", ip).
			Msg("email service disabled, skipping login alert")
		return nil
	}

	data := LoginAlertData{
		Name:   name,
		IP:     ip,
		Device: device,
		Date:   at.UTC().Format(time.RFC1123),
	}
	htmlBody, err := s.renderTemplate("login_alert", data)
	if err != nil {
		return fmt.Errorf("render login alert template: %w", err)
	}

	subject := "New sign-in to your Gatherpoint account"
	if err := s.sendViaResend(ctx, to, subject, htmlBody); err != nil {
		return fmt.Errorf("send login alert: %w", err)
	}

	s.logger.Info().
		Str("to", to).
		Str("ip", ip).
		Msg("login alert sent")
	return nil
}

// validateEmailAddress validates format and rejects header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
