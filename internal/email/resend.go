package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// resendSender is the slice of the Resend client we use; narrowed so
// tests can stub the provider without network access.
type resendSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

func newResendClient(apiKey string) resendSender {
	return resend.NewClient(apiKey).Emails
}

// sendViaResend sends an email using the Resend API. Rate limit errors
// are reported without retrying; retry policy belongs to the caller.
func (s *Service) sendViaResend(ctx context.Context, to, subject, htmlBody string) error {
	if s.resendClient == nil {
		return fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.resendClient.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (limit: %s, resets in: %s seconds): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Debug().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent via Resend")
	return nil
}
