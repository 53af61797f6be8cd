package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatherpoint/server/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type stubResend struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (s *stubResend) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	s.sent = append(s.sent, params)
	if s.err != nil {
		return nil, s.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestSendLoginAlertDisabled(t *testing.T) {
	svc := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())

	err := svc.SendLoginAlert(context.Background(), "a@x.com", "A", "203.0.113.7", "unknown", time.Now())
	if err != nil {
		t.Fatalf("expected disabled service to report success, got %v", err)
	}
}

func TestSendLoginAlertInvalidRecipient(t *testing.T) {
	svc := NewService(config.EmailConfig{Enabled: false}, zerolog.Nop())

	if err := svc.SendLoginAlert(context.Background(), "not-an-email", "A", "203.0.113.7", "unknown", time.Now()); err == nil {
		t.Fatal("expected error for malformed recipient address")
	}
}

func TestSendLoginAlertViaResend(t *testing.T) {
	stub := &stubResend{}
	svc := NewService(config.EmailConfig{Enabled: true, From: "alerts@gatherpoint.dev", ResendAPIKey: "re_test"}, zerolog.Nop())
	svc.resendClient = stub

	err := svc.SendLoginAlert(context.Background(), "a@x.com", "A", "203.0.113.7", "fp-1", time.Now())
	if err != nil {
		t.Fatalf("send login alert: %v", err)
	}
	if len(stub.sent) != 1 {
		t.Fatalf("expected one provider call, got %d", len(stub.sent))
	}
	if stub.sent[0].To[0] != "a@x.com" {
		t.Fatalf("unexpected recipient: %v", stub.sent[0].To)
	}
}

func TestSendLoginAlertProviderFailure(t *testing.T) {
	stub := &stubResend{err: errors.New("transport down")}
	svc := NewService(config.EmailConfig{Enabled: true, From: "alerts@gatherpoint.dev", ResendAPIKey: "re_test"}, zerolog.Nop())
	svc.resendClient = stub

	if err := svc.SendLoginAlert(context.Background(), "a@x.com", "A", "203.0.113.7", "fp-1", time.Now()); err == nil {
		t.Fatal("expected provider failure to surface as error")
	}
}
