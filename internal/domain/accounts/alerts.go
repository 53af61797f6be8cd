package accounts

import (
	"context"
	"time"

	"github.com/gatherpoint/server/internal/metrics"
	"github.com/rs/zerolog"
)

// AlertSender is the slice of the mail collaborator the dispatcher
// needs. internal/email.Service satisfies it.
type AlertSender interface {
	SendLoginAlert(ctx context.Context, to, name, ip, device string, at time.Time) error
}

// AlertDispatcher decides whether a login warrants a security
// notification and fires a single best-effort attempt. Dispatch failure
// never propagates: the login proceeds and the response reports the
// alert as not sent.
type AlertDispatcher struct {
	sender  AlertSender
	timeout time.Duration
	logger  zerolog.Logger
}

func NewAlertDispatcher(sender AlertSender, timeout time.Duration, logger zerolog.Logger) *AlertDispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AlertDispatcher{
		sender:  sender,
		timeout: timeout,
		logger:  logger.With().Str("component", "alerts").Logger(),
	}
}

// MaybeAlert attempts a notification iff the classification is novel
// and the account has alerts enabled. Exactly one attempt, bounded by
// the dispatch timeout so a slow transport cannot stall the login.
func (d *AlertDispatcher) MaybeAlert(ctx context.Context, account *Account, cls Classification, ip, device string) bool {
	if d == nil || d.sender == nil {
		return false
	}
	if !cls.Novel() || !account.AlertOnNewDevice {
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.SendLoginAlert(sendCtx, account.Email, account.Name, ip, device, time.Now()); err != nil {
		d.logger.Warn().
			Err(err).
			Str("account_id", account.ID.String()).
			Str("ip", ip).
			Msg("security alert dispatch failed")
		metrics.SecurityAlerts.WithLabelValues("failed").Inc()
		return false
	}

	metrics.SecurityAlerts.WithLabelValues("sent").Inc()
	return true
}
