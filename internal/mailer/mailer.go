// Package mailer defines the notification collaborator used to tell a
// request's subscribers that their data is ready, and a console-backed
// implementation suitable for local runs and tests.
package mailer

import (
	"fmt"

	"github.com/cernopendata/coldstorage/internal/logging"
)

// Mailer sends a single notification email. Implementations live
// outside this module in the host repository; this package ships a
// trivial console-logging implementation for standalone operation.
type Mailer interface {
	Send(subject, body string, recipients []string) error
}

// ConsoleMailer logs the notification instead of sending it, used when
// no mail transport is configured.
type ConsoleMailer struct {
	log *logging.Logger
}

// NewConsoleMailer creates a ConsoleMailer that logs through log.
func NewConsoleMailer(log *logging.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log}
}

// Send logs the would-be notification and always succeeds.
func (m *ConsoleMailer) Send(subject, body string, recipients []string) error {
	if m.log != nil {
		m.log.Info().Strs("recipients", recipients).Str("subject", subject).Msg("notification")
	}
	return nil
}

// NotifyRequestCompleted sends each subscriber the standard completion
// notice, collecting (not stopping on) per-recipient failures, since a
// notification failure must never roll back a completed Request.
func NotifyRequestCompleted(m Mailer, requestID string, subscribers []string) []error {
	if len(subscribers) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Transfer %s completed", requestID)
	body := fmt.Sprintf("Hello,\n\nYour transfer with ID %s has been completed successfully.\n\nBest regards.", requestID)

	var errs []error
	for _, recipient := range subscribers {
		if err := m.Send(subject, body, []string{recipient}); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient, err))
		}
	}
	return errs
}
