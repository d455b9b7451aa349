// Package notify delivers patient-facing messages. The production SMS
// provider sits behind the Notifier interface; the default implementation
// only logs, which keeps development and test runs side-effect free.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

type Notifier interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// LogNotifier writes the message to the log instead of sending it.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) SendSMS(_ context.Context, phone, message string) error {
	n.Log.Info().Str("phone", phone).Str("message", message).Msg("sms (log only)")
	return nil
}
