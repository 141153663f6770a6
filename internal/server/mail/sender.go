// Package mail builds and delivers account emails (confirmation codes and
// password reset codes).
package mail

import (
	"context"

	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/google/uuid"
)

// Message is a provider-neutral email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string
}

// Sender delivers a single message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender writes messages to the log instead of delivering them.
// Used in development so confirmation codes can be read from the console.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	s.log.Info(ctx, "email (not delivered)",
		"message_id", id,
		"to", msg.To,
		"subject", msg.Subject,
		"type", msg.Tags["type"],
		"body", msg.Text,
	)
	return id, nil
}
