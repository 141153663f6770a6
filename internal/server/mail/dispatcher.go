package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Kind names the email template.
type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindPasswordReset Kind = "password-reset"
)

var (
	ErrInvalidRecipient = common.Validation("INVALID_EMAIL_FORMAT")
	ErrMissingFields    = common.Validation("EMAIL_MISSING_REQUIRED_FIELDS")
)

// Recipient is the user an account email is addressed to.
type Recipient struct {
	Email string
	Name  string
	Token string
}

func (r Recipient) validate() error {
	if err := validation.Validate(r.Email, validation.Required, is.Email); err != nil {
		return ErrInvalidRecipient
	}
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Token) == "" {
		return ErrMissingFields
	}
	return nil
}

// DispatcherConfig tunes delivery. Zero values fall back to 3 attempts, a
// one second base delay and a 30 second budget per async send.
type DispatcherConfig struct {
	FrontendURL  string
	Environment  string
	MaxAttempts  int
	BaseDelay    time.Duration
	AsyncTimeout time.Duration
}

// Dispatcher renders account emails and hands them to a Sender with retry
// and exponential backoff.
type Dispatcher struct {
	sender Sender
	log    logging.Logger
	cfg    DispatcherConfig
	sleep  func(ctx context.Context, d time.Duration) error
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, log logging.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.AsyncTimeout <= 0 {
		cfg.AsyncTimeout = 30 * time.Second
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &Dispatcher{sender: sender, log: log, cfg: cfg, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Send validates r, builds the message for kind and delivers it. Exhausted
// retries yield common.ErrEmailSendFailed.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, r Recipient) error {
	if err := r.validate(); err != nil {
		d.log.Warn(ctx, "email rejected", "type", kind, "error", err)
		return err
	}

	msg, err := d.build(kind, r)
	if err != nil {
		return common.Wrap(err, common.KindInternal, common.ErrEmailSendFailed.Code)
	}

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		id, err := d.sender.Send(ctx, msg)
		if err == nil {
			d.log.Info(ctx, "email sent", "type", kind, "to", r.Email, "message_id", id, "attempt", attempt)
			return nil
		}
		lastErr = err
		d.log.Warn(ctx, "email attempt failed", "type", kind, "to", r.Email, "attempt", attempt, "max", d.cfg.MaxAttempts, "error", err)

		if attempt == d.cfg.MaxAttempts {
			break
		}
		delay := d.cfg.BaseDelay * time.Duration(1<<(attempt-1))
		if err := d.sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	return common.Wrap(fmt.Errorf("send %s email to %s: %w", kind, r.Email, lastErr),
		common.KindInternal, common.ErrEmailSendFailed.Code)
}

// SendAsync delivers in the background, detached from ctx cancellation but
// keeping its values (request id) for logging. Failures are only logged.
func (d *Dispatcher) SendAsync(ctx context.Context, kind Kind, r Recipient) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.AsyncTimeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.Send(bg, kind, r); err != nil {
			d.log.Error(bg, "background email failed", "type", kind, "to", r.Email, "error", err)
		}
	}()
}

// Wait blocks until background sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) build(kind Kind, r Recipient) (Message, error) {
	env := d.cfg.Environment
	if env == "" {
		env = "development"
	}
	msg := Message{
		To:   r.Email,
		Tags: map[string]string{"type": string(kind), "environment": env},
	}

	switch kind {
	case KindConfirmation:
		data := templateData{Name: r.Name, Token: r.Token, URL: d.cfg.FrontendURL + "/auth/confirm-account"}
		html, err := render(confirmationHTML, data)
		if err != nil {
			return Message{}, err
		}
		msg.Subject = "UpTask - Confirm your account"
		msg.HTML = html
		msg.Text = plainText("Use this code to confirm your account:", data)
	case KindPasswordReset:
		data := templateData{Name: r.Name, Token: r.Token, URL: d.cfg.FrontendURL + "/auth/new-password"}
		html, err := render(resetHTML, data)
		if err != nil {
			return Message{}, err
		}
		msg.Subject = "UpTask - Reset your password"
		msg.HTML = html
		msg.Text = plainText("Use this code to reset your password:", data)
	default:
		return Message{}, fmt.Errorf("unknown email kind %q", kind)
	}
	return msg, nil
}
