package service

import (
	"bitwise74/file-share-api/config"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrSelfAddressed = errors.New("refusing to send mail to the sender address")

// Mailer sends verification codes over SMTP
type Mailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
}

func NewMailer(c *config.MailConfig) *Mailer {
	return &Mailer{
		cfg:    c,
		dialer: gomail.NewDialer(c.Host, c.Port, c.Sender, c.Password),
	}
}

// SendCode delivers code to the given address. gomail has no notion of a
// context so the send runs in its own goroutine and SendCode gives up once ctx
// or the configured mail timeout is done, whichever comes first.
func (m *Mailer) SendCode(ctx context.Context, to, code string, validFor time.Duration) error {
	if to == m.cfg.Sender {
		return ErrSelfAddressed
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your verification code")
	msg.SetBody("text/plain", fmt.Sprintf("Your verification code is %s\n\nIt expires in %d minutes. If you didn't sign up you can ignore this email.",
		code, int(validFor.Minutes())))

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail, %w", err)
		}

		zap.L().Debug("Verification mail sent", zap.String("to", to))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail delivery aborted, %w", ctx.Err())
	}
}
