package service

import (
	"fmt"
	"net/http"

	"github.com/lshigami/Markhor/config"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// DeliveryChannel is the opaque transport a notification attempt goes
// out on. A failed send (error or non-2xx) is retryable.
type DeliveryChannel interface {
	Send(recipientName, recipientEmail, subject, message string) error
}

type sendgridChannel struct {
	key  string
	from *sgmail.Email
}

func NewSendgridChannel(cfg *config.Config) DeliveryChannel {
	if cfg.Sendgrid.ApiKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY is not set. Falling back to console notification channel.")
		return NewConsoleChannel()
	}
	return &sendgridChannel{
		key:  cfg.Sendgrid.ApiKey,
		from: sgmail.NewEmail(cfg.Sendgrid.FromName, cfg.Sendgrid.FromEmail),
	}
}

func (c *sendgridChannel) Send(recipientName, recipientEmail, subject, message string) error {
	to := sgmail.NewEmail(recipientName, recipientEmail)
	mail := sgmail.NewSingleEmail(c.from, subject, to, message, message)

	resp, err := sendgrid.NewSendClient(c.key).Send(mail)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// consoleChannel logs messages instead of delivering them. Used in
// development and when no mail credentials are configured.
type consoleChannel struct{}

func NewConsoleChannel() DeliveryChannel {
	return &consoleChannel{}
}

func (c *consoleChannel) Send(recipientName, recipientEmail, subject, message string) error {
	log.Info().
		Str("to", recipientEmail).
		Str("subject", subject).
		Str("message", message).
		Msg("console notification")
	return nil
}
