package notifications

import (
	"context"

	"villagestay/pkg/config"
	"villagestay/pkg/logger"
)

// NewSender picks Mailjet when credentials are configured, the log sender otherwise.
func NewSender(cfg *config.Config, log *logger.Logger) Sender {
	if cfg.MailerConfigured() {
		return NewMailjetSender(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.EmailFrom, cfg.EmailFromName)
	}
	log.Warn("Mailjet credentials not set, emails will only be logged")
	return NewLogSender(log)
}

// Noop discards events. Tests and tools that do not notify use it.
type Noop struct{}

func (Noop) Submit(context.Context, ...Event) int { return 0 }
