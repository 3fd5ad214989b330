// Package mail delivers outbound HTML email through a configurable provider.
package mail

import (
	"context"
	"fmt"
	"log/slog"
)

// Gateway submits one message for delivery. A nil error means the provider
// accepted the message, not that it reached the inbox.
type Gateway interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config selects and configures a provider
type Config struct {
	Provider     string // "ses" | "smtp" | "log"
	FromAddress  string
	AWSRegion    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPTLSMode  string
}

// New builds the Gateway for cfg.Provider
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "ses":
		return NewSESGateway(ctx, cfg.AWSRegion, cfg.FromAddress, logger)
	case "smtp":
		return NewSMTPGateway(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromAddress, cfg.SMTPTLSMode, logger), nil
	case "log", "":
		return NewLogGateway(logger), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.Provider)
	}
}
