package mail

import (
	"context"
	"log/slog"

	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

// LogGateway writes messages to the log instead of delivering them.
// Intended for local development.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	g.logger.InfoContext(ctx, "email not delivered, log provider active",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(htmlBody)))
	return nil
}
