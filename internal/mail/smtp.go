package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	gomail "github.com/go-mail/mail"

	pkglogger "github.com/BradenHooton/dscatalog/pkg/logger"
)

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPGateway sends email through an SMTP relay
type SMTPGateway struct {
	sender      smtpSender
	host        string
	fromAddress string
	logger      *slog.Logger
}

// NewSMTPGateway configures a dialer. tlsMode is "auto" (STARTTLS when offered),
// "ssl" (implicit TLS) or "none".
func NewSMTPGateway(host string, port int, user, password, fromAddress, tlsMode string, logger *slog.Logger) *SMTPGateway {
	d := gomail.NewDialer(host, port, user, password)
	d.TLSConfig = &tls.Config{ServerName: host}

	switch tlsMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = gomail.NoStartTLS
	}

	return &SMTPGateway{
		sender:      d,
		host:        host,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (g *SMTPGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", g.fromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := g.sender.DialAndSend(m); err != nil {
		g.logger.Error("smtp send failed",
			slog.String("host", g.host),
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("smtp send: %w", err)
	}

	g.logger.Info("email sent",
		slog.String("provider", "smtp"),
		slog.String("email", pkglogger.SanitizedEmail(to)))

	return nil
}
