package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	Email         string
	UserID        int64
	IPAddress     string
	Success       bool
	FailureReason string
}

// Audit event types
const (
	AuditLogin           = "login"
	AuditRecoveryRequest = "password_recovery_request"
	AuditPasswordReset   = "password_reset"
	AuditAccountCreated  = "account_created"
	AuditAccountDeleted  = "account_deleted"
)

// AuditLogger writes security-relevant events to the structured log.
// Emails are always masked.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// Log records a single audit event. Failures are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.UserID != 0 {
		attrs = append(attrs, slog.String("user_id", strconv.FormatInt(event.UserID, 10)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogRecoveryRequest records a password recovery request for an email
func (al *AuditLogger) LogRecoveryRequest(ctx context.Context, email, ipAddress string, success bool, reason string) {
	al.Log(ctx, AuditEvent{
		EventType:     AuditRecoveryRequest,
		Email:         email,
		IPAddress:     ipAddress,
		Success:       success,
		FailureReason: reason,
	})
}

// LogPasswordReset records a password change made through a recovery token
func (al *AuditLogger) LogPasswordReset(ctx context.Context, userID int64, email string, success bool, reason string) {
	al.Log(ctx, AuditEvent{
		EventType:     AuditPasswordReset,
		UserID:        userID,
		Email:         email,
		Success:       success,
		FailureReason: reason,
	})
}
