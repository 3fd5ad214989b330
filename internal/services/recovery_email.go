package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

const recoveryEmailSubject = "Password recovery"

//go:embed templates/recovery_email.html
var templateFS embed.FS

var recoveryEmailTemplate = template.Must(template.ParseFS(templateFS, "templates/recovery_email.html"))

type recoveryEmailData struct {
	FirstName       string
	Email           string
	Link            string
	ValidityMinutes int64
}

// recoveryLink appends the token as the last path segment of the base URI
func recoveryLink(baseURI, token string) string {
	return strings.TrimRight(baseURI, "/") + "/" + url.PathEscape(token)
}

func renderRecoveryEmail(firstName, email, link string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := recoveryEmailTemplate.Execute(&buf, recoveryEmailData{
		FirstName:       firstName,
		Email:           email,
		Link:            link,
		ValidityMinutes: int64(ttl / time.Minute),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render recovery email: %w", err)
	}
	return buf.String(), nil
}
