package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeAccess = "access"

type TokenClaims struct {
	Type        string   `json:"type"`
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated principal of a request.
// Username carries the login email.
type Identity struct {
	UserID   int64
	Username string
}

type AuthResponse struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}
