package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/cbc-energia/fieldops-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Name   string
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID string     `json:"user_id"`
	Name   string     `json:"name,omitempty"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
