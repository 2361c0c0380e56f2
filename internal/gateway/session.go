// ABOUTME: Session token claim decoding for display purposes
// ABOUTME: Parses JWT claims without verification; the service owns signature checks

package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims summarizes the display-relevant claims of a session token.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// DecodeClaims extracts claims from a session token WITHOUT verifying
// its signature. The client has no verification key; this exists only
// so the CLI can show who just signed in and when the session expires.
func DecodeClaims(token string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("decoding session token: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claim format in session token")
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
