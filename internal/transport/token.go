package transport

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// checkTokenExpiry inspects the bearer token's exp claim without verifying
// the signature. An already-expired token fails fast as an authentication
// error instead of burning reconnect attempts on a handshake the backend is
// guaranteed to reject. Tokens that cannot be parsed are passed through
// untouched; the backend is the authority on their validity.
func checkTokenExpiry(token string, now time.Time) error {
	if token == "" {
		return types.ErrAuthenticationFailed
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return types.ErrAuthenticationFailed
	}
	return nil
}
