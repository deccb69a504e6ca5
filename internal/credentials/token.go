package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStatus describes a stored bearer token as seen from the client side.
type TokenStatus int

const (
	TokenMissing TokenStatus = iota
	TokenOpaque              // not a JWT; validity is only known to the server
	TokenExpired
	TokenValid
)

var tokenStatusNames = []string{"missing", "opaque", "expired", "valid"}

func (t TokenStatus) String() string {
	if t < 0 || int(t) >= len(tokenStatusNames) {
		return fmt.Sprintf("TokenStatus(%d)", int(t))
	}
	return tokenStatusNames[t]
}

// TokenInfo is what can be read from a token without the signing key.
type TokenInfo struct {
	Status    TokenStatus
	Subject   string
	ExpiresAt time.Time
}

// InspectToken parses token without verifying its signature and reports
// whether it has expired at now. The server stays the authority: a token
// reported valid here can still be rejected with 401.
func InspectToken(token string, now time.Time) TokenInfo {
	if token == "" {
		return TokenInfo{Status: TokenMissing}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{Status: TokenOpaque}
	}

	info := TokenInfo{Status: TokenValid}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return info
	}
	info.ExpiresAt = exp.Time
	if !now.Before(exp.Time) {
		info.Status = TokenExpired
	}
	return info
}
