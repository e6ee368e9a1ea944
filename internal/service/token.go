package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/taskdesk/internal/domain"
)

// TokenIssuer mints and verifies HS256 bearer tokens whose subject is a
// user ID. Tokens are stateless; nothing is stored server-side.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret. Tokens expire
// ttl after they are issued.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *t
	c.now = now
	return &c
}

// Issue returns a signed token for userID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses token and returns its subject. Every failure, whether the
// token is empty, malformed, badly signed or expired, is reported as
// domain.ErrUnauthorized.
func (t *TokenIssuer) Verify(token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
