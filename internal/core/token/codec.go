// Package token implements the signed session token codec: stateless HS256
// credentials binding a subject identity to an expiry. The server never
// stores issued tokens; validity is signature plus expiry, nothing else.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrExpired = errors.New("token expired")
var ErrTampered = errors.New("token signature invalid")
var ErrMalformed = errors.New("token malformed")

// Claims is the decoded view of a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining returns the time left before expiry, negative when past it.
func (c Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// Codec issues and verifies session tokens with a symmetric secret.
type Codec struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

const defaultTTL = 30 * time.Minute

// NewCodec creates a Codec. When ttl is not positive, defaultTTL applies.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the codec's clock. Tests only.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue mints a token bound to the given subject id, expiring after the
// configured TTL.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the subject id. Expiry is
// reported as ErrExpired, distinct from ErrTampered/ErrMalformed, so callers
// can offer a renewal path instead of a hard failure.
func (c *Codec) Verify(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Inspect returns the decoded claims of a valid token.
func (c *Codec) Inspect(token string) (Claims, error) {
	return c.parse(token)
}

// Renew exchanges a still-valid token for a fresh one with a new expiry.
// No secret is re-presented; possession of a valid token is sufficient.
// The fresh expiry is always strictly later than the old one because the
// full TTL is granted from the current instant.
func (c *Codec) Renew(token string) (string, error) {
	subject, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	return c.Issue(subject)
}

func (c *Codec) parse(token string) (Claims, error) {
	var reg jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &reg, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		default:
			return Claims{}, ErrTampered
		}
	}
	if !parsed.Valid || reg.Subject == "" || reg.ExpiresAt == nil {
		return Claims{}, ErrMalformed
	}

	claims := Claims{Subject: reg.Subject, ExpiresAt: reg.ExpiresAt.Time}
	if reg.IssuedAt != nil {
		claims.IssuedAt = reg.IssuedAt.Time
	}
	return claims, nil
}
