package ports

import (
	"context"
	"time"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// TokenStatus describes a verified session token for the token-check endpoint.
type TokenStatus struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// RenewalDue is true when the remaining lifetime has dropped below the
	// configured renewal threshold.
	RenewalDue bool
	// Token carries the freshly minted credential when a renewal was
	// requested and performed; empty otherwise.
	Token string
}

// AuthService covers credential verification and the token lifecycle.
type AuthService interface {
	// Login verifies the identifier/password pair and mints a session token.
	// Unknown identifier and wrong password produce the same error.
	Login(ctx context.Context, identifier, password string) (string, *domain.Identity, error)
	// Authenticate is the single entry gate for every privileged route: it
	// verifies the token and resolves the bound identity.
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	// TokenCheck inspects a token and optionally renews it when renewal is
	// requested and due.
	TokenCheck(ctx context.Context, token string, renew bool) (*TokenStatus, error)
}
