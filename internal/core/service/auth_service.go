package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
	"github.com/onekingdom/assessment-system/internal/core/token"
)

// dummyHash is compared against when the identifier is unknown so both
// failure paths pay the same bcrypt cost. Hash of an unguessable throwaway.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginLimiter throttles repeated login attempts per identifier. An
// implementation that cannot reach its backing store should fail open.
type LoginLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
}

// AuthService implements credential verification and the token lifecycle.
type AuthService struct {
	repo    ports.IdentityRepository
	codec   *token.Codec
	limiter LoginLimiter
	logger  zerolog.Logger

	renewalThreshold time.Duration
	delayMin         time.Duration
	delayMax         time.Duration
}

// AuthConfig carries the tunables for AuthService.
type AuthConfig struct {
	// RenewalThreshold is the remaining-lifetime floor under which a
	// token-check with renew=1 mints a fresh token.
	RenewalThreshold time.Duration
	// DelayMin/DelayMax bound the randomized artificial delay applied to
	// every login attempt, success or failure.
	DelayMin time.Duration
	DelayMax time.Duration
}

func NewAuthService(repo ports.IdentityRepository, codec *token.Codec, limiter LoginLimiter, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	if cfg.RenewalThreshold <= 0 {
		cfg.RenewalThreshold = 180 * time.Second
	}
	if cfg.DelayMin <= 0 {
		cfg.DelayMin = 100 * time.Millisecond
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	return &AuthService{
		repo:             repo,
		codec:            codec,
		limiter:          limiter,
		logger:           logger,
		renewalThreshold: cfg.RenewalThreshold,
		delayMin:         cfg.DelayMin,
		delayMax:         cfg.DelayMax,
	}
}

// Login verifies the identifier/password pair and mints a session token.
// An unknown identifier and a wrong password produce the identical
// ErrInvalidCredentials, and every attempt pays a randomized delay plus a
// full bcrypt compare, so neither the response shape nor the timing reveals
// whether the identifier exists.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, *domain.Identity, error) {
	defer s.sleep(ctx)

	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, identifier)
		if err != nil {
			// Limiter outage must not lock everyone out.
			s.logger.Warn().Err(err).Msg("login limiter unavailable, failing open")
		} else if !allowed {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByLogin(ctx, identifier)
	if err != nil {
		// Burn the same bcrypt cost as the known-identifier path.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		s.recordFailure(ctx, identifier)
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, identifier)
		return "", nil, domain.ErrInvalidCredentials
	}

	tok, err := s.codec.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login accepted")
	return tok, user, nil
}

// Authenticate verifies the token and resolves the bound identity. This is
// the single entry gate used by every privileged route.
func (s *AuthService) Authenticate(ctx context.Context, tok string) (*domain.Identity, error) {
	subject, err := s.codec.Verify(tok)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Get(ctx, subject)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// TokenCheck inspects a token and, when renew is requested and the remaining
// lifetime is below the renewal threshold, exchanges it for a fresh one.
func (s *AuthService) TokenCheck(ctx context.Context, tok string, renew bool) (*ports.TokenStatus, error) {
	claims, err := s.codec.Inspect(tok)
	if err != nil {
		return nil, err
	}

	status := &ports.TokenStatus{
		Subject:    claims.Subject,
		IssuedAt:   claims.IssuedAt,
		ExpiresAt:  claims.ExpiresAt,
		RenewalDue: claims.Remaining(time.Now().UTC()) < s.renewalThreshold,
	}

	if renew && status.RenewalDue {
		fresh, err := s.codec.Renew(tok)
		if err != nil {
			return nil, err
		}
		freshClaims, err := s.codec.Inspect(fresh)
		if err != nil {
			return nil, err
		}
		status.Token = fresh
		status.IssuedAt = freshClaims.IssuedAt
		status.ExpiresAt = freshClaims.ExpiresAt
		status.RenewalDue = false
		s.logger.Debug().Str("user_id", claims.Subject).Time("expires_at", freshClaims.ExpiresAt).Msg("token renewed")
	}

	return status, nil
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, identifier); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure")
	}
}

// sleep applies the randomized login delay, honoring context cancellation.
func (s *AuthService) sleep(ctx context.Context) {
	spread := s.delayMax - s.delayMin
	d := s.delayMin
	if spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread)))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
