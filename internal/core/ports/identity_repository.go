package ports

import (
	"context"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// IdentityRepository defines persistence operations for identities.
type IdentityRepository interface {
	Create(ctx context.Context, user *domain.Identity) (*domain.Identity, error)
	Get(ctx context.Context, id string) (*domain.Identity, error)
	// FindByLogin resolves a presented login identifier, matching either the
	// username or the email.
	FindByLogin(ctx context.Context, identifier string) (*domain.Identity, error)
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	List(ctx context.Context) ([]*domain.Identity, error)
	Update(ctx context.Context, user *domain.Identity) (*domain.Identity, error)
	Delete(ctx context.Context, id string) error
}
