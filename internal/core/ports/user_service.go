package ports

import (
	"context"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// CreateUserInput carries the data for creating a new identity.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserInput carries an identity update. Password is optional: when
// empty the stored hash is kept.
type UpdateUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// UserService defines the policy-gated identity operations. Every method
// takes the resolved actor explicitly; there is no ambient current user.
type UserService interface {
	Create(ctx context.Context, actor *domain.Identity, input CreateUserInput) (*domain.Identity, error)
	Get(ctx context.Context, actor *domain.Identity, id string) (*domain.Identity, error)
	List(ctx context.Context, actor *domain.Identity) ([]*domain.Identity, error)
	Update(ctx context.Context, actor *domain.Identity, id string, input UpdateUserInput) (*domain.Identity, error)
	Delete(ctx context.Context, actor *domain.Identity, id string) (*domain.Identity, error)
}
