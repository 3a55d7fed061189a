package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// UserService implements the policy-gated identity CRUD. Every mutation runs
// two independent checks: "can touch this record" (CanModifyUser and
// friends) and, whenever a role field would change, "can assign this role"
// (CanGrantRole). The second is never skipped, not even for self-updates.
type UserService struct {
	repo        ports.IdentityRepository
	assessments ports.AssessmentRepository
	logger      zerolog.Logger
}

func NewUserService(repo ports.IdentityRepository, assessments ports.AssessmentRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, assessments: assessments, logger: logger}
}

func (s *UserService) Create(ctx context.Context, actor *domain.Identity, input ports.CreateUserInput) (*domain.Identity, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if !actor.CanCreateUser(input.Role) {
		return nil, domain.Unauthorizedf(actor, "you cannot create a user with the %q role", input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.Identity{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Str("actor_id", actor.ID).Msg("user created")
	return created, nil
}

func (s *UserService) Get(ctx context.Context, actor *domain.Identity, id string) (*domain.Identity, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != user.ID && !actor.Role.IsManager() {
		return nil, domain.Unauthorizedf(actor, "you cannot view other users")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, actor *domain.Identity) ([]*domain.Identity, error) {
	if !actor.Role.IsManager() {
		return nil, domain.Unauthorizedf(actor, "you cannot list users, insufficient rights")
	}
	return s.repo.List(ctx)
}

func (s *UserService) Update(ctx context.Context, actor *domain.Identity, id string, input ports.UpdateUserInput) (*domain.Identity, error) {
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanModifyUser(current) {
		return nil, domain.Unauthorizedf(actor, "you cannot modify this user")
	}
	// The role-change guard. Checking CanModifyUser alone is not enough: a
	// coach may touch its own record yet must not assign itself "admin".
	if input.Role != current.Role && !actor.CanGrantRole(input.Role) {
		return nil, domain.Unauthorizedf(actor, "you cannot assign the %q role", input.Role)
	}

	hash := current.PasswordHash
	if input.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(h)
	}

	updated := &domain.Identity{
		ID:           current.ID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    current.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if input.Password == "" {
		// An outstanding reset token survives only until the password changes.
		updated.ResetToken = current.ResetToken
		updated.ResetExpiry = current.ResetExpiry
	}

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		return nil, err
	}

	if saved.Role != current.Role {
		s.logger.Info().
			Str("user_id", saved.ID).
			Str("actor_id", actor.ID).
			Str("old_role", string(current.Role)).
			Str("new_role", string(saved.Role)).
			Msg("user role changed")
	}
	return saved, nil
}

func (s *UserService) Delete(ctx context.Context, actor *domain.Identity, id string) (*domain.Identity, error) {
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanDeleteUser(target) {
		return nil, domain.Unauthorizedf(actor, "you cannot delete this user")
	}

	owns, err := s.assessments.HasForOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, domain.ErrIdentityReferenced
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return target, nil
}

// EnsureDefaultAdmin creates the bootstrap admin identity when credentials
// are configured and the username does not exist yet. Called once at startup.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || email == "" || password == "" {
		s.logger.Debug().Msg("default admin not configured, skipping bootstrap")
		return nil
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := s.repo.Create(ctx, &domain.Identity{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("default admin created")
	return nil
}
