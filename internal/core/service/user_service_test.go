package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

func newUserService(repo *stubIdentityRepo, assessments *stubAssessmentRepo) *UserService {
	if assessments == nil {
		assessments = newStubAssessmentRepo()
	}
	return NewUserService(repo, assessments, zerolog.Nop())
}

func seedRoles(repo *stubIdentityRepo) (admin, coach, user *domain.Identity) {
	admin = &domain.Identity{ID: "a-1", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin}
	coach = &domain.Identity{ID: "c-1", Username: "coach", Email: "coach@example.com", Role: domain.RoleCoach}
	user = &domain.Identity{ID: "u-1", Username: "player", Email: "player@example.com", Role: domain.RoleUser}
	repo.add(admin)
	repo.add(coach)
	repo.add(user)
	return admin, coach, user
}

func updateInput(of *domain.Identity, role domain.Role) ports.UpdateUserInput {
	return ports.UpdateUserInput{Username: of.Username, Email: of.Email, Role: role}
}

func TestCreateUserRoleGate(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, coach, user := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   *domain.Identity
		role    domain.Role
		allowed bool
	}{
		{"admin creates admin", admin, domain.RoleAdmin, true},
		{"coach creates user", coach, domain.RoleUser, true},
		{"coach creates coach", coach, domain.RoleCoach, true},
		{"coach creates admin", coach, domain.RoleAdmin, false},
		{"user creates user", user, domain.RoleUser, false},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created, err := svc.Create(ctx, tc.actor, ports.CreateUserInput{
				Username: tc.name + "-uname",
				Email:    tc.name + "@example.com",
				Password: "a long enough password",
				Role:     tc.role,
			})
			if tc.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if created.Role != tc.role {
					t.Errorf("role = %s, want %s", created.Role, tc.role)
				}
				if created.PasswordHash == "a long enough password" {
					t.Error("password stored in the clear")
				}
			} else if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("case %d: got %v, want ErrUnauthorized", i, err)
			}
		})
	}
}

func TestCreateUserValidation(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, _, _ := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, ports.CreateUserInput{Username: "x", Email: "x@example.com", Password: "pw", Role: "superuser"}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Errorf("unknown role: got %v", err)
	}
	if _, err := svc.Create(ctx, admin, ports.CreateUserInput{Email: "x@example.com", Password: "pw", Role: domain.RoleUser}); err == nil {
		t.Error("missing username must fail")
	}
	if _, err := svc.Create(ctx, admin, ports.CreateUserInput{Username: "root", Email: "dup@example.com", Password: "pw", Role: domain.RoleUser}); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("duplicate username: got %v", err)
	}
}

// Self-modification never bypasses the role grant check: touching your own
// record is allowed, assigning yourself a role you cannot grant is not.
func TestUpdateSelfRoleEscalationDenied(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, coach, user := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	// Coach updates own record to role=admin: denied.
	_, err := svc.Update(ctx, coach, coach.ID, updateInput(coach, domain.RoleAdmin))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("coach self-escalation: got %v, want ErrUnauthorized", err)
	}
	var denial *domain.UnauthorizedError
	if !errors.As(err, &denial) {
		t.Fatal("expected an UnauthorizedError")
	}
	if len(denial.Grantable) != 2 {
		t.Errorf("denial should list the coach's grantable roles, got %v", denial.Grantable)
	}

	// Stored role is untouched.
	stored, _ := repo.Get(ctx, coach.ID)
	if stored.Role != domain.RoleCoach {
		t.Errorf("role changed to %s despite denial", stored.Role)
	}

	// User cannot elevate either.
	if _, err := svc.Update(ctx, user, user.ID, updateInput(user, domain.RoleCoach)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user self-escalation: got %v", err)
	}

	// Admin applying the same payload to the coach succeeds.
	updated, err := svc.Update(ctx, admin, coach.ID, updateInput(coach, domain.RoleAdmin))
	if err != nil {
		t.Fatalf("admin grant: unexpected error: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", updated.Role)
	}
}

func TestUpdateWithoutRoleChange(t *testing.T) {
	repo := newStubIdentityRepo()
	_, coach, _ := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	// Keeping the current role only needs modify rights, not grant rights.
	in := updateInput(coach, domain.RoleCoach)
	in.Email = "coach2@example.com"
	updated, err := svc.Update(ctx, coach, coach.ID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Email != "coach2@example.com" {
		t.Errorf("email = %s", updated.Email)
	}
}

func TestUpdatePasswordHandling(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, _, user := seedRoles(repo)
	hash, _ := bcrypt.GenerateFromPassword([]byte("old password"), bcrypt.MinCost)
	user.PasswordHash = string(hash)
	user.ResetToken = "reset-123"
	repo.add(user)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	// Empty password keeps the stored hash and the pending reset token.
	updated, err := svc.Update(ctx, admin, user.ID, updateInput(user, domain.RoleUser))
	if err != nil {
		t.Fatal(err)
	}
	if updated.PasswordHash != string(hash) {
		t.Error("empty password must keep the stored hash")
	}
	if updated.ResetToken != "reset-123" {
		t.Error("reset token must survive a non-password update")
	}

	// Setting a new password rehashes and clears the reset token.
	in := updateInput(user, domain.RoleUser)
	in.Password = "brand new password"
	updated, err = svc.Update(ctx, admin, user.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if updated.PasswordHash == string(hash) {
		t.Error("new password must produce a new hash")
	}
	if updated.ResetToken != "" {
		t.Error("password change must invalidate the reset token")
	}
}

func TestUpdateModifyGate(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, coach, user := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Update(ctx, coach, admin.ID, updateInput(admin, domain.RoleAdmin)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("coach modifying admin: got %v", err)
	}
	if _, err := svc.Update(ctx, user, coach.ID, updateInput(coach, domain.RoleCoach)); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user modifying coach: got %v", err)
	}
}

func TestGetAndList(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, coach, user := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, user, user.ID); err != nil {
		t.Errorf("self get: %v", err)
	}
	if _, err := svc.Get(ctx, user, coach.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user viewing others: got %v", err)
	}
	if _, err := svc.Get(ctx, coach, user.ID); err != nil {
		t.Errorf("coach viewing user: %v", err)
	}
	if _, err := svc.Get(ctx, admin, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("missing user: got %v", err)
	}

	if _, err := svc.List(ctx, user); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user listing: got %v", err)
	}
	all, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 identities, got %d", len(all))
	}
}

func TestDelete(t *testing.T) {
	repo := newStubIdentityRepo()
	admin, coach, user := seedRoles(repo)
	svc := newUserService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Delete(ctx, coach, admin.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("coach deleting admin: got %v", err)
	}
	if _, err := svc.Delete(ctx, user, user.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("user self-delete: got %v", err)
	}

	deleted, err := svc.Delete(ctx, admin, user.ID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if deleted.ID != user.ID {
		t.Errorf("deleted wrong user: %s", deleted.ID)
	}
	if _, err := repo.Get(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Error("user still present after delete")
	}
}

func TestDeleteBlockedByOwnedAssessments(t *testing.T) {
	repo := newStubIdentityRepo()
	assessments := newStubAssessmentRepo()
	admin, _, user := seedRoles(repo)
	assessments.add(&domain.Assessment{ID: "asm-1", OwnerID: user.ID})
	svc := newUserService(repo, assessments)
	ctx := context.Background()

	if _, err := svc.Delete(ctx, admin, user.ID); !errors.Is(err, domain.ErrIdentityReferenced) {
		t.Fatalf("got %v, want ErrIdentityReferenced", err)
	}
	if _, err := repo.Get(ctx, user.ID); err != nil {
		t.Error("user must survive the blocked delete")
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := newUserService(repo, nil)
	ctx := context.Background()

	// Unconfigured: no-op.
	if err := svc.EnsureDefaultAdmin(ctx, "", "", ""); err != nil {
		t.Fatal(err)
	}
	if users, _ := repo.List(ctx); len(users) != 0 {
		t.Fatal("unconfigured bootstrap must create nothing")
	}

	if err := svc.EnsureDefaultAdmin(ctx, "root", "root@example.com", "bootstrap password"); err != nil {
		t.Fatal(err)
	}
	created, err := repo.FindByUsername(ctx, "root")
	if err != nil {
		t.Fatal("bootstrap admin missing")
	}
	if created.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", created.Role)
	}

	// Second run is idempotent.
	if err := svc.EnsureDefaultAdmin(ctx, "root", "root@example.com", "bootstrap password"); err != nil {
		t.Fatal(err)
	}
	if users, _ := repo.List(ctx); len(users) != 1 {
		t.Errorf("expected 1 identity after re-run, got %d", len(users))
	}
}
