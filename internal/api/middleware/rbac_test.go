package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

func runRBAC(t *testing.T, identity *domain.Identity, allowed ...domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set(ContextIdentityKey, identity)
	}

	h := RBAC(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestRBACAllowsListedRoles(t *testing.T) {
	admin := &domain.Identity{ID: "a-1", Role: domain.RoleAdmin}
	coach := &domain.Identity{ID: "c-1", Role: domain.RoleCoach}

	for _, id := range []*domain.Identity{admin, coach} {
		rec := runRBAC(t, id, domain.RoleAdmin, domain.RoleCoach)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: code = %d, want 200", id.Role, rec.Code)
		}
	}
}

func TestRBACForbidsUnlistedRole(t *testing.T) {
	user := &domain.Identity{ID: "u-1", Role: domain.RoleUser}
	rec := runRBAC(t, user, domain.RoleAdmin, domain.RoleCoach)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", rec.Code)
	}
}

func TestRBACWithoutIdentity(t *testing.T) {
	rec := runRBAC(t, nil, domain.RoleAdmin)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}
}
