package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// RBAC restricts a route to the given roles. It reads the identity injected
// by Auth, so it must be registered after it.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, _ := c.Get(ContextIdentityKey).(*domain.Identity)
			if identity == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authentication"})
			}
			if _, ok := allowed[identity.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
