package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/api/middleware"
	"github.com/onekingdom/assessment-system/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call when it is absent — presence proves the
// middleware ran on this route.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.ContextIdentityKey).(*domain.Identity)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}
