package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
	"github.com/onekingdom/assessment-system/internal/core/token"
)

// ContextIdentityKey is where Auth stores the resolved *domain.Identity.
const ContextIdentityKey = "identity"

// Auth validates the bearer token, resolves the bound identity and injects
// it into the request context. The identity (role included) is always read
// back from storage, never trusted from token claims, so a role change takes
// effect on the very next request.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, err := BearerToken(c)
			if err != nil {
				return err
			}

			identity, err := auth.Authenticate(c.Request().Context(), tok)
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpired):
					// Distinct message so clients can offer the renewal path.
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				case errors.Is(err, domain.ErrUserNotFound):
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown token subject")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			c.Set(ContextIdentityKey, identity)
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
