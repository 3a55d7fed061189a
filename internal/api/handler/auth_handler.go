package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/api/metrics"
	"github.com/onekingdom/assessment-system/internal/api/middleware"
	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /v1/auth/login — verifies credentials and returns a
// session token. Unknown identifier and wrong password produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.LoginDuration.Observe(time.Since(start).Seconds()) }()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		}
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	metrics.LoginsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// TokenCheck handles GET /v1/auth/token-check — returns the current token's
// status; with renew=1 and a renewal-due token it also mints a fresh one.
// The route runs behind the Auth middleware, so the presented token is
// already known to be valid.
func (h *AuthHandler) TokenCheck(c echo.Context) error {
	tok, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	renew := c.QueryParam("renew") == "1"
	status, err := h.authService.TokenCheck(c.Request().Context(), tok, renew)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	if status.Token != "" {
		metrics.TokenRenewalsTotal.Inc()
	}

	return c.JSON(http.StatusOK, tokenStatusResponse{
		Subject:    status.Subject,
		IssuedAt:   status.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  status.ExpiresAt.UTC().Format(time.RFC3339),
		RenewalDue: status.RenewalDue,
		Token:      status.Token,
	})
}

func toUserResponse(u *domain.Identity) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}
