package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/api/metrics"
	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

// UserHandler handles HTTP requests for identity management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.Create(c.Request().Context(), actor, ports.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return denialOr(c, err, "user_create")
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return denialOr(c, err, "user_get")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List handles GET /v1/users.
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	users, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return denialOr(c, err, "user_list")
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PUT /v1/users/:id. Role changes inside the payload are
// validated against the actor's grant authority by the service, self-updates
// included.
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), ports.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return denialOr(c, err, "user_update")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.Delete(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return denialOr(c, err, "user_delete")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// denialOr renders policy denials with the grantable-roles hint and defers
// everything else to the central error handler.
func denialOr(c echo.Context, err error, operation string) error {
	var ue *domain.UnauthorizedError
	if errors.As(err, &ue) {
		metrics.AuthzDenialsTotal.WithLabelValues(operation).Inc()
		roles := make([]string, 0, len(ue.Grantable))
		for _, r := range ue.Grantable {
			roles = append(roles, string(r))
		}
		return c.JSON(http.StatusForbidden, unauthorizedResponse{
			Error:          ue.Reason,
			GrantableRoles: roles,
		})
	}
	return err
}
