package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"studentms/internal/middleware"
	"studentms/internal/model"
	"studentms/internal/repository"
	"studentms/internal/service"
)

// UserHandler serves account administration.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role" Enums(admin, student, faculty)
// @Success 200 {array} model.UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	var filter repository.UserFilter
	if raw := c.QueryParam("role"); raw != "" {
		role, err := model.ParseRole(raw)
		if err != nil {
			return respondError(c, service.ErrInvalidRole)
		}
		filter.Role = role
	}
	return h.list(c, filter, repository.Page{Limit: repository.MaxLimit})
}

// AdminListUsers godoc
// @Summary List users page by page
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size" default(100)
// @Success 200 {array} model.UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) AdminListUsers(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return respondError(c, err)
	}
	return h.list(c, repository.UserFilter{}, page)
}

func (h *UserHandler) list(c echo.Context, filter repository.UserFilter, page repository.Page) error {
	users, err := h.svc.ListUsers(c.Request().Context(), filter, page)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.DeleteUser(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ActivateUser godoc
// @Summary Activate user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/activate [put]
func (h *UserHandler) ActivateUser(c echo.Context) error {
	return h.setActive(c, true)
}

// DeactivateUser godoc
// @Summary Deactivate user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/deactivate [put]
func (h *UserHandler) DeactivateUser(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	user, err := h.svc.SetActive(c.Request().Context(), middleware.CurrentUser(c), id, active)
	if err != nil {
		return respondError(c, err)
	}
	verb := "deactivated"
	if active {
		verb = "activated"
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("User %s %s successfully", user.Username, verb)})
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role query string true "New role" Enums(admin, student, faculty)
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	role, err := model.ParseRole(c.QueryParam("role"))
	if err != nil {
		return respondError(c, service.ErrInvalidRole)
	}
	user, err := h.svc.ChangeRole(c.Request().Context(), middleware.CurrentUser(c), id, role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("User %s role updated to %s", user.Username, role)})
}
