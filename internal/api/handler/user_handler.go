package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// UserHandler exposes the admin user directory and per-user audit trail.
// Routes using it sit behind the RBAC(admin) middleware.
type UserHandler struct {
	users ports.UserRepository
	audit ports.AuditRepository
}

func NewUserHandler(users ports.UserRepository, audit ports.AuditRepository) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

// List handles GET /api/users.
//
// @Summary      List all accounts (admin)
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// Audit handles GET /api/users/:id/audit.
//
// @Summary      List a user's audit trail (admin)
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "User id"
// @Param        limit  query     int     false  "Maximum entries (default 50)"
// @Success      200    {array}   domain.AuditEvent
// @Failure      403    {object}  map[string]string
// @Router       /api/users/{id}/audit [get]
func (h *UserHandler) Audit(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	events, err := h.audit.ListByActor(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.AuditEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
