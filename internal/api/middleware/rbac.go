package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// RBAC enforces role-based access control on top of Auth. Admin passes every
// gate; other roles must match one of the allowed roles exactly.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, _ := c.Get(SessionKey).(*domain.Session)
			for _, role := range allowedRoles {
				if session.HasRole(role) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "permission denied"})
		}
	}
}
