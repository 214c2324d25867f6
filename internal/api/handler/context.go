package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/api/middleware"
	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware and
// fast-fails before any service call. Its presence proves the middleware ran;
// a session without a user record is structurally broken and rejected.
func ctxSession(c echo.Context) (*domain.Session, error) {
	session, _ := c.Get(middleware.SessionKey).(*domain.Session)
	if session == nil || session.User == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return session, nil
}
