package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// SessionKey is the echo context key under which Auth stores the session.
const SessionKey = "session"

// SessionResolver resolves a bearer token to its live session. Revoked and
// expired tokens must come back as domain.ErrSessionNotFound.
type SessionResolver interface {
	Restore(ctx context.Context, token string) (*domain.Session, error)
}

// Auth validates the bearer token and injects the live session into context.
// Guest sessions pass through like any other; mutating operations are gated
// by the session's own predicates, not here.
func Auth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				return err
			}

			session, err := resolver.Restore(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired or revoked")
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// BearerToken extracts the bearer token from the Authorization header.
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
