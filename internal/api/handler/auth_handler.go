package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/api/metrics"
	"github.com/bidgate/rfp-platform/internal/api/middleware"
	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// AuthHandler exposes the session lifecycle over HTTP.
type AuthHandler struct {
	authService ports.AuthService
	// devMode exposes the reset URL in responses instead of delivering it
	// out of band. Never enabled in production.
	devMode bool
}

func NewAuthHandler(authService ports.AuthService, devMode bool) *AuthHandler {
	return &AuthHandler{authService: authService, devMode: devMode}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Company  string `json:"company"`
}

type resetRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user"`
	IsGuest bool         `json:"is_guest"`
}

type resetRequestResponse struct {
	Success  bool   `json:"success"`
	ResetURL string `json:"reset_url,omitempty"`
}

// Login authenticates a user and mints a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// A guest token presented here is revoked before the new session mints.
	supersedes, _ := middleware.BearerToken(c)

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, supersedes)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, sessionResponse{
		Token:   session.Token,
		User:    session.User,
		IsGuest: session.IsGuest,
	})
}

// Signup creates an account and mints a session for it.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	supersedes, _ := middleware.BearerToken(c)

	session, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Company:  req.Company,
	}, supersedes)
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(signupResult(err)).Inc()
		return err
	}
	metrics.SignupsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusCreated, sessionResponse{
		Token:   session.Token,
		User:    session.User,
		IsGuest: session.IsGuest,
	})
}

// Session returns the current session for the presented token.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sessionResponse{
		User:    session.User,
		IsGuest: session.IsGuest,
	})
}

// Logout revokes the presented session. Idempotent: succeeds even when no
// valid token is presented.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err == nil {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Guest mints a read-only guest session.
//
// @Summary      Continue as guest
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/auth/guest [post]
func (h *AuthHandler) Guest(c echo.Context) error {
	session, err := h.authService.ContinueAsGuest(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.GuestSessionsTotal.Inc()

	return c.JSON(http.StatusOK, sessionResponse{
		Token:   session.Token,
		User:    session.User,
		IsGuest: true,
	})
}

// GuestExit revokes a guest session ahead of login or signup.
//
// @Summary      Exit guest mode
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      403  {object}  map[string]string
// @Router       /api/auth/guest/exit [post]
func (h *AuthHandler) GuestExit(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err == nil {
		if err := h.authService.TransitionFromGuest(c.Request().Context(), token); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// RequestReset starts the password-reset flow. The response is identical for
// known and unknown addresses; only development mode surfaces the URL.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestRequest  true  "Account email"
// @Success      200   {object}  resetRequestResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req resetRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("request", "error").Inc()
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("request", "success").Inc()

	resp := resetRequestResponse{Success: true}
	if h.devMode {
		resp.ResetURL = result.ResetURL
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdatePassword consumes a reset token and sets the new password.
//
// @Summary      Reset password with token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      updatePasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /api/auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("consume", consumeResult(err)).Inc()
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("consume", "success").Inc()

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

func signupResult(err error) string {
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return "duplicate_email"
	}
	return "error"
}

func consumeResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidResetToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrExpiredResetToken):
		return "expired_token"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	default:
		return "error"
	}
}
