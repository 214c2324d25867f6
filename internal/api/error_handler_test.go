package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many failed login attempts, try again later"},
		{domain.ErrDuplicateEmail, http.StatusConflict, "email already registered"},
		{domain.ErrSessionNotFound, http.StatusUnauthorized, "session expired or revoked"},
		{domain.ErrInvalidResetToken, http.StatusBadRequest, "invalid reset token"},
		{domain.ErrExpiredResetToken, http.StatusGone, "reset token expired"},
		{domain.ErrAccountNotFound, http.StatusNotFound, "account not found"},
		{domain.ErrPermissionDenied, http.StatusForbidden, "permission denied"},
		{domain.ErrProductNotFound, http.StatusNotFound, "product not found"},
		{domain.ErrRFPNotFound, http.StatusNotFound, "rfp not found"},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Errorf("code %d, want %d", rec.Code, tt.wantCode)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body %q: %v", rec.Body.String(), err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("message %q, want %q", body.Error, tt.wantMsg)
			}
		})
	}
}

// Wrapped sentinels map the same as bare ones, and the transition message
// carries the from/to detail.
func TestErrorHandlerWrappedErrors(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/rfps/rfp-1/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	wrapped := fmt.Errorf("%w (from draft to won)", domain.ErrInvalidTransition)
	handler(wrapped, c)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("code %d, want 422", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "invalid status transition (from draft to won)" {
		t.Errorf("message %q missing transition detail", body.Error)
	}
}

// Unknown errors never leak their cause to the client.
func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(errors.New("mongo: connection refused at 10.0.0.5"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code %d, want 500", rec.Code)
	}
	if body := rec.Body.String(); body == "" || body != `{"error":"internal server error"}`+"\n" {
		t.Errorf("internal detail leaked: %q", body)
	}
}

func TestErrorHandlerPreservesEchoHTTPErrors(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"), c)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code %d, want 401", rec.Code)
	}
}
