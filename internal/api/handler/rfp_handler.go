package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/api/metrics"
	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// RFPHandler handles HTTP requests for RFPs.
type RFPHandler struct {
	service ports.RFPService
}

func NewRFPHandler(service ports.RFPService) *RFPHandler {
	return &RFPHandler{service: service}
}

type createRFPRequest struct {
	Title       string     `json:"title" validate:"required"`
	ClientName  string     `json:"client_name" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type updateRFPRequest struct {
	Title       *string    `json:"title,omitempty"`
	ClientName  *string    `json:"client_name,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type updateRFPStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft submitted in_review won lost"`
	Notes  string `json:"notes"`
}

// List handles GET /api/rfps.
//
// @Summary      List RFPs
// @Tags         rfps
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.RFP
// @Failure      401  {object}  map[string]string
// @Router       /api/rfps [get]
func (h *RFPHandler) List(c echo.Context) error {
	rfps, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if rfps == nil {
		rfps = []domain.RFP{}
	}
	return c.JSON(http.StatusOK, rfps)
}

// Get handles GET /api/rfps/:id.
//
// @Summary      Get an RFP
// @Tags         rfps
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "RFP id"
// @Success      200  {object}  domain.RFP
// @Failure      404  {object}  map[string]string
// @Router       /api/rfps/{id} [get]
func (h *RFPHandler) Get(c echo.Context) error {
	rfp, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rfp)
}

// Create handles POST /api/rfps. New RFPs start in draft.
//
// @Summary      Create an RFP
// @Tags         rfps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRFPRequest  true  "RFP details"
// @Success      201   {object}  domain.RFP
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/rfps [post]
func (h *RFPHandler) Create(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req createRFPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.CreateRFPInput{
		Title:       req.Title,
		ClientName:  req.ClientName,
		Description: req.Description,
	}
	if req.DueDate != nil {
		input.DueDate = *req.DueDate
	}

	rfp, err := h.service.Create(c.Request().Context(), session, input)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.PermissionDeniedTotal.WithLabelValues("rfp_create").Inc()
		}
		return err
	}

	return c.JSON(http.StatusCreated, rfp)
}

// Update handles PUT /api/rfps/:id.
//
// @Summary      Update an RFP
// @Tags         rfps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "RFP id"
// @Param        body  body      updateRFPRequest  true  "Fields to update"
// @Success      200   {object}  domain.RFP
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/rfps/{id} [put]
func (h *RFPHandler) Update(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateRFPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	rfp, err := h.service.Update(c.Request().Context(), session, c.Param("id"), ports.UpdateRFPInput{
		Title:       req.Title,
		ClientName:  req.ClientName,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.PermissionDeniedTotal.WithLabelValues("rfp_update").Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, rfp)
}

// UpdateStatus handles PATCH /api/rfps/:id/status.
//
// @Summary      Advance an RFP through its lifecycle
// @Tags         rfps
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "RFP id"
// @Param        body  body      updateRFPStatusRequest  true  "Target status"
// @Success      200   {object}  domain.RFP
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/rfps/{id}/status [patch]
func (h *RFPHandler) UpdateStatus(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req updateRFPStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rfp, err := h.service.UpdateStatus(c.Request().Context(), session, c.Param("id"), domain.RFPStatus(req.Status), req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.PermissionDeniedTotal.WithLabelValues("rfp_status").Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, rfp)
}

// Delete handles DELETE /api/rfps/:id.
//
// @Summary      Delete an RFP
// @Tags         rfps
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "RFP id"
// @Success      204  "No Content"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/rfps/{id} [delete]
func (h *RFPHandler) Delete(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), session, c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.PermissionDeniedTotal.WithLabelValues("rfp_delete").Inc()
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
