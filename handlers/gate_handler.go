package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v5"

	"gate-validator/internal/status"
	"gate-validator/models"
	"gate-validator/services"
)

// GateHandler exposes the device API consumed by the scanning UI or a
// turnstile controller.
type GateHandler struct {
	validator *services.ValidatorService
	sync      *services.SyncService
	conn      *services.ConnectivityService
	validate  *validator.Validate
}

func NewGateHandler(v *services.ValidatorService, s *services.SyncService, c *services.ConnectivityService) *GateHandler {
	return &GateHandler{
		validator: v,
		sync:      s,
		conn:      c,
		validate:  validator.New(),
	}
}

// Validate decides whether a scanned code may pass. Rejections are
// results, not errors; the response is 200 either way and the caller
// switches on the accepted flag.
func (h *GateHandler) Validate(c echo.Context) error {
	var req models.ValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "code and validator_id are required")
	}

	result := h.validator.Validate(c.Request().Context(), req.Code, req.ValidatorID)
	return c.JSON(http.StatusOK, result)
}

func (h *GateHandler) SyncStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sync.Status(h.conn.IsOnline()))
}

// ForceSync triggers an out-of-band pull for the manual "refresh now"
// affordance in the UI.
func (h *GateHandler) ForceSync(c echo.Context) error {
	if err := h.sync.Pull(c.Request().Context()); err != nil {
		if errors.Is(err, status.ErrSyncInFlight) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "a sync cycle is already in progress",
			})
		}
		// A failed pull is a background concern; the device keeps
		// validating from the cache it has.
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, h.sync.Status(h.conn.IsOnline()))
}
