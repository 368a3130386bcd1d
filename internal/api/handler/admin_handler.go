package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/ports"
)

// AdminHandler exposes maintenance operations.
type AdminHandler struct {
	profiles ports.ProfileService
	queue    ports.ResyncEnqueuer
}

func NewAdminHandler(profiles ports.ProfileService, queue ports.ResyncEnqueuer) *AdminHandler {
	return &AdminHandler{profiles: profiles, queue: queue}
}

type resyncRequest struct {
	ProfileIDs []string `json:"profile_ids" validate:"max=1000,dive,required"`
}

// Resync handles POST /v1/admin/resync. It re-runs the sink fan-out for the
// given profiles, or for every profile when none are listed. Returns 202.
//
// @Summary      Resync profiles to every sink
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      resyncRequest  false  "Profiles to resync (all when empty)"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/admin/resync [post]
func (h *AdminHandler) Resync(c echo.Context) error {
	var req resyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ids := req.ProfileIDs
	if len(ids) == 0 {
		all, err := h.profiles.AllIDs(c.Request().Context())
		if err != nil {
			return err
		}
		ids = all
	}

	if err := h.queue.EnqueueBatch(ids); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "resync queue unavailable")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "resync scheduled",
		Count:   len(ids),
	})
}
