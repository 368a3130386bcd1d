package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/ports"
)

type ActivityHandler struct {
	service ports.ActivityService
}

func NewActivityHandler(service ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

type activityQuery struct {
	Page    int `query:"page"     validate:"gte=0"`
	PerPage int `query:"per_page" validate:"gte=0"`
}

// List handles GET /v1/profiles/:id/activity, newest entries first.
//
// @Summary      List a profile's activity
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Profile id"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        per_page  query     int     false  "Page size (default 20, max 100)"
// @Success      200       {object}  domain.ActivityPage
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /v1/profiles/{id}/activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	var q activityQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.service.GetForUser(c.Request().Context(), c.Param("id"), q.Page, q.PerPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
