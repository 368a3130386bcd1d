package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// DirectoryHandler serves the public, unauthenticated directory. Only active
// profiles are visible.
type DirectoryHandler struct {
	service ports.ProfileService
	media   domain.MediaResolver
}

func NewDirectoryHandler(service ports.ProfileService, media domain.MediaResolver) *DirectoryHandler {
	return &DirectoryHandler{service: service, media: media}
}

// List handles GET /v1/directory.
//
// @Summary      Browse the public directory
// @Tags         directory
// @Produce      json
// @Param        person_type  query     string  false  "loan_officer, agent, staff or leadership"
// @Param        region       query     string  false  "Region"
// @Param        search       query     string  false  "Matches display name or email"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Page size (default 20, max 100)"
// @Success      200          {object}  directoryPageResponse
// @Failure      400          {object}  errorResponse
// @Router       /v1/directory [get]
func (h *DirectoryHandler) List(c echo.Context) error {
	var q listProfilesQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page, err := h.service.List(c.Request().Context(), ports.ListProfilesInput{
		PersonType: q.PersonType,
		Region:     q.Region,
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
		PublicOnly: true,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toDirectoryPageResponse(page, h.media))
}

// Get handles GET /v1/directory/:slug. The slug may be the canonical slug or
// the profile's custom override.
//
// @Summary      Get a public profile by slug
// @Tags         directory
// @Produce      json
// @Param        slug  path      string  true  "Profile slug"
// @Success      200   {object}  publicProfileResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/directory/{slug} [get]
func (h *DirectoryHandler) Get(c echo.Context) error {
	p, err := h.service.FindBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return domain.ErrProfileNotFound
	}
	return c.JSON(http.StatusOK, toPublicProfileResponse(p, h.media))
}
