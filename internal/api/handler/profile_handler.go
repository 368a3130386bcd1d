package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// ProfileHandler handles HTTP requests for profile management.
type ProfileHandler struct {
	service ports.ProfileService
	media   domain.MediaResolver
}

func NewProfileHandler(service ports.ProfileService, media domain.MediaResolver) *ProfileHandler {
	return &ProfileHandler{service: service, media: media}
}

// List handles GET /v1/profiles.
//
// @Summary      List profiles
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        person_type  query     string  false  "loan_officer, agent, staff or leadership"
// @Param        region       query     string  false  "Region"
// @Param        status       query     string  false  "active or inactive"
// @Param        search       query     string  false  "Matches display name or email"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Page size (default 20, max 100)"
// @Success      200          {object}  profilePageResponse
// @Failure      400          {object}  errorResponse
// @Failure      401          {object}  errorResponse
// @Failure      403          {object}  errorResponse
// @Router       /v1/profiles [get]
func (h *ProfileHandler) List(c echo.Context) error {
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
		Status:     q.Status,
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfilePageResponse(page, h.media))
}

// Create handles POST /v1/profiles.
//
// @Summary      Create an identity and its profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProfileRequest  true  "Profile"
// @Success      201   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/profiles [post]
func (h *ProfileHandler) Create(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Create(c.Request().Context(), actorID, toCreateProfileInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toProfileResponse(p, h.media))
}

// Get handles GET /v1/profiles/:id.
//
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Profile id"
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/profiles/{id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.service.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(p, h.media))
}

// Update handles PUT /v1/profiles/:id. The request replaces every editable
// field; sink failures never affect the response.
//
// @Summary      Replace a profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Profile id"
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/profiles/{id} [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	p, err := h.service.Find(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	applyProfileRequest(p, req)

	if err := h.service.Save(ctx, actorID, p); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfileResponse(p, h.media))
}

// Delete handles DELETE /v1/profiles/:id.
//
// @Summary      Delete a profile and its identity
// @Tags         profiles
// @Security     BearerAuth
// @Param        id   path  string  true  "Profile id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/profiles/{id} [delete]
func (h *ProfileHandler) Delete(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actorID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
