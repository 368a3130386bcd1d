package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/ports"
)

const defaultScope = "openid"

type ClaimsHandler struct {
	service ports.ClaimsService
}

func NewClaimsHandler(service ports.ClaimsService) *ClaimsHandler {
	return &ClaimsHandler{service: service}
}

// Get handles GET /v1/profiles/:id/claims.
//
// @Summary      Get the OIDC claims released for the requested scopes
// @Tags         claims
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Profile id"
// @Param        scope  query     string  false  "Space or comma separated scopes (default openid)"
// @Success      200    {object}  map[string]any
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /v1/profiles/{id}/claims [get]
func (h *ClaimsHandler) Get(c echo.Context) error {
	claims, err := h.service.ClaimsFor(c.Request().Context(), c.Param("id"), parseScopes(c.QueryParam("scope")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claims)
}

func parseScopes(raw string) []string {
	scopes := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(scopes) == 0 {
		return []string{defaultScope}
	}
	return scopes
}
