package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

// IntegrationHandler manages a profile's sink connections and exposes their
// status and recent errors.
type IntegrationHandler struct {
	service ports.IntegrationService
}

func NewIntegrationHandler(service ports.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{service: service}
}

type connectRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

type integrationResponse struct {
	ProfileID    string             `json:"profile_id"`
	Sink         string             `json:"sink"`
	State        string             `json:"state"`
	Connected    bool               `json:"connected"`
	AccountID    string             `json:"account_id,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
	Errors       []domain.SyncError `json:"errors"`
	UpdatedAt    *time.Time         `json:"updated_at,omitempty"`
}

func toIntegrationResponse(s *domain.SyncStatus) integrationResponse {
	resp := integrationResponse{
		ProfileID: s.ProfileID,
		Sink:      s.Sink,
		State:     string(s.State),
		Connected: s.Connected(),
		AccountID: s.AccountID,
		Errors:    s.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []domain.SyncError{}
	}
	if !s.LastSyncedAt.IsZero() {
		at := s.LastSyncedAt
		resp.LastSyncedAt = &at
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		resp.UpdatedAt = &at
	}
	return resp
}

// Status handles GET /v1/profiles/:id/integrations/:sink.
//
// @Summary      Get integration status and recent errors
// @Tags         integrations
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Profile id"
// @Param        sink  path      string  true  "Sink name (e.g. followupboss)"
// @Success      200   {object}  integrationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/profiles/{id}/integrations/{sink} [get]
func (h *IntegrationHandler) Status(c echo.Context) error {
	status, err := h.service.Status(c.Request().Context(), c.Param("id"), c.Param("sink"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIntegrationResponse(status))
}

// Connect handles POST /v1/profiles/:id/integrations/:sink/connect.
//
// @Summary      Connect an integration with an API key
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Profile id"
// @Param        sink  path      string          true  "Sink name (e.g. followupboss)"
// @Param        body  body      connectRequest  true  "Credentials"
// @Success      200   {object}  integrationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/profiles/{id}/integrations/{sink}/connect [post]
func (h *IntegrationHandler) Connect(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status, err := h.service.Connect(c.Request().Context(), actorID, c.Param("id"), c.Param("sink"), req.APIKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIntegrationResponse(status))
}

// Disconnect handles POST /v1/profiles/:id/integrations/:sink/disconnect.
//
// @Summary      Disconnect an integration
// @Tags         integrations
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Profile id"
// @Param        sink  path      string  true  "Sink name (e.g. followupboss)"
// @Success      200   {object}  integrationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/profiles/{id}/integrations/{sink}/disconnect [post]
func (h *IntegrationHandler) Disconnect(c echo.Context) error {
	actorID, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	status, err := h.service.Disconnect(c.Request().Context(), actorID, c.Param("id"), c.Param("sink"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIntegrationResponse(status))
}

// Test handles POST /v1/profiles/:id/integrations/:sink/test. Revoked
// credentials are reported through the returned state, not as an error.
//
// @Summary      Re-validate stored credentials
// @Tags         integrations
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Profile id"
// @Param        sink  path      string  true  "Sink name (e.g. followupboss)"
// @Success      200   {object}  integrationResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      412   {object}  errorResponse
// @Router       /v1/profiles/{id}/integrations/{sink}/test [post]
func (h *IntegrationHandler) Test(c echo.Context) error {
	status, err := h.service.Test(c.Request().Context(), c.Param("id"), c.Param("sink"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIntegrationResponse(status))
}
