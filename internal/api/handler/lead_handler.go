package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/frs/profile-directory/internal/core/ports"
)

// LeadHandler accepts the public lead form of a profile page and forwards it
// to the profile's CRM.
type LeadHandler struct {
	service ports.IntegrationService
	source  string
}

func NewLeadHandler(service ports.IntegrationService, source string) *LeadHandler {
	return &LeadHandler{service: service, source: source}
}

type leadRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
	Email     string `json:"email"      validate:"required,email"`
	Phone     string `json:"phone"      validate:"max=40"`
	Message   string `json:"message"    validate:"max=5000"`
	PageURL   string `json:"page_url"   validate:"omitempty,url"`
}

// Submit handles POST /v1/profiles/:id/leads.
//
// @Summary      Submit a lead for a profile
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Profile id"
// @Param        body  body      leadRequest  true  "Lead"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      412   {object}  errorResponse
// @Router       /v1/profiles/{id}/leads [post]
func (h *LeadHandler) Submit(c echo.Context) error {
	var req leadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.service.SubmitLead(c.Request().Context(), c.Param("id"), ports.CRMLead{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   req.Message,
		Source:    h.source,
		PageURL:   req.PageURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "lead accepted"})
}
