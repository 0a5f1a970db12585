package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/pkg/response"
)

type rosterService interface {
	Resolve(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error)
}

// RosterHandler exposes the caller's visible roster.
type RosterHandler struct {
	service rosterService
	scopes  scopeBuilder
}

// NewRosterHandler constructs a roster handler.
func NewRosterHandler(svc rosterService, scopes scopeBuilder) *RosterHandler {
	return &RosterHandler{service: svc, scopes: scopes}
}

// List godoc
// @Summary List the caller's roster
// @Description Resolves the deduplicated list of people visible to the caller
// @Tags Roster
// @Produce json
// @Param companyId query string false "Company id (platform admins only)"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	companyID, err := h.scopes.CompanyFor(claims, c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	scope, err := h.scopes.Build(c.Request.Context(), claims, companyID, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.Resolve(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
