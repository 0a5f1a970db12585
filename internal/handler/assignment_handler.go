package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/dto"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
	"github.com/haven-care/carehome-api/pkg/response"
)

type assignmentService interface {
	Preview(ctx context.Context, req dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentPartition, error)
	Create(ctx context.Context, actorID string, req dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentResult, error)
}

// AssignmentHandler exposes the training assignment workflow.
type AssignmentHandler struct {
	service assignmentService
	scopes  scopeBuilder
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc assignmentService, scopes scopeBuilder) *AssignmentHandler {
	return &AssignmentHandler{service: svc, scopes: scopes}
}

// Preview godoc
// @Summary Preview an assignment's conflict partition
// @Description Splits recipients into fresh and conflicting without writing anything
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments/preview [post]
func (h *AssignmentHandler) Preview(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	companyID, err := h.scopes.CompanyFor(claims, c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	scope, err := h.scopes.Build(c.Request.Context(), claims, companyID, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	partition, err := h.service.Preview(c.Request.Context(), req, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partition, nil)
}

// Create godoc
// @Summary Create training assignments
// @Description Assigns a course with a due-by date; conflicts require an explicit resolution
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	companyID, err := h.scopes.CompanyFor(claims, c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	scope, err := h.scopes.Build(c.Request.Context(), claims, companyID, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Create(c.Request.Context(), actorID(claims), req, scope)
	if err != nil {
		// A conflict still carries the partition so the caller can choose a
		// resolution and retry.
		appErr := appErrors.FromError(err)
		if result != nil && appErr.Code == appErrors.ErrAssignmentConflict.Code {
			c.JSON(appErr.Status, response.Envelope{Data: result, Error: appErr})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
