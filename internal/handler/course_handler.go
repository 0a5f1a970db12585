package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
	"github.com/haven-care/carehome-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, companyID string) ([]dto.CourseItem, error)
	Get(ctx context.Context, id string) (*dto.CourseItem, error)
	Create(ctx context.Context, actorID string, req dto.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actorID, id string, req dto.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actorID, id string) error
	ReplaceAudience(ctx context.Context, actorID, courseID string, req dto.ReplaceAudienceRequest) error
	ListTargets(ctx context.Context, courseID string) ([]models.MandateTarget, error)
}

// CourseHandler exposes the course catalog and its admin CRUD.
type CourseHandler struct {
	service courseService
	scopes  scopeBuilder
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc courseService, scopes scopeBuilder) *CourseHandler {
	return &CourseHandler{service: svc, scopes: scopes}
}

// List godoc
// @Summary List course catalog
// @Description List the caller's company courses with audience labels
// @Tags Courses
// @Produce json
// @Param companyId query string false "Company id (platform admins only)"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get one course
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	companyID, err := h.scopes.CompanyFor(claims, req.CompanyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.CompanyID = companyID

	course, err := h.service.Create(c.Request.Context(), actorID(claims), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body dto.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a course
// @Tags Courses
// @Param id path string true "Course id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReplaceAudience godoc
// @Summary Replace a course's targeted audience
// @Description Swap the per-person mandate targets wholesale
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course id"
// @Param payload body dto.ReplaceAudienceRequest true "Audience payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/audience [put]
func (h *CourseHandler) ReplaceAudience(c *gin.Context) {
	var req dto.ReplaceAudienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid audience payload"))
		return
	}
	if err := h.service.ReplaceAudience(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTargets godoc
// @Summary List a course's targeted audience
// @Tags Courses
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/audience [get]
func (h *CourseHandler) ListTargets(c *gin.Context) {
	targets, err := h.service.ListTargets(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, targets, nil)
}

func actorID(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	return claims.UserID
}
