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

type recordService interface {
	Submit(ctx context.Context, actorID, personID string, req dto.SubmitCompletionRequest) (*models.TrainingRecord, error)
	Update(ctx context.Context, actorID, recordID string, req dto.UpdateRecordRequest) (*models.TrainingRecord, error)
	Delete(ctx context.Context, actorID, recordID string) error
	Get(ctx context.Context, recordID string) (*dto.RecordItem, error)
	ListByPerson(ctx context.Context, personID string) ([]dto.RecordItem, error)
}

// RecordHandler exposes training record submission and maintenance.
type RecordHandler struct {
	service recordService
}

// NewRecordHandler constructs a record handler.
func NewRecordHandler(svc recordService) *RecordHandler {
	return &RecordHandler{service: svc}
}

// Submit godoc
// @Summary Submit a training completion
// @Description Records a completion for a person, promoting any pending assignment in place
// @Tags Records
// @Accept json
// @Produce json
// @Param personId path string true "Person id"
// @Param payload body dto.SubmitCompletionRequest true "Completion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /people/{personId}/records [post]
func (h *RecordHandler) Submit(c *gin.Context) {
	var req dto.SubmitCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	record, err := h.service.Submit(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("personId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ListByPerson godoc
// @Summary List a person's training records
// @Tags Records
// @Produce json
// @Param personId path string true "Person id"
// @Success 200 {object} response.Envelope
// @Router /people/{personId}/records [get]
func (h *RecordHandler) ListByPerson(c *gin.Context) {
	items, err := h.service.ListByPerson(c.Request.Context(), c.Param("personId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get one training record
// @Tags Records
// @Produce json
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Correct a completed training record
// @Description Pending records cannot be edited, only completed ones
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Record id"
// @Param payload body dto.UpdateRecordRequest true "Record payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a completed training record
// @Tags Records
// @Param id path string true "Record id"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(claimsFromContext(c)), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
