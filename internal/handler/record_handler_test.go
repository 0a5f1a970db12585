package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/middleware"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type fakeRecordSrv struct {
	record     *models.TrainingRecord
	submitErr  error
	updateErr  error
	deleteErr  error
	item       *dto.RecordItem
	items      []dto.RecordItem
	lastPerson string
	lastActor  string
}

func (f *fakeRecordSrv) Submit(_ context.Context, actorID, personID string, _ dto.SubmitCompletionRequest) (*models.TrainingRecord, error) {
	f.lastActor = actorID
	f.lastPerson = personID
	return f.record, f.submitErr
}

func (f *fakeRecordSrv) Update(context.Context, string, string, dto.UpdateRecordRequest) (*models.TrainingRecord, error) {
	return f.record, f.updateErr
}

func (f *fakeRecordSrv) Delete(context.Context, string, string) error {
	return f.deleteErr
}

func (f *fakeRecordSrv) Get(context.Context, string) (*dto.RecordItem, error) {
	return f.item, nil
}

func (f *fakeRecordSrv) ListByPerson(context.Context, string) ([]dto.RecordItem, error) {
	return f.items, nil
}

func TestRecordHandlerSubmitCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRecordSrv{record: &models.TrainingRecord{ID: "rec-1"}}
	handler := NewRecordHandler(srv)

	body := `{"courseId":"c-1","dateCompleted":"2026-08-01"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/people/p-1/records", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "personId", Value: "p-1"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p-1", srv.lastPerson)
	assert.Equal(t, "mgr-1", srv.lastActor)
}

func TestRecordHandlerSubmitRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&fakeRecordSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/people/p-1/records", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordHandlerSubmitDuplicateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&fakeRecordSrv{submitErr: appErrors.ErrDuplicateRecord})

	body := `{"courseId":"c-1","dateCompleted":"2026-08-01"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/people/p-1/records", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Submit(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "DUPLICATE_RECORD", envelope.Error["code"])
}

func TestRecordHandlerUpdatePendingRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&fakeRecordSrv{updateErr: appErrors.ErrPendingImmutable})

	body := `{"dateCompleted":"2026-08-01"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/records/rec-1", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Update(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRecordHandlerDeleteNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRecordHandler(&fakeRecordSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/records/rec-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
