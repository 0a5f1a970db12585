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
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type fakeAssignmentSrv struct {
	partition  *dto.AssignmentPartition
	previewErr error
	result     *dto.AssignmentResult
	createErr  error
	lastScope  dto.RosterScope
}

func (f *fakeAssignmentSrv) Preview(_ context.Context, _ dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentPartition, error) {
	f.lastScope = scope
	return f.partition, f.previewErr
}

func (f *fakeAssignmentSrv) Create(_ context.Context, _ string, _ dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentResult, error) {
	f.lastScope = scope
	return f.result, f.createErr
}

func TestAssignmentHandlerPreviewUsesWriteScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAssignmentSrv{partition: &dto.AssignmentPartition{}}
	scopes := &fakeScopes{companyID: "co-1"}
	handler := NewAssignmentHandler(srv, scopes)

	body := `{"courseId":"c-1","dueBy":"2026-12-31","recipientIds":["p-1"]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments/preview", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Preview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, scopes.lastWrite)
}

func TestAssignmentHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAssignmentHandler(&fakeAssignmentSrv{
		result: &dto.AssignmentResult{Created: []string{"p-1"}},
	}, &fakeScopes{companyID: "co-1"})

	body := `{"courseId":"c-1","dueBy":"2026-12-31","recipientIds":["p-1"]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAssignmentHandlerConflictCarriesPartition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAssignmentHandler(&fakeAssignmentSrv{
		result: &dto.AssignmentResult{
			Partition: dto.AssignmentPartition{
				Conflicting: []dto.RosterEntry{{PersonID: "p-done"}},
			},
		},
		createErr: appErrors.ErrAssignmentConflict,
	}, &fakeScopes{companyID: "co-1"})

	body := `{"courseId":"c-1","dueBy":"2026-12-31","recipientIds":["p-done"]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "ASSIGNMENT_CONFLICT", envelope.Error["code"])
	assert.NotNil(t, envelope.Data["partition"])
}

func TestAssignmentHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAssignmentHandler(&fakeAssignmentSrv{}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments", strings.NewReader("not json"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
