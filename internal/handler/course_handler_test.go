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

type fakeCourseSrv struct {
	items       []dto.CourseItem
	listErr     error
	course      *models.Course
	createErr   error
	lastCompany string
	lastCreate  dto.CreateCourseRequest
}

func (f *fakeCourseSrv) List(_ context.Context, companyID string) ([]dto.CourseItem, error) {
	f.lastCompany = companyID
	return f.items, f.listErr
}

func (f *fakeCourseSrv) Get(context.Context, string) (*dto.CourseItem, error) {
	return nil, appErrors.ErrNotFound
}

func (f *fakeCourseSrv) Create(_ context.Context, _ string, req dto.CreateCourseRequest) (*models.Course, error) {
	f.lastCreate = req
	return f.course, f.createErr
}

func (f *fakeCourseSrv) Update(context.Context, string, string, dto.UpdateCourseRequest) (*models.Course, error) {
	return f.course, nil
}

func (f *fakeCourseSrv) Delete(context.Context, string, string) error {
	return nil
}

func (f *fakeCourseSrv) ReplaceAudience(context.Context, string, string, dto.ReplaceAudienceRequest) error {
	return nil
}

func (f *fakeCourseSrv) ListTargets(context.Context, string) ([]models.MandateTarget, error) {
	return nil, nil
}

func TestCourseHandlerListUsesCallerCompany(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCourseSrv{items: []dto.CourseItem{}}
	handler := NewCourseHandler(srv, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "co-1", srv.lastCompany)
}

func TestCourseHandlerCreatePinsCompany(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCourseSrv{course: &models.Course{ID: "c-1"}}
	handler := NewCourseHandler(srv, &fakeScopes{companyID: "co-1"})

	body := `{"companyId":"co-other","name":"Fire Safety","trainingType":"EVERYONE"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "co-1", srv.lastCreate.CompanyID)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(&fakeCourseSrv{}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/c-missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-missing"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "NOT_FOUND", envelope.Error["code"])
}
