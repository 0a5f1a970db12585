package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/middleware"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type fakeComplianceSrv struct {
	report     *dto.ComplianceReport
	reportErr  error
	course     *dto.SingleCourseReport
	courseErr  error
	homes      []dto.HomeComplianceSummary
	homesErr   error
	person     *dto.PersonTrainingView
	personErr  error
	csv        []byte
	pdf        []byte
	lastPerson string
}

func (f *fakeComplianceSrv) Report(context.Context, string, dto.RosterScope) (*dto.ComplianceReport, error) {
	return f.report, f.reportErr
}

func (f *fakeComplianceSrv) CourseReport(context.Context, string, dto.RosterScope) (*dto.SingleCourseReport, error) {
	return f.course, f.courseErr
}

func (f *fakeComplianceSrv) HomeSummary(context.Context, string) ([]dto.HomeComplianceSummary, error) {
	return f.homes, f.homesErr
}

func (f *fakeComplianceSrv) PersonView(_ context.Context, _ string, personID string) (*dto.PersonTrainingView, error) {
	f.lastPerson = personID
	return f.person, f.personErr
}

func (f *fakeComplianceSrv) ExportReportCSV(context.Context, string, dto.RosterScope) ([]byte, error) {
	return f.csv, nil
}

func (f *fakeComplianceSrv) ExportCourseCSV(context.Context, string, dto.RosterScope) ([]byte, error) {
	return f.csv, nil
}

func (f *fakeComplianceSrv) ExportHomeSummaryPDF(context.Context, string) ([]byte, error) {
	return f.pdf, nil
}

func TestComplianceHandlerReportSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComplianceHandler(&fakeComplianceSrv{
		report: &dto.ComplianceReport{CompanyID: "co-1"},
	}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/report", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Report(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "co-1", envelope.Data["companyId"])
}

func TestComplianceHandlerReportScopeFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComplianceHandler(&fakeComplianceSrv{}, &fakeScopes{
		companyID: "co-1",
		buildErr:  appErrors.ErrScopeResolution,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/report", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.Report(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "SCOPE_RESOLUTION", envelope.Error["code"])
}

func TestComplianceHandlerCourseReportNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComplianceHandler(&fakeComplianceSrv{
		courseErr: appErrors.ErrNotFound,
	}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/courses/c-missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-missing"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.CourseReport(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComplianceHandlerPersonViewUsesRouteParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeComplianceSrv{person: &dto.PersonTrainingView{PersonID: "p-1"}}
	handler := NewComplianceHandler(srv, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/people/p-1/training", nil)
	c.Params = gin.Params{{Key: "personId", Value: "p-1"}}
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.PersonView(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p-1", srv.lastPerson)
}

func TestComplianceHandlerExportReportHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComplianceHandler(&fakeComplianceSrv{
		csv: []byte("Person,Home,Bank,Missing mandatory courses\n"),
	}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/report/export", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.ExportReport(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compliance-report.csv")
	assert.Contains(t, rec.Body.String(), "Missing mandatory courses")
}

func TestComplianceHandlerExportHomeSummaryPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewComplianceHandler(&fakeComplianceSrv{
		pdf: []byte("%PDF-1.3"),
	}, &fakeScopes{companyID: "co-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/compliance/homes/export", nil)
	c.Set(middleware.ContextUserKey, managerClaims())

	handler.ExportHomeSummary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "%PDF")
}
