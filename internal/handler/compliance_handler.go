package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/pkg/response"
)

type complianceService interface {
	Report(ctx context.Context, companyID string, scope dto.RosterScope) (*dto.ComplianceReport, error)
	CourseReport(ctx context.Context, courseID string, scope dto.RosterScope) (*dto.SingleCourseReport, error)
	HomeSummary(ctx context.Context, companyID string) ([]dto.HomeComplianceSummary, error)
	PersonView(ctx context.Context, companyID, personID string) (*dto.PersonTrainingView, error)
	ExportReportCSV(ctx context.Context, companyID string, scope dto.RosterScope) ([]byte, error)
	ExportCourseCSV(ctx context.Context, courseID string, scope dto.RosterScope) ([]byte, error)
	ExportHomeSummaryPDF(ctx context.Context, companyID string) ([]byte, error)
}

// ComplianceHandler exposes the compliance reports and exports.
type ComplianceHandler struct {
	service complianceService
	scopes  scopeBuilder
}

// NewComplianceHandler constructs a compliance handler.
func NewComplianceHandler(svc complianceService, scopes scopeBuilder) *ComplianceHandler {
	return &ComplianceHandler{service: svc, scopes: scopes}
}

// Report godoc
// @Summary Mandatory-mode compliance report
// @Description Compliant and non-compliant people in the caller's scope
// @Tags Compliance
// @Produce json
// @Param companyId query string false "Company id (platform admins only)"
// @Success 200 {object} response.Envelope
// @Router /compliance/report [get]
func (h *ComplianceHandler) Report(c *gin.Context) {
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
	report, err := h.service.Report(c.Request.Context(), companyID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// CourseReport godoc
// @Summary Single-course status breakdown
// @Tags Compliance
// @Produce json
// @Param id path string true "Course id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /compliance/courses/{id} [get]
func (h *ComplianceHandler) CourseReport(c *gin.Context) {
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
	report, err := h.service.CourseReport(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// HomeSummary godoc
// @Summary Per-home compliance summary
// @Description Compliance rate per home with a synthetic bank-staff bucket
// @Tags Compliance
// @Produce json
// @Param companyId query string false "Company id (platform admins only)"
// @Success 200 {object} response.Envelope
// @Router /compliance/homes [get]
func (h *ComplianceHandler) HomeSummary(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	summaries, err := h.service.HomeSummary(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// PersonView godoc
// @Summary Person training view
// @Description Every required or recorded course for one person
// @Tags Compliance
// @Produce json
// @Param personId path string true "Person id"
// @Success 200 {object} response.Envelope
// @Router /people/{personId}/training [get]
func (h *ComplianceHandler) PersonView(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.PersonView(c.Request.Context(), companyID, c.Param("personId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ExportReport godoc
// @Summary Export the non-compliant list as CSV
// @Tags Compliance
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /compliance/report/export [get]
func (h *ComplianceHandler) ExportReport(c *gin.Context) {
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
	data, err := h.service.ExportReportCSV(c.Request.Context(), companyID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="compliance-report.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportCourse godoc
// @Summary Export a single-course gap list as CSV
// @Tags Compliance
// @Produce text/csv
// @Param id path string true "Course id"
// @Success 200 {string} string "CSV payload"
// @Router /compliance/courses/{id}/export [get]
func (h *ComplianceHandler) ExportCourse(c *gin.Context) {
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
	data, err := h.service.ExportCourseCSV(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="course-report.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportHomeSummary godoc
// @Summary Export the per-home summary as PDF
// @Tags Compliance
// @Produce application/pdf
// @Success 200 {string} string "PDF payload"
// @Router /compliance/homes/export [get]
func (h *ComplianceHandler) ExportHomeSummary(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Query("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.ExportHomeSummaryPDF(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="compliance-homes.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
