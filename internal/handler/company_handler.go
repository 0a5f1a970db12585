package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/models"
	"github.com/haven-care/carehome-api/pkg/response"
)

type companyService interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	ListHomes(ctx context.Context, companyID string) ([]models.Home, error)
}

// CompanyHandler exposes the company and home directory.
type CompanyHandler struct {
	service companyService
	scopes  scopeBuilder
}

// NewCompanyHandler constructs a company handler.
func NewCompanyHandler(svc companyService, scopes scopeBuilder) *CompanyHandler {
	return &CompanyHandler{service: svc, scopes: scopes}
}

// List godoc
// @Summary List companies
// @Description Platform administration view of all tenant companies
// @Tags Companies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.service.ListCompanies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}

// Get godoc
// @Summary Get one company
// @Tags Companies
// @Produce json
// @Param id path string true "Company id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	company, err := h.service.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// ListHomes godoc
// @Summary List a company's homes
// @Tags Companies
// @Produce json
// @Param id path string true "Company id"
// @Success 200 {object} response.Envelope
// @Router /companies/{id}/homes [get]
func (h *CompanyHandler) ListHomes(c *gin.Context) {
	companyID, err := h.scopes.CompanyFor(claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	homes, err := h.service.ListHomes(c.Request.Context(), companyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homes, nil)
}
