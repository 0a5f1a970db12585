package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type companyRepository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	FindCompany(ctx context.Context, id string) (*models.Company, error)
	ListHomes(ctx context.Context, companyID string) ([]models.Home, error)
}

// CompanyService is the thin directory layer over companies and homes.
type CompanyService struct {
	repo companyRepository
}

// NewCompanyService constructs the company service.
func NewCompanyService(repo companyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

// ListCompanies returns every tenant, for platform-admin company pickers.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, nil
}

// GetCompany returns one company.
func (s *CompanyService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	company, err := s.repo.FindCompany(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// ListHomes returns a company's homes ordered by name.
func (s *CompanyService) ListHomes(ctx context.Context, companyID string) ([]models.Home, error) {
	homes, err := s.repo.ListHomes(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homes")
	}
	return homes, nil
}
