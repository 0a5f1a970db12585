package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haven-care/carehome-api/internal/models"
)

// CompanyRepository is the home/company directory: scoping and labelling
// lookups only.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs a CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// ListCompanies returns every company, ordered by name.
func (r *CompanyRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	const query = `SELECT id, name, created_at FROM companies ORDER BY name ASC`
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// FindCompany fetches one company.
func (r *CompanyRepository) FindCompany(ctx context.Context, id string) (*models.Company, error) {
	const query = `SELECT id, name, created_at FROM companies WHERE id = $1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// FindHomes fetches the given homes in one round trip. Unknown ids are
// simply absent from the result.
func (r *CompanyRepository) FindHomes(ctx context.Context, homeIDs []string) ([]models.Home, error) {
	if len(homeIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, company_id, name, created_at FROM homes WHERE id = ANY($1)`
	var homes []models.Home
	if err := r.db.SelectContext(ctx, &homes, query, pq.Array(homeIDs)); err != nil {
		return nil, fmt.Errorf("find homes: %w", err)
	}
	return homes, nil
}

// ListHomes returns a company's homes, ordered by name.
func (r *CompanyRepository) ListHomes(ctx context.Context, companyID string) ([]models.Home, error) {
	const query = `SELECT id, company_id, name, created_at FROM homes WHERE company_id = $1 ORDER BY name ASC`
	var homes []models.Home
	if err := r.db.SelectContext(ctx, &homes, query, companyID); err != nil {
		return nil, fmt.Errorf("list homes: %w", err)
	}
	return homes, nil
}
