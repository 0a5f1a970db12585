package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haven-care/carehome-api/internal/models"
)

// RosterRepository reads the people, homes and profiles that feed the
// roster resolver. It owns no business logic; the resolver merges and
// deduplicates its outputs.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListStaffByCompany returns every staff row in a company, bank staff
// included (home_id NULL).
func (r *RosterRepository) ListStaffByCompany(ctx context.Context, companyID string) ([]models.StaffMember, error) {
	const query = `SELECT id, company_id, home_id, created_at FROM staff WHERE company_id = $1`
	var staff []models.StaffMember
	if err := r.db.SelectContext(ctx, &staff, query, companyID); err != nil {
		return nil, fmt.Errorf("list company staff: %w", err)
	}
	return staff, nil
}

// ListStaffByHomes returns staff affiliated with any of the given homes.
func (r *RosterRepository) ListStaffByHomes(ctx context.Context, homeIDs []string) ([]models.StaffMember, error) {
	if len(homeIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, company_id, home_id, created_at FROM staff WHERE home_id = ANY($1)`
	var staff []models.StaffMember
	if err := r.db.SelectContext(ctx, &staff, query, pq.Array(homeIDs)); err != nil {
		return nil, fmt.Errorf("list home staff: %w", err)
	}
	return staff, nil
}

// ListManagersByCompany returns every home-manager link in a company, even
// for managers with no staff row and no training records.
func (r *RosterRepository) ListManagersByCompany(ctx context.Context, companyID string) ([]models.HomeManager, error) {
	const query = `SELECT hm.home_id, hm.person_id FROM home_managers hm JOIN homes h ON h.id = hm.home_id WHERE h.company_id = $1`
	var managers []models.HomeManager
	if err := r.db.SelectContext(ctx, &managers, query, companyID); err != nil {
		return nil, fmt.Errorf("list company managers: %w", err)
	}
	return managers, nil
}

// ListManagersByHomes returns the manager links for the given homes.
func (r *RosterRepository) ListManagersByHomes(ctx context.Context, homeIDs []string) ([]models.HomeManager, error) {
	if len(homeIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT home_id, person_id FROM home_managers WHERE home_id = ANY($1)`
	var managers []models.HomeManager
	if err := r.db.SelectContext(ctx, &managers, query, pq.Array(homeIDs)); err != nil {
		return nil, fmt.Errorf("list home managers: %w", err)
	}
	return managers, nil
}

// ManagedHomeIDs returns the ids of homes a person manages.
func (r *RosterRepository) ManagedHomeIDs(ctx context.Context, personID string) ([]string, error) {
	const query = `SELECT home_id FROM home_managers WHERE person_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, personID); err != nil {
		return nil, fmt.Errorf("managed home ids: %w", err)
	}
	return ids, nil
}

// FindStaff returns a single staff row, used for self scope.
func (r *RosterRepository) FindStaff(ctx context.Context, personID string) (*models.StaffMember, error) {
	const query = `SELECT id, company_id, home_id, created_at FROM staff WHERE id = $1`
	var member models.StaffMember
	if err := r.db.GetContext(ctx, &member, query, personID); err != nil {
		return nil, err
	}
	return &member, nil
}

// LookupNames resolves display names for the given people. Missing profiles
// are simply absent from the map, never an error.
func (r *RosterRepository) LookupNames(ctx context.Context, personIDs []string) (map[string]string, error) {
	if len(personIDs) == 0 {
		return map[string]string{}, nil
	}
	const query = `SELECT person_id, full_name FROM profiles WHERE person_id = ANY($1)`
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, pq.Array(personIDs)); err != nil {
		return nil, fmt.Errorf("lookup names: %w", err)
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.PersonID] = p.FullName
	}
	return names, nil
}
