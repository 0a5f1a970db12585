package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type rosterRepoStub struct {
	staff    []models.StaffMember
	managers []models.HomeManager
	self     *models.StaffMember
	names    map[string]string

	staffErr   error
	managerErr error
	nameErr    error
}

func (s *rosterRepoStub) ListStaffByCompany(ctx context.Context, companyID string) ([]models.StaffMember, error) {
	return s.staff, s.staffErr
}

func (s *rosterRepoStub) ListStaffByHomes(ctx context.Context, homeIDs []string) ([]models.StaffMember, error) {
	return s.staff, s.staffErr
}

func (s *rosterRepoStub) ListManagersByCompany(ctx context.Context, companyID string) ([]models.HomeManager, error) {
	return s.managers, s.managerErr
}

func (s *rosterRepoStub) ListManagersByHomes(ctx context.Context, homeIDs []string) ([]models.HomeManager, error) {
	return s.managers, s.managerErr
}

func (s *rosterRepoStub) FindStaff(ctx context.Context, personID string) (*models.StaffMember, error) {
	if s.self == nil {
		return nil, sql.ErrNoRows
	}
	return s.self, nil
}

func (s *rosterRepoStub) LookupNames(ctx context.Context, personIDs []string) (map[string]string, error) {
	if s.nameErr != nil {
		return nil, s.nameErr
	}
	if s.names == nil {
		return map[string]string{}, nil
	}
	return s.names, nil
}

type homeDirStub struct {
	homes []models.Home
	err   error
}

func (s *homeDirStub) ListHomes(ctx context.Context, companyID string) ([]models.Home, error) {
	return s.homes, s.err
}

func (s *homeDirStub) FindHomes(ctx context.Context, homeIDs []string) ([]models.Home, error) {
	return s.homes, s.err
}

func strPtr(v string) *string { return &v }

func TestResolveCompanyMergesStaffBankAndManagers(t *testing.T) {
	repo := &rosterRepoStub{
		staff: []models.StaffMember{
			{ID: "p-alice", CompanyID: "c1", HomeID: strPtr("h1")},
			{ID: "p-bob", CompanyID: "c1"},
		},
		managers: []models.HomeManager{{HomeID: "h1", PersonID: "p-mary"}},
		names: map[string]string{
			"p-alice": "Alice Ward",
			"p-bob":   "Bob Field",
			"p-mary":  "Mary Lodge",
		},
	}
	homes := &homeDirStub{homes: []models.Home{{ID: "h1", CompanyID: "c1", Name: "Rose House"}}}
	svc := NewRosterService(repo, homes, nil)

	roster, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, roster, 3)

	byID := map[string]dto.RosterEntry{}
	for _, e := range roster {
		byID[e.PersonID] = e
	}
	assert.Equal(t, "Rose House", byID["p-alice"].HomeName)
	assert.False(t, byID["p-alice"].Bank)
	assert.True(t, byID["p-bob"].Bank)
	assert.Nil(t, byID["p-bob"].HomeID)
	assert.True(t, byID["p-mary"].Manager)
	assert.Equal(t, "Rose House", byID["p-mary"].HomeName)
}

func TestResolveDeduplicatesManagerWithStaffRow(t *testing.T) {
	repo := &rosterRepoStub{
		staff:    []models.StaffMember{{ID: "p-mary", CompanyID: "c1", HomeID: strPtr("h1")}},
		managers: []models.HomeManager{{HomeID: "h1", PersonID: "p-mary"}},
		names:    map[string]string{"p-mary": "Mary Lodge"},
	}
	svc := NewRosterService(repo, &homeDirStub{}, nil)

	roster, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.True(t, roster[0].Manager)
	assert.False(t, roster[0].Bank)
}

func TestResolveManagedHomesExcludesManagerForWrites(t *testing.T) {
	repo := &rosterRepoStub{
		staff:    []models.StaffMember{{ID: "p-alice", CompanyID: "c1", HomeID: strPtr("h1")}},
		managers: []models.HomeManager{{HomeID: "h1", PersonID: "p-mary"}},
		names:    map[string]string{"p-alice": "Alice Ward", "p-mary": "Mary Lodge"},
	}
	svc := NewRosterService(repo, &homeDirStub{}, nil)

	scope := dto.RosterScope{
		Kind:           dto.ScopeManagedHomes,
		ManagedHomeIDs: []string{"h1"},
		ManagerID:      "p-mary",
		ExcludeManager: true,
	}
	roster, err := svc.Resolve(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "p-alice", roster[0].PersonID)

	// Read scope keeps the manager in.
	scope.ExcludeManager = false
	roster, err = svc.Resolve(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestResolveNameFallbackTruncatesID(t *testing.T) {
	repo := &rosterRepoStub{
		staff: []models.StaffMember{{ID: "0123456789abcdef", CompanyID: "c1"}},
	}
	svc := NewRosterService(repo, &homeDirStub{}, nil)

	roster, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "c1"})
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "01234567", roster[0].DisplayName)
}

func TestResolveLookupFailureYieldsEmptyRoster(t *testing.T) {
	repo := &rosterRepoStub{staffErr: errors.New("connection refused")}
	svc := NewRosterService(repo, &homeDirStub{}, nil)

	roster, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "c1"})
	require.Error(t, err)
	assert.Nil(t, roster)
	assert.Equal(t, appErrors.ErrScopeResolution.Code, appErrors.FromError(err).Code)
}

func TestResolveSelfWithoutStaffRow(t *testing.T) {
	repo := &rosterRepoStub{names: map[string]string{"p-mary": "Mary Lodge"}}
	svc := NewRosterService(repo, &homeDirStub{}, nil)

	roster, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: dto.ScopeSelf, SelfID: "p-mary"})
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Mary Lodge", roster[0].DisplayName)
	assert.Nil(t, roster[0].HomeID)
}

func TestResolveRejectsUnknownScope(t *testing.T) {
	svc := NewRosterService(&rosterRepoStub{}, &homeDirStub{}, nil)
	_, err := svc.Resolve(context.Background(), dto.RosterScope{Kind: "EVERYTHING"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
