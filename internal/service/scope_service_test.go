package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type managedHomesStub struct {
	homeIDs []string
	err     error
}

func (s *managedHomesStub) ManagedHomeIDs(ctx context.Context, personID string) ([]string, error) {
	return s.homeIDs, s.err
}

func TestBuildScopePlatformAdminRequiresCompany(t *testing.T) {
	svc := NewScopeService(&managedHomesStub{}, nil)
	claims := &models.JWTClaims{UserID: "u1", Role: models.RolePlatformAdmin}

	_, err := svc.Build(context.Background(), claims, "", false)
	require.Error(t, err)

	scope, err := svc.Build(context.Background(), claims, "co1", false)
	require.NoError(t, err)
	assert.Equal(t, dto.ScopeCompany, scope.Kind)
	assert.Equal(t, "co1", scope.CompanyID)
}

func TestBuildScopeCompanyAdminPinnedToOwnCompany(t *testing.T) {
	svc := NewScopeService(&managedHomesStub{}, nil)
	company := "co1"
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleCompanyAdmin, CompanyID: &company}

	// A companyId parameter cannot redirect a company admin elsewhere.
	scope, err := svc.Build(context.Background(), claims, "co2", false)
	require.NoError(t, err)
	assert.Equal(t, "co1", scope.CompanyID)
}

func TestBuildScopeHomeManagerWriteExcludesSelf(t *testing.T) {
	svc := NewScopeService(&managedHomesStub{homeIDs: []string{"h1", "h2"}}, nil)
	claims := &models.JWTClaims{UserID: "p-mary", Role: models.RoleHomeManager}

	scope, err := svc.Build(context.Background(), claims, "", true)
	require.NoError(t, err)
	assert.Equal(t, dto.ScopeManagedHomes, scope.Kind)
	assert.Equal(t, []string{"h1", "h2"}, scope.ManagedHomeIDs)
	assert.True(t, scope.ExcludeManager)

	scope, err = svc.Build(context.Background(), claims, "", false)
	require.NoError(t, err)
	assert.False(t, scope.ExcludeManager)
}

func TestBuildScopeHomeManagerLookupFailure(t *testing.T) {
	svc := NewScopeService(&managedHomesStub{err: errors.New("db down")}, nil)
	claims := &models.JWTClaims{UserID: "p-mary", Role: models.RoleHomeManager}

	_, err := svc.Build(context.Background(), claims, "", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScopeResolution.Code, appErrors.FromError(err).Code)
}

func TestBuildScopeStaffCannotWrite(t *testing.T) {
	svc := NewScopeService(&managedHomesStub{}, nil)
	claims := &models.JWTClaims{UserID: "p-sam", Role: models.RoleStaff}

	scope, err := svc.Build(context.Background(), claims, "", false)
	require.NoError(t, err)
	assert.Equal(t, dto.ScopeSelf, scope.Kind)
	assert.Equal(t, "p-sam", scope.SelfID)

	_, err = svc.Build(context.Background(), claims, "", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
