package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type managedHomesLookup interface {
	ManagedHomeIDs(ctx context.Context, personID string) ([]string, error)
}

// ScopeService translates a caller's claims into a roster scope. This is
// the only place authorisation level meets roster access: company admins
// see their company, home managers their homes, staff themselves, and
// platform admins any company they name.
type ScopeService struct {
	homes  managedHomesLookup
	logger *zap.Logger
}

// NewScopeService constructs the scope service.
func NewScopeService(homes managedHomesLookup, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{homes: homes, logger: logger}
}

// Build derives the scope for the caller. companyID is honoured only for
// platform admins; everyone else is pinned to their own tenancy. forWrite
// excludes a home manager's own entry so they cannot assign training to
// themselves.
func (s *ScopeService) Build(ctx context.Context, claims *models.JWTClaims, companyID string, forWrite bool) (dto.RosterScope, error) {
	if claims == nil {
		return dto.RosterScope{}, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	switch claims.Role {
	case models.RolePlatformAdmin:
		if companyID == "" {
			return dto.RosterScope{}, appErrors.Clone(appErrors.ErrValidation, "companyId is required for platform admins")
		}
		return dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: companyID}, nil
	case models.RoleCompanyAdmin:
		if claims.CompanyID == nil {
			return dto.RosterScope{}, appErrors.Clone(appErrors.ErrForbidden, "company admin has no company")
		}
		return dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: *claims.CompanyID}, nil
	case models.RoleHomeManager:
		homeIDs, err := s.homes.ManagedHomeIDs(ctx, claims.UserID)
		if err != nil {
			s.logger.Error("managed homes lookup failed", zap.String("person_id", claims.UserID), zap.Error(err))
			return dto.RosterScope{}, appErrors.Wrap(err, appErrors.ErrScopeResolution.Code, appErrors.ErrScopeResolution.Status, "failed to resolve managed homes")
		}
		if len(homeIDs) == 0 {
			return dto.RosterScope{}, appErrors.Clone(appErrors.ErrForbidden, "no managed homes")
		}
		return dto.RosterScope{
			Kind:           dto.ScopeManagedHomes,
			ManagedHomeIDs: homeIDs,
			ManagerID:      claims.UserID,
			ExcludeManager: forWrite,
		}, nil
	case models.RoleStaff:
		if forWrite {
			return dto.RosterScope{}, appErrors.Clone(appErrors.ErrForbidden, "")
		}
		return dto.RosterScope{Kind: dto.ScopeSelf, SelfID: claims.UserID}, nil
	default:
		return dto.RosterScope{}, appErrors.Clone(appErrors.ErrForbidden, "")
	}
}

// CompanyFor returns the company a caller's reports should draw from.
func (s *ScopeService) CompanyFor(claims *models.JWTClaims, companyID string) (string, error) {
	if claims == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if claims.Role == models.RolePlatformAdmin {
		if companyID == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "companyId is required for platform admins")
		}
		return companyID, nil
	}
	if claims.CompanyID == nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "caller has no company")
	}
	return *claims.CompanyID, nil
}
