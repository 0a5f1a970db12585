package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type rosterRepository interface {
	ListStaffByCompany(ctx context.Context, companyID string) ([]models.StaffMember, error)
	ListStaffByHomes(ctx context.Context, homeIDs []string) ([]models.StaffMember, error)
	ListManagersByCompany(ctx context.Context, companyID string) ([]models.HomeManager, error)
	ListManagersByHomes(ctx context.Context, homeIDs []string) ([]models.HomeManager, error)
	FindStaff(ctx context.Context, personID string) (*models.StaffMember, error)
	LookupNames(ctx context.Context, personIDs []string) (map[string]string, error)
}

type homeDirectory interface {
	ListHomes(ctx context.Context, companyID string) ([]models.Home, error)
	FindHomes(ctx context.Context, homeIDs []string) ([]models.Home, error)
}

const displayNameFallbackLen = 8

// RosterService resolves a scope into the canonical list of people it
// covers. Staff, bank staff and home managers are merged and deduplicated
// by person id; managers appear even when they have no staff row and no
// training history. On any lookup failure the roster is empty and a typed
// error is surfaced, never a partial list.
type RosterService struct {
	repo   rosterRepository
	homes  homeDirectory
	logger *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, homes homeDirectory, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, homes: homes, logger: logger}
}

// Resolve expands the scope into roster entries sorted by display name.
func (s *RosterService) Resolve(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	switch scope.Kind {
	case dto.ScopeCompany:
		return s.resolveCompany(ctx, scope)
	case dto.ScopeManagedHomes:
		return s.resolveManagedHomes(ctx, scope)
	case dto.ScopeSelf:
		return s.resolveSelf(ctx, scope)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown roster scope")
	}
}

func (s *RosterService) resolveCompany(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	if scope.CompanyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "company scope requires a company id")
	}
	staff, err := s.repo.ListStaffByCompany(ctx, scope.CompanyID)
	if err != nil {
		return nil, s.scopeFailure("company staff lookup failed", err)
	}
	managers, err := s.repo.ListManagersByCompany(ctx, scope.CompanyID)
	if err != nil {
		return nil, s.scopeFailure("company manager lookup failed", err)
	}
	homes, err := s.homes.ListHomes(ctx, scope.CompanyID)
	if err != nil {
		return nil, s.scopeFailure("company home lookup failed", err)
	}
	return s.merge(ctx, staff, managers, homes, scope)
}

func (s *RosterService) resolveManagedHomes(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	if len(scope.ManagedHomeIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "managed-homes scope requires at least one home")
	}
	staff, err := s.repo.ListStaffByHomes(ctx, scope.ManagedHomeIDs)
	if err != nil {
		return nil, s.scopeFailure("home staff lookup failed", err)
	}
	managers, err := s.repo.ListManagersByHomes(ctx, scope.ManagedHomeIDs)
	if err != nil {
		return nil, s.scopeFailure("home manager lookup failed", err)
	}
	homes, err := s.homes.FindHomes(ctx, scope.ManagedHomeIDs)
	if err != nil {
		return nil, s.scopeFailure("home lookup failed", err)
	}
	return s.merge(ctx, staff, managers, homes, scope)
}

func (s *RosterService) resolveSelf(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	if scope.SelfID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "self scope requires a person id")
	}
	entry := dto.RosterEntry{PersonID: scope.SelfID}
	member, err := s.repo.FindStaff(ctx, scope.SelfID)
	switch {
	case err == nil:
		entry.HomeID = member.HomeID
		entry.Bank = member.HomeID == nil
		if member.HomeID != nil {
			if homes, herr := s.homes.FindHomes(ctx, []string{*member.HomeID}); herr == nil && len(homes) == 1 {
				entry.HomeName = homes[0].Name
			}
		}
	case errors.Is(err, sql.ErrNoRows):
		// Managers without a staff row still resolve to themselves.
	default:
		return nil, s.scopeFailure("self lookup failed", err)
	}

	names, err := s.repo.LookupNames(ctx, []string{scope.SelfID})
	if err != nil {
		return nil, s.scopeFailure("name lookup failed", err)
	}
	entry.DisplayName = displayName(scope.SelfID, names)
	return []dto.RosterEntry{entry}, nil
}

// merge combines staff and manager sources, dedupes by person id and
// decorates entries with home names and display names.
func (s *RosterService) merge(ctx context.Context, staff []models.StaffMember, managers []models.HomeManager, homes []models.Home, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	homeNames := make(map[string]string, len(homes))
	for _, h := range homes {
		homeNames[h.ID] = h.Name
	}

	entries := make(map[string]*dto.RosterEntry, len(staff)+len(managers))
	for _, member := range staff {
		entry := &dto.RosterEntry{
			PersonID: member.ID,
			HomeID:   member.HomeID,
			Bank:     member.HomeID == nil,
		}
		if member.HomeID != nil {
			entry.HomeName = homeNames[*member.HomeID]
		}
		entries[member.ID] = entry
	}

	for _, link := range managers {
		if existing, ok := entries[link.PersonID]; ok {
			existing.Manager = true
			continue
		}
		homeID := link.HomeID
		entries[link.PersonID] = &dto.RosterEntry{
			PersonID: link.PersonID,
			HomeID:   &homeID,
			HomeName: homeNames[homeID],
			Manager:  true,
		}
	}

	if scope.ExcludeManager && scope.ManagerID != "" {
		delete(entries, scope.ManagerID)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	names, err := s.repo.LookupNames(ctx, ids)
	if err != nil {
		return nil, s.scopeFailure("name lookup failed", err)
	}

	roster := make([]dto.RosterEntry, 0, len(entries))
	for _, entry := range entries {
		entry.DisplayName = displayName(entry.PersonID, names)
		roster = append(roster, *entry)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].DisplayName != roster[j].DisplayName {
			return roster[i].DisplayName < roster[j].DisplayName
		}
		return roster[i].PersonID < roster[j].PersonID
	})
	return roster, nil
}

func (s *RosterService) scopeFailure(message string, err error) error {
	s.logger.Error("roster scope resolution failed", zap.String("reason", message), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrScopeResolution.Code, appErrors.ErrScopeResolution.Status, message)
}

// displayName prefers the profile name and falls back to a truncated id
// when no profile exists.
func displayName(personID string, names map[string]string) string {
	if name, ok := names[personID]; ok && name != "" {
		return name
	}
	if len(personID) > displayNameFallbackLen {
		return personID[:displayNameFallbackLen]
	}
	return personID
}
