package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type assignmentRecordRepository interface {
	LivePersonIDs(ctx context.Context, courseID string, personIDs []string) (map[string]struct{}, error)
	FindForPersonCourse(ctx context.Context, personID, courseID string) (*models.TrainingRecord, error)
	CreatePending(ctx context.Context, record *models.TrainingRecord) error
	UpdateDueBy(ctx context.Context, personID, courseID string, dueBy time.Time) error
}

// AssignmentService creates due-by training assignments. The conflict check
// (recipients already holding a live completion) is check-then-act; the
// storage-level unique index backstops the race and the loser sees a
// retryable duplicate error. Writes across recipients are not atomic:
// partial failure is reported per recipient, never silently rolled back.
type AssignmentService struct {
	records   assignmentRecordRepository
	courses   recordCourseLookup
	roster    rosterResolver
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(records assignmentRecordRepository, courses recordCourseLookup, roster rosterResolver, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{records: records, courses: courses, roster: roster, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Preview partitions the requested recipients into fresh and conflicting
// without writing anything. The caller picks a resolution and calls Create.
func (s *AssignmentService) Preview(ctx context.Context, req dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentPartition, error) {
	course, _, err := s.validateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	recipients, err := s.resolveRecipients(ctx, req, scope)
	if err != nil {
		return nil, err
	}
	partition, err := s.partition(ctx, course.ID, recipients)
	if err != nil {
		return nil, err
	}
	return partition, nil
}

// Create writes the assignment. With no resolution set and at least one
// conflicting recipient, nothing is written and the conflict surfaces with
// the partition so the caller can choose. Resolution SKIP assigns only to
// fresh recipients; ALL additionally moves the due-by date on conflicting
// recipients' existing records.
func (s *AssignmentService) Create(ctx context.Context, actorID string, req dto.CreateAssignmentRequest, scope dto.RosterScope) (*dto.AssignmentResult, error) {
	course, dueBy, err := s.validateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	recipients, err := s.resolveRecipients(ctx, req, scope)
	if err != nil {
		return nil, err
	}
	partition, err := s.partition(ctx, course.ID, recipients)
	if err != nil {
		return nil, err
	}

	if len(partition.Conflicting) > 0 && req.Resolution == "" {
		return &dto.AssignmentResult{Partition: *partition}, appErrors.Clone(appErrors.ErrAssignmentConflict, "")
	}

	result := &dto.AssignmentResult{Partition: *partition}
	for _, person := range partition.Fresh {
		if err := s.assignFresh(ctx, actorID, course, person.PersonID, dueBy); err != nil {
			result.Failed = append(result.Failed, dto.RecipientFailure{PersonID: person.PersonID, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, person.PersonID)
	}

	for _, person := range partition.Conflicting {
		if req.Resolution == dto.ResolutionSkip {
			result.Skipped = append(result.Skipped, person.PersonID)
			continue
		}
		if err := s.records.UpdateDueBy(ctx, person.PersonID, course.ID, dueBy); err != nil {
			result.Failed = append(result.Failed, dto.RecipientFailure{PersonID: person.PersonID, Reason: err.Error()})
			continue
		}
		result.Updated = append(result.Updated, person.PersonID)
	}

	s.recordAudit(ctx, actorID, course.ID)
	s.invalidateCompliance(ctx, course.CompanyID)
	return result, nil
}

func (s *AssignmentService) validateRequest(ctx context.Context, req dto.CreateAssignmentRequest) (*models.Course, time.Time, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	dueBy, err := time.Parse(dateLayout, req.DueBy)
	if err != nil {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "dueBy must be YYYY-MM-DD")
	}
	if req.Resolution != "" && req.Resolution != dto.ResolutionSkip && req.Resolution != dto.ResolutionAll {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "resolution must be SKIP or ALL")
	}
	if len(req.RecipientIDs) == 0 && len(req.HomeIDs) == 0 {
		return nil, time.Time{}, appErrors.Clone(appErrors.ErrNoRecipients, "select at least one recipient or home")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, dueBy, nil
}

// resolveRecipients narrows the caller's write-scope roster to the people
// named individually or belonging to a selected home.
func (s *AssignmentService) resolveRecipients(ctx context.Context, req dto.CreateAssignmentRequest, scope dto.RosterScope) ([]dto.RosterEntry, error) {
	roster, err := s.roster.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	wantedPeople := make(map[string]struct{}, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		wantedPeople[id] = struct{}{}
	}
	wantedHomes := make(map[string]struct{}, len(req.HomeIDs))
	for _, id := range req.HomeIDs {
		wantedHomes[id] = struct{}{}
	}

	recipients := make([]dto.RosterEntry, 0, len(roster))
	for _, entry := range roster {
		if _, ok := wantedPeople[entry.PersonID]; ok {
			recipients = append(recipients, entry)
			continue
		}
		if entry.HomeID != nil {
			if _, ok := wantedHomes[*entry.HomeID]; ok {
				recipients = append(recipients, entry)
			}
		}
	}
	if len(recipients) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoRecipients, "")
	}
	return recipients, nil
}

func (s *AssignmentService) partition(ctx context.Context, courseID string, recipients []dto.RosterEntry) (*dto.AssignmentPartition, error) {
	ids := make([]string, 0, len(recipients))
	for _, entry := range recipients {
		ids = append(ids, entry.PersonID)
	}
	live, err := s.records.LivePersonIDs(ctx, courseID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing completions")
	}
	partition := &dto.AssignmentPartition{Fresh: []dto.RosterEntry{}, Conflicting: []dto.RosterEntry{}}
	for _, entry := range recipients {
		if _, ok := live[entry.PersonID]; ok {
			partition.Conflicting = append(partition.Conflicting, entry)
			continue
		}
		partition.Fresh = append(partition.Fresh, entry)
	}
	return partition, nil
}

// assignFresh creates a pending record, or moves the due-by date when the
// person already has an outstanding pending row for the course.
func (s *AssignmentService) assignFresh(ctx context.Context, actorID string, course *models.Course, personID string, dueBy time.Time) error {
	existing, err := s.records.FindForPersonCourse(ctx, personID, course.ID)
	switch {
	case err == nil && existing.Pending():
		return s.records.UpdateDueBy(ctx, personID, course.ID, dueBy)
	case err == nil:
		// A completion landed between the partition check and this write.
		return appErrors.Clone(appErrors.ErrDuplicateRecord, "")
	case errors.Is(err, sql.ErrNoRows):
		record := &models.TrainingRecord{
			PersonID:  personID,
			CourseID:  course.ID,
			CompanyID: course.CompanyID,
			DueBy:     &dueBy,
			CreatedBy: actorID,
		}
		return s.records.CreatePending(ctx, record)
	default:
		return err
	}
}

func (s *AssignmentService) recordAudit(ctx context.Context, actorID, courseID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{Action: models.AuditActionAssignmentCreate, Resource: "assignment", ResourceID: &courseID}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record assignment audit log", zap.Error(err))
	}
}

func (s *AssignmentService) invalidateCompliance(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, complianceCachePattern(companyID)); err != nil {
		s.logger.Warn("failed to invalidate compliance cache", zap.String("company_id", companyID), zap.Error(err))
	}
}
