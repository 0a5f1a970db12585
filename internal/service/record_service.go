package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/compliance"
	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type recordRepository interface {
	ListByPerson(ctx context.Context, personID string) ([]models.TrainingRecord, error)
	FindByID(ctx context.Context, id string) (*models.TrainingRecord, error)
	FindForPersonCourse(ctx context.Context, personID, courseID string) (*models.TrainingRecord, error)
	CreateCompleted(ctx context.Context, record *models.TrainingRecord) error
	Promote(ctx context.Context, id string, dateCompleted time.Time, certificateRef *string) error
	UpdateCompleted(ctx context.Context, id string, dateCompleted time.Time, certificateRef *string) error
	SetCertificateRef(ctx context.Context, id string, certificateRef *string) error
	DeleteCompleted(ctx context.Context, id string) error
}

type recordCourseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// RecordService owns the completion record lifecycle. A pending assignment
// is promoted in place when a completion is submitted for it; a second row
// is never inserted for the same person and course. Completed records can
// be edited and deleted; pending rows can only be promoted.
type RecordService struct {
	repo        recordRepository
	courses     recordCourseLookup
	audit       auditRecorder
	cache       *CacheService
	validator   *validator.Validate
	dueSoonDays int
	logger      *zap.Logger
	now         func() time.Time
}

// NewRecordService constructs the record service.
func NewRecordService(repo recordRepository, courses recordCourseLookup, audit auditRecorder, cache *CacheService, validate *validator.Validate, dueSoonDays int, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dueSoonDays <= 0 {
		dueSoonDays = 30
	}
	return &RecordService{repo: repo, courses: courses, audit: audit, cache: cache, validator: validate, dueSoonDays: dueSoonDays, logger: logger, now: time.Now}
}

// Submit logs a completion for a person and course. Three cases: a pending
// assignment is promoted in place, an existing completion is refreshed with
// the new date, and with no prior row a new completed record is inserted.
func (s *RecordService) Submit(ctx context.Context, actorID, personID string, req dto.SubmitCompletionRequest) (*models.TrainingRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	dateCompleted, err := time.Parse(dateLayout, req.DateCompleted)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateCompleted must be YYYY-MM-DD")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	existing, err := s.repo.FindForPersonCourse(ctx, personID, req.CourseID)
	switch {
	case err == nil && existing.Pending():
		if err := s.repo.Promote(ctx, existing.ID, dateCompleted, req.CertificateRef); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// The pending row was promoted by a concurrent submit.
				return nil, appErrors.Clone(appErrors.ErrDuplicateRecord, "")
			}
			return nil, s.mapWriteError(err, "failed to promote pending record")
		}
		s.recordAudit(ctx, actorID, models.AuditActionRecordSubmit, existing.ID)
		s.invalidateCompliance(ctx, course.CompanyID)
		return s.load(ctx, existing.ID)
	case err == nil:
		if err := s.repo.UpdateCompleted(ctx, existing.ID, dateCompleted, req.CertificateRef); err != nil {
			return nil, s.mapWriteError(err, "failed to refresh completed record")
		}
		s.recordAudit(ctx, actorID, models.AuditActionRecordSubmit, existing.ID)
		s.invalidateCompliance(ctx, course.CompanyID)
		return s.load(ctx, existing.ID)
	case errors.Is(err, sql.ErrNoRows):
		record := &models.TrainingRecord{
			PersonID:       personID,
			CourseID:       req.CourseID,
			CompanyID:      course.CompanyID,
			DateCompleted:  &dateCompleted,
			CertificateRef: req.CertificateRef,
			CreatedBy:      actorID,
		}
		if err := s.repo.CreateCompleted(ctx, record); err != nil {
			return nil, s.mapWriteError(err, "failed to create completed record")
		}
		s.recordAudit(ctx, actorID, models.AuditActionRecordSubmit, record.ID)
		s.invalidateCompliance(ctx, course.CompanyID)
		return record, nil
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing record")
	}
}

// Update edits a completed record's date and certificate reference.
func (s *RecordService) Update(ctx context.Context, actorID, recordID string, req dto.UpdateRecordRequest) (*models.TrainingRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	dateCompleted, err := time.Parse(dateLayout, req.DateCompleted)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateCompleted must be YYYY-MM-DD")
	}

	record, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Pending() {
		return nil, appErrors.Clone(appErrors.ErrPendingImmutable, "pending records cannot be edited, submit a completion instead")
	}
	if err := s.repo.UpdateCompleted(ctx, recordID, dateCompleted, req.CertificateRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, s.mapWriteError(err, "failed to update record")
	}
	s.recordAudit(ctx, actorID, models.AuditActionRecordUpdate, recordID)
	s.invalidateCompliance(ctx, record.CompanyID)
	return s.load(ctx, recordID)
}

// Delete removes a completed record. Pending assignments cannot be deleted
// through this path, only superseded by a completion.
func (s *RecordService) Delete(ctx context.Context, actorID, recordID string) error {
	record, err := s.find(ctx, recordID)
	if err != nil {
		return err
	}
	if record.Pending() {
		return appErrors.Clone(appErrors.ErrPendingImmutable, "")
	}
	if err := s.repo.DeleteCompleted(ctx, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	s.recordAudit(ctx, actorID, models.AuditActionRecordDelete, recordID)
	s.invalidateCompliance(ctx, record.CompanyID)
	return nil
}

// Get returns one record decorated with course context and status.
func (s *RecordService) Get(ctx context.Context, recordID string) (*dto.RecordItem, error) {
	record, err := s.find(ctx, recordID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, record.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	item := s.decorate(*record, course)
	return &item, nil
}

// ListByPerson returns a person's records with course names and statuses.
func (s *RecordService) ListByPerson(ctx context.Context, personID string) ([]dto.RecordItem, error) {
	records, err := s.repo.ListByPerson(ctx, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	items := make([]dto.RecordItem, 0, len(records))
	for _, record := range records {
		course, err := s.courses.FindByID(ctx, record.CourseID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		items = append(items, s.decorate(record, course))
	}
	return items, nil
}

// AttachCertificate links an uploaded certificate to a completed record.
func (s *RecordService) AttachCertificate(ctx context.Context, actorID, recordID, certificateRef string) error {
	record, err := s.find(ctx, recordID)
	if err != nil {
		return err
	}
	if record.Pending() {
		return appErrors.Clone(appErrors.ErrPendingImmutable, "certificates can only be attached to completed records")
	}
	if err := s.repo.SetCertificateRef(ctx, recordID, &certificateRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach certificate")
	}
	s.recordAudit(ctx, actorID, models.AuditActionRecordUpdate, recordID)
	return nil
}

func (s *RecordService) find(ctx context.Context, recordID string) (*models.TrainingRecord, error) {
	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

func (s *RecordService) load(ctx context.Context, recordID string) (*models.TrainingRecord, error) {
	record, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload record")
	}
	return record, nil
}

func (s *RecordService) decorate(record models.TrainingRecord, course *models.Course) dto.RecordItem {
	item := dto.RecordItem{TrainingRecord: record, Status: models.StatusNoRecord}
	if course == nil {
		return item
	}
	item.CourseName = course.Name
	if record.Pending() {
		return item
	}
	window := course.DueSoonDays
	if window <= 0 {
		window = s.dueSoonDays
	}
	item.Status = compliance.ComputeStatus(*record.DateCompleted, course.RefresherYears, window, s.now())
	if course.RefresherYears != nil {
		item.NextDueDate = formatDate(compliance.NextDueDate(*record.DateCompleted, *course.RefresherYears))
	}
	return item
}

func (s *RecordService) mapWriteError(err error, message string) error {
	if appErrors.IsRetryable(err) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *RecordService) recordAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{Action: action, Resource: "training_record", ResourceID: &resourceID}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record training record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *RecordService) invalidateCompliance(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, complianceCachePattern(companyID)); err != nil {
		s.logger.Warn("failed to invalidate compliance cache", zap.String("company_id", companyID), zap.Error(err))
	}
}
