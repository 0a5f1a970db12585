package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type courseRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	ReplaceTargets(ctx context.Context, courseID, companyID string, personIDs []string) error
	TargetedCourseIDs(ctx context.Context, courseIDs []string) (map[string]struct{}, error)
	ListTargetsByCourse(ctx context.Context, courseID string) ([]models.MandateTarget, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CourseService owns the course catalog: listing with audience labels and
// the admin CRUD paths. Audience edits replace a course's targets
// wholesale; there is no incremental add/remove.
type CourseService struct {
	repo      courseRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns a company's catalog ordered by name, each course decorated
// with its audience label.
func (s *CourseService) List(ctx context.Context, companyID string) ([]dto.CourseItem, error) {
	courses, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	targeted, err := s.repo.TargetedCourseIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course audiences")
	}
	items := make([]dto.CourseItem, 0, len(courses))
	for _, c := range courses {
		_, hasTargets := targeted[c.ID]
		items = append(items, dto.CourseItem{Course: c, Audience: c.Audience(hasTargets)})
	}
	return items, nil
}

// Get returns a single course with its audience label.
func (s *CourseService) Get(ctx context.Context, id string) (*dto.CourseItem, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	targeted, err := s.repo.TargetedCourseIDs(ctx, []string{course.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course audience")
	}
	_, hasTargets := targeted[course.ID]
	return &dto.CourseItem{Course: *course, Audience: course.Audience(hasTargets)}, nil
}

// Create registers a new course definition.
func (s *CourseService) Create(ctx context.Context, actorID string, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	trainingType, ok := models.ParseTrainingType(req.TrainingType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown training type %q", req.TrainingType))
	}
	course := &models.Course{
		CompanyID:         req.CompanyID,
		Name:              req.Name,
		TrainingType:      trainingType,
		RefresherYears:    req.RefresherYears,
		DueSoonDays:       req.DueSoonDays,
		MandatoryEveryone: req.MandatoryEveryone,
		ReferenceLink:     req.ReferenceLink,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.recordAudit(ctx, actorID, models.AuditActionCourseCreate, course.ID)
	s.invalidateCompliance(ctx, course.CompanyID)
	return course, nil
}

// Update modifies an existing course definition.
func (s *CourseService) Update(ctx context.Context, actorID, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	trainingType, ok := models.ParseTrainingType(req.TrainingType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown training type %q", req.TrainingType))
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.Name = req.Name
	course.TrainingType = trainingType
	course.RefresherYears = req.RefresherYears
	course.DueSoonDays = req.DueSoonDays
	course.MandatoryEveryone = req.MandatoryEveryone
	course.ReferenceLink = req.ReferenceLink
	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.recordAudit(ctx, actorID, models.AuditActionCourseUpdate, course.ID)
	s.invalidateCompliance(ctx, course.CompanyID)
	return course, nil
}

// Delete removes a course together with its mandate targets.
func (s *CourseService) Delete(ctx context.Context, actorID, id string) error {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.recordAudit(ctx, actorID, models.AuditActionCourseDelete, id)
	s.invalidateCompliance(ctx, course.CompanyID)
	return nil
}

// ReplaceAudience swaps the course's targeted mandates wholesale. An empty
// person list clears all targets, making the course optional unless the
// everyone flag is set.
func (s *CourseService) ReplaceAudience(ctx context.Context, actorID, courseID string, req dto.ReplaceAudienceRequest) error {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.ReplaceTargets(ctx, courseID, course.CompanyID, req.PersonIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace course audience")
	}
	s.recordAudit(ctx, actorID, models.AuditActionAudienceReplace, courseID)
	s.invalidateCompliance(ctx, course.CompanyID)
	return nil
}

// ListTargets returns the explicit per-person mandate targets of a course.
func (s *CourseService) ListTargets(ctx context.Context, courseID string) ([]models.MandateTarget, error) {
	targets, err := s.repo.ListTargetsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course targets")
	}
	return targets, nil
}

func (s *CourseService) recordAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{Action: action, Resource: "course", ResourceID: &resourceID}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record course audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *CourseService) invalidateCompliance(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, complianceCachePattern(companyID)); err != nil {
		s.logger.Warn("failed to invalidate compliance cache", zap.String("company_id", companyID), zap.Error(err))
	}
}
