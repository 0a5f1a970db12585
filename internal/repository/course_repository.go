package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haven-care/carehome-api/internal/models"
)

// CourseRepository manages persistence for courses and mandate targets.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByCompany returns every course a company owns, ordered by name with
// training type as tiebreak for stable rendering.
func (r *CourseRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Course, error) {
	const query = `SELECT id, company_id, name, training_type, refresher_years, due_soon_days, mandatory_everyone, reference_link, created_at, updated_at
        FROM courses WHERE company_id = $1 ORDER BY name ASC, training_type ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, companyID); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a single course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, company_id, name, training_type, refresher_years, due_soon_days, mandatory_everyone, reference_link, created_at, updated_at
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course definition.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, company_id, name, training_type, refresher_years, due_soon_days, mandatory_everyone, reference_link, created_at, updated_at)
        VALUES (:id, :company_id, :name, :training_type, :refresher_years, :due_soon_days, :mandatory_everyone, :reference_link, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course definition.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, training_type = :training_type, refresher_years = :refresher_years, due_soon_days = :due_soon_days, mandatory_everyone = :mandatory_everyone, reference_link = :reference_link, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course and cascades to its mandate targets.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_targets WHERE course_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete course targets: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		_ = tx.Rollback()
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}

// ReplaceTargets swaps a course's targeted mandates wholesale:
// delete-all-then-reinsert, never incremental.
func (r *CourseRepository) ReplaceTargets(ctx context.Context, courseID, companyID string, personIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace targets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_targets WHERE course_id = $1`, courseID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear course targets: %w", err)
	}
	for _, personID := range personIDs {
		target := models.MandateTarget{CourseID: courseID, PersonID: personID, CompanyID: companyID}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO course_targets (course_id, person_id, company_id) VALUES (:course_id, :person_id, :company_id)`, &target); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert course target: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace targets: %w", err)
	}
	return nil
}

// TargetedCourseIDs returns which of the given courses have at least one
// mandate target, without fetching the targets themselves.
func (r *CourseRepository) TargetedCourseIDs(ctx context.Context, courseIDs []string) (map[string]struct{}, error) {
	if len(courseIDs) == 0 {
		return map[string]struct{}{}, nil
	}
	const query = `SELECT DISTINCT course_id FROM course_targets WHERE course_id = ANY($1)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("targeted course ids: %w", err)
	}
	result := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// ListTargetsByCompany returns every mandate target in a company.
func (r *CourseRepository) ListTargetsByCompany(ctx context.Context, companyID string) ([]models.MandateTarget, error) {
	const query = `SELECT course_id, person_id, company_id FROM course_targets WHERE company_id = $1`
	var targets []models.MandateTarget
	if err := r.db.SelectContext(ctx, &targets, query, companyID); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return targets, nil
}

// ListTargetsByCourse returns the mandate targets for one course.
func (r *CourseRepository) ListTargetsByCourse(ctx context.Context, courseID string) ([]models.MandateTarget, error) {
	const query = `SELECT course_id, person_id, company_id FROM course_targets WHERE course_id = $1`
	var targets []models.MandateTarget
	if err := r.db.SelectContext(ctx, &targets, query, courseID); err != nil {
		return nil, fmt.Errorf("list course targets: %w", err)
	}
	return targets, nil
}
