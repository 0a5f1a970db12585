package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

const pqUniqueViolation = "23505"

const recordColumns = `id, person_id, course_id, company_id, date_completed, due_by, certificate_ref, created_by, created_at, updated_at`

// RecordRepository manages persistence for training records. The table
// carries a unique partial index on (person_id, course_id) where
// date_completed IS NOT NULL, so two racing writers cannot both create a
// live record; the loser surfaces a retryable duplicate error.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// ListByCompany returns every training record in a company.
func (r *RecordRepository) ListByCompany(ctx context.Context, companyID string) ([]models.TrainingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_records WHERE company_id = $1`, recordColumns)
	var records []models.TrainingRecord
	if err := r.db.SelectContext(ctx, &records, query, companyID); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListByPerson returns one person's training records.
func (r *RecordRepository) ListByPerson(ctx context.Context, personID string) ([]models.TrainingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_records WHERE person_id = $1`, recordColumns)
	var records []models.TrainingRecord
	if err := r.db.SelectContext(ctx, &records, query, personID); err != nil {
		return nil, fmt.Errorf("list person records: %w", err)
	}
	return records, nil
}

// FindByID fetches a single record.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.TrainingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_records WHERE id = $1`, recordColumns)
	var record models.TrainingRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindForPersonCourse returns the record for a (person, course) pair, live or
// pending, or sql.ErrNoRows when none exists.
func (r *RecordRepository) FindForPersonCourse(ctx context.Context, personID, courseID string) (*models.TrainingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_records WHERE person_id = $1 AND course_id = $2 LIMIT 1`, recordColumns)
	var record models.TrainingRecord
	if err := r.db.GetContext(ctx, &record, query, personID, courseID); err != nil {
		return nil, err
	}
	return &record, nil
}

// LivePersonIDs returns which of the given people already hold a live
// (completed) record for the course. Used by the assignment conflict check.
func (r *RecordRepository) LivePersonIDs(ctx context.Context, courseID string, personIDs []string) (map[string]struct{}, error) {
	if len(personIDs) == 0 {
		return map[string]struct{}{}, nil
	}
	const query = `SELECT person_id FROM training_records WHERE course_id = $1 AND person_id = ANY($2) AND date_completed IS NOT NULL`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID, pq.Array(personIDs)); err != nil {
		return nil, fmt.Errorf("live person ids: %w", err)
	}
	result := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// CreatePending inserts a pending record (no completion date) carrying the
// assignment's due-by date.
func (r *RecordRepository) CreatePending(ctx context.Context, record *models.TrainingRecord) error {
	return r.insert(ctx, record)
}

// CreateCompleted inserts a self-logged completion. The unique index guards
// against a concurrent duplicate for the same person and course.
func (r *RecordRepository) CreateCompleted(ctx context.Context, record *models.TrainingRecord) error {
	return r.insert(ctx, record)
}

func (r *RecordRepository) insert(ctx context.Context, record *models.TrainingRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO training_records (id, person_id, course_id, company_id, date_completed, due_by, certificate_ref, created_by, created_at, updated_at)
        VALUES (:id, :person_id, :course_id, :company_id, :date_completed, :due_by, :certificate_ref, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return mapUniqueViolation(err, "create record")
	}
	return nil
}

// Promote fills the completion date (and optional certificate) on a pending
// row in place. It never inserts; a row is updated only while still pending,
// so a double submit cannot produce two completions.
func (r *RecordRepository) Promote(ctx context.Context, id string, dateCompleted time.Time, certificateRef *string) error {
	const query = `UPDATE training_records SET date_completed = $2, certificate_ref = COALESCE($3, certificate_ref), updated_at = $4
        WHERE id = $1 AND date_completed IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, dateCompleted, certificateRef, time.Now().UTC())
	if err != nil {
		return mapUniqueViolation(err, "promote record")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateCompleted edits a completed record's date and certificate. Pending
// rows are not editable through this path.
func (r *RecordRepository) UpdateCompleted(ctx context.Context, id string, dateCompleted time.Time, certificateRef *string) error {
	const query = `UPDATE training_records SET date_completed = $2, certificate_ref = $3, updated_at = $4
        WHERE id = $1 AND date_completed IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id, dateCompleted, certificateRef, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCertificateRef attaches a certificate reference to a completed record.
func (r *RecordRepository) SetCertificateRef(ctx context.Context, id string, certificateRef *string) error {
	const query = `UPDATE training_records SET certificate_ref = $2, updated_at = $3 WHERE id = $1 AND date_completed IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id, certificateRef, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set certificate ref: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateDueBy moves the due-by date on an existing record. Used when an
// assignment conflict is resolved with "proceed for all".
func (r *RecordRepository) UpdateDueBy(ctx context.Context, personID, courseID string, dueBy time.Time) error {
	const query = `UPDATE training_records SET due_by = $3, updated_at = $4 WHERE person_id = $1 AND course_id = $2`
	res, err := r.db.ExecContext(ctx, query, personID, courseID, dueBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update due by: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCompleted removes a completed record. Pending rows are excluded by
// the predicate: they can only be superseded by a completion.
func (r *RecordRepository) DeleteCompleted(ctx context.Context, id string) error {
	const query = `DELETE FROM training_records WHERE id = $1 AND date_completed IS NOT NULL`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func mapUniqueViolation(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, appErrors.ErrDuplicateRecord.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
