package models

import "time"

// RecordStatus is the lifecycle status of a completed training record.
type RecordStatus string

const (
	StatusUpToDate RecordStatus = "UP_TO_DATE"
	StatusDueSoon  RecordStatus = "DUE_SOON"
	StatusOverdue  RecordStatus = "OVERDUE"
	// StatusNoRecord is a presentation value for people with no record of a
	// course; the status engine itself never produces it.
	StatusNoRecord RecordStatus = "NO_RECORD"
)

// TrainingRecord is a person's completion of (or pending assignment for) a
// course. A nil DateCompleted marks a pending assignment; submitting a
// completion promotes the row in place, never inserts a second one.
type TrainingRecord struct {
	ID             string     `db:"id" json:"id"`
	PersonID       string     `db:"person_id" json:"person_id"`
	CourseID       string     `db:"course_id" json:"course_id"`
	CompanyID      string     `db:"company_id" json:"company_id"`
	DateCompleted  *time.Time `db:"date_completed" json:"date_completed,omitempty"`
	DueBy          *time.Time `db:"due_by" json:"due_by,omitempty"`
	CertificateRef *string    `db:"certificate_ref" json:"certificate_ref,omitempty"`
	CreatedBy      string     `db:"created_by" json:"created_by"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Pending reports whether the record is an outstanding assignment.
func (r TrainingRecord) Pending() bool {
	return r.DateCompleted == nil
}
