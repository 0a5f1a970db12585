package dto

import "github.com/haven-care/carehome-api/internal/models"

// SubmitCompletionRequest promotes a pending record or logs a new completion.
type SubmitCompletionRequest struct {
	CourseID       string  `json:"courseId" validate:"required"`
	DateCompleted  string  `json:"dateCompleted" validate:"required"`
	CertificateRef *string `json:"certificateRef,omitempty"`
}

// UpdateRecordRequest edits a completed record's date or certificate.
type UpdateRecordRequest struct {
	DateCompleted  string  `json:"dateCompleted" validate:"required"`
	CertificateRef *string `json:"certificateRef,omitempty"`
}

// RecordItem decorates a training record with course context and its
// computed lifecycle status.
type RecordItem struct {
	models.TrainingRecord
	CourseName  string              `json:"courseName"`
	Status      models.RecordStatus `json:"status"`
	NextDueDate *string             `json:"nextDueDate,omitempty"`
}
