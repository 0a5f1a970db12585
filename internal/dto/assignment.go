package dto

// AssignmentResolution selects how a conflicting assignment is handled.
type AssignmentResolution string

const (
	// ResolutionSkip assigns only to fresh recipients.
	ResolutionSkip AssignmentResolution = "SKIP"
	// ResolutionAll assigns to fresh recipients and moves the due-by date on
	// conflicting recipients' existing records.
	ResolutionAll AssignmentResolution = "ALL"
)

// CreateAssignmentRequest creates due-by assignments for a course.
// Recipients are chosen by home or individually; both may be combined.
type CreateAssignmentRequest struct {
	CourseID     string               `json:"courseId" validate:"required"`
	DueBy        string               `json:"dueBy" validate:"required"`
	RecipientIDs []string             `json:"recipientIds,omitempty"`
	HomeIDs      []string             `json:"homeIds,omitempty"`
	Resolution   AssignmentResolution `json:"resolution,omitempty"`
}

// AssignmentPartition is the conflict check result: nothing has been written
// yet, the caller must choose a resolution.
type AssignmentPartition struct {
	Fresh       []RosterEntry `json:"fresh"`
	Conflicting []RosterEntry `json:"conflicting"`
}

// RecipientFailure reports one recipient whose write failed partway through
// a multi-recipient assignment.
type RecipientFailure struct {
	PersonID string `json:"personId"`
	Reason   string `json:"reason"`
}

// AssignmentResult reports per-recipient outcomes; writes across recipients
// are not atomic, so partial failure is reported rather than rolled back.
type AssignmentResult struct {
	Created   []string            `json:"created"`
	Updated   []string            `json:"updated"`
	Skipped   []string            `json:"skipped"`
	Failed    []RecipientFailure  `json:"failed,omitempty"`
	Partition AssignmentPartition `json:"partition"`
}
