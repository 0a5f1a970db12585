package dto

import "github.com/haven-care/carehome-api/internal/models"

// PersonCompliance is one roster entry's verdict in mandatory mode.
type PersonCompliance struct {
	Person             RosterEntry `json:"person"`
	Compliant          bool        `json:"compliant"`
	MissingCourseNames []string    `json:"missingCourseNames,omitempty"`
}

// ComplianceReport is the mandatory-mode evaluation of a whole roster.
type ComplianceReport struct {
	CompanyID    string             `json:"companyId"`
	Compliant    []PersonCompliance `json:"compliant"`
	NonCompliant []PersonCompliance `json:"nonCompliant"`
}

// CourseStatusEntry is one roster entry's status against a single course.
type CourseStatusEntry struct {
	Person RosterEntry         `json:"person"`
	Status models.RecordStatus `json:"status"`
}

// SingleCourseReport evaluates every person in scope against one course.
type SingleCourseReport struct {
	CourseID   string              `json:"courseId"`
	CourseName string              `json:"courseName"`
	Entries    []CourseStatusEntry `json:"entries"`
	Breakdown  StatusBreakdown     `json:"breakdown"`
}

// StatusBreakdown counts roster members per status bucket.
type StatusBreakdown struct {
	UpToDate int `json:"upToDate"`
	DueSoon  int `json:"dueSoon"`
	Overdue  int `json:"overdue"`
	NoRecord int `json:"noRecord"`
}

// HomeComplianceSummary aggregates verdict counts for one home bucket.
// The synthetic bank-staff bucket has a nil HomeID.
type HomeComplianceSummary struct {
	HomeID      *string `json:"homeId,omitempty"`
	HomeName    string  `json:"homeName"`
	Compliant   int     `json:"compliant"`
	Total       int     `json:"total"`
	RatePercent int     `json:"ratePercent"`
}

// PersonTrainingView is the self-service view: every required or recorded
// course for one person with its current status.
type PersonTrainingView struct {
	PersonID string               `json:"personId"`
	Courses  []PersonCourseStatus `json:"courses"`
}

// PersonCourseStatus is one course line in the self-service view.
type PersonCourseStatus struct {
	CourseID       string                `json:"courseId"`
	CourseName     string                `json:"courseName"`
	Required       bool                  `json:"required"`
	Status         models.RecordStatus   `json:"status"`
	RecordID       *string               `json:"recordId,omitempty"`
	DateCompleted  *string               `json:"dateCompleted,omitempty"`
	NextDueDate    *string               `json:"nextDueDate,omitempty"`
	DueBy          *string               `json:"dueBy,omitempty"`
	CertificateRef *string               `json:"certificateRef,omitempty"`
	Audience       models.CourseAudience `json:"audience"`
}
