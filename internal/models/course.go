package models

import "time"

// TrainingType classifies how a course is delivered.
type TrainingType string

const (
	TrainingClassroom TrainingType = "CLASSROOM"
	TrainingELearning TrainingType = "E_LEARNING"
	TrainingAssessed  TrainingType = "ASSESSED"
	TrainingOther     TrainingType = "OTHER"
)

// ParseTrainingType validates a raw training type. Unknown values fall back
// to TrainingOther rather than passing through.
func ParseTrainingType(raw string) (TrainingType, bool) {
	switch TrainingType(raw) {
	case TrainingClassroom, TrainingELearning, TrainingAssessed, TrainingOther:
		return TrainingType(raw), true
	}
	return TrainingOther, false
}

// CourseAudience labels how a course's mandate applies at catalog level.
type CourseAudience string

const (
	AudienceEveryone    CourseAudience = "EVERYONE"
	AudienceConditional CourseAudience = "CONDITIONAL"
	AudienceOptional    CourseAudience = "OPTIONAL"
)

// Course is a training course definition owned by a company.
// A nil RefresherYears means a completion never expires.
type Course struct {
	ID                string       `db:"id" json:"id"`
	CompanyID         string       `db:"company_id" json:"company_id"`
	Name              string       `db:"name" json:"name"`
	TrainingType      TrainingType `db:"training_type" json:"training_type"`
	RefresherYears    *int         `db:"refresher_years" json:"refresher_years,omitempty"`
	DueSoonDays       int          `db:"due_soon_days" json:"due_soon_days"`
	MandatoryEveryone bool         `db:"mandatory_everyone" json:"mandatory_everyone"`
	ReferenceLink     *string      `db:"reference_link" json:"reference_link,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// Audience derives the catalog label: the everyone flag wins, otherwise the
// presence of at least one target makes the course conditional.
func (c Course) Audience(hasTargets bool) CourseAudience {
	if c.MandatoryEveryone {
		return AudienceEveryone
	}
	if hasTargets {
		return AudienceConditional
	}
	return AudienceOptional
}

// MandateTarget marks a course as mandatory for one specific person.
// Targets are replaced wholesale when a course's audience is edited.
type MandateTarget struct {
	CourseID  string `db:"course_id" json:"course_id"`
	PersonID  string `db:"person_id" json:"person_id"`
	CompanyID string `db:"company_id" json:"company_id"`
}
