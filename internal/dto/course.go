package dto

import "github.com/haven-care/carehome-api/internal/models"

// CourseItem is a catalog entry decorated with its audience label.
type CourseItem struct {
	models.Course
	Audience models.CourseAudience `json:"audience"`
}

// CreateCourseRequest defines payload for creating a course.
type CreateCourseRequest struct {
	CompanyID         string  `json:"companyId" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	TrainingType      string  `json:"trainingType" validate:"required"`
	RefresherYears    *int    `json:"refresherYears,omitempty" validate:"omitempty,min=0"`
	DueSoonDays       int     `json:"dueSoonDays" validate:"min=0"`
	MandatoryEveryone bool    `json:"mandatoryEveryone"`
	ReferenceLink     *string `json:"referenceLink,omitempty"`
}

// UpdateCourseRequest defines payload for editing a course.
type UpdateCourseRequest struct {
	Name              string  `json:"name" validate:"required"`
	TrainingType      string  `json:"trainingType" validate:"required"`
	RefresherYears    *int    `json:"refresherYears,omitempty" validate:"omitempty,min=0"`
	DueSoonDays       int     `json:"dueSoonDays" validate:"min=0"`
	MandatoryEveryone bool    `json:"mandatoryEveryone"`
	ReferenceLink     *string `json:"referenceLink,omitempty"`
}

// ReplaceAudienceRequest replaces a course's targeted mandates wholesale.
type ReplaceAudienceRequest struct {
	PersonIDs []string `json:"personIds"`
}
