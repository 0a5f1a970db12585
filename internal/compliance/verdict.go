package compliance

import (
	"sort"

	"github.com/haven-care/carehome-api/internal/models"
)

// Policy controls which record statuses satisfy a mandate. The strict
// default counts only UP_TO_DATE; the softened variant also accepts
// DUE_SOON ("not yet overdue").
type Policy struct {
	CountDueSoonAsSatisfied bool
}

// Satisfies reports whether a record status discharges a required course.
func (p Policy) Satisfies(status models.RecordStatus) bool {
	switch status {
	case models.StatusUpToDate:
		return true
	case models.StatusDueSoon:
		return p.CountDueSoonAsSatisfied
	default:
		return false
	}
}

// Verdict is the per-person compliance outcome. A person with an empty
// required set is trivially compliant.
type Verdict struct {
	PersonID         string
	Compliant        bool
	MissingCourseIDs []string
}

// Evaluate derives a person's verdict from their required set and the
// statuses of their completed records (keyed by course id; absent key means
// no record). Missing course ids are sorted for deterministic output.
func Evaluate(personID string, required map[string]struct{}, statuses map[string]models.RecordStatus, policy Policy) Verdict {
	missing := make([]string, 0)
	for courseID := range required {
		if policy.Satisfies(statuses[courseID]) {
			continue
		}
		missing = append(missing, courseID)
	}
	sort.Strings(missing)
	return Verdict{
		PersonID:         personID,
		Compliant:        len(missing) == 0,
		MissingCourseIDs: missing,
	}
}

// Rate computes a compliant/total bucket rate as a percentage rounded to
// the nearest integer. Zero-person buckets yield zero and should be omitted
// by callers.
func Rate(compliant, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(compliant)/float64(total)*100 + 0.5)
}
