package compliance

import "github.com/haven-care/carehome-api/internal/models"

// RequiredCourseIDs computes the set of course ids a person must hold: the
// union of every everyone-mandatory course in the company and every course
// explicitly targeted at the person. Set union, so a target on an
// everyone-mandatory course counts once.
func RequiredCourseIDs(personID string, courses []models.Course, targets []models.MandateTarget) map[string]struct{} {
	required := make(map[string]struct{})
	for _, c := range courses {
		if c.MandatoryEveryone {
			required[c.ID] = struct{}{}
		}
	}
	for _, t := range targets {
		if t.PersonID == personID {
			required[t.CourseID] = struct{}{}
		}
	}
	return required
}

// TargetsByPerson indexes mandate targets for roster-wide evaluation so the
// per-person component is resolved without re-scanning the target list.
func TargetsByPerson(targets []models.MandateTarget) map[string][]string {
	byPerson := make(map[string][]string)
	for _, t := range targets {
		byPerson[t.PersonID] = append(byPerson[t.PersonID], t.CourseID)
	}
	return byPerson
}
