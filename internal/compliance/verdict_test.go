package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-care/carehome-api/internal/models"
)

func TestRequiredCourseIDsUnion(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", MandatoryEveryone: true},
		{ID: "c2", MandatoryEveryone: false},
		{ID: "c3", MandatoryEveryone: false},
	}
	targets := []models.MandateTarget{
		{CourseID: "c2", PersonID: "p1"},
		{CourseID: "c3", PersonID: "p2"},
	}

	required := RequiredCourseIDs("p1", courses, targets)
	assert.Len(t, required, 2)
	assert.Contains(t, required, "c1")
	assert.Contains(t, required, "c2")
}

func TestRequiredCourseIDsIdempotentUnion(t *testing.T) {
	// a target on an everyone-mandatory course must not double-count
	courses := []models.Course{{ID: "c1", MandatoryEveryone: true}}
	targets := []models.MandateTarget{{CourseID: "c1", PersonID: "p1"}}

	required := RequiredCourseIDs("p1", courses, targets)
	assert.Len(t, required, 1)
}

func TestEvaluateStrictPolicy(t *testing.T) {
	required := map[string]struct{}{"c1": {}}
	// DUE_SOON does not satisfy under the strict default
	verdict := Evaluate("p1", required, map[string]models.RecordStatus{"c1": models.StatusDueSoon}, Policy{})
	assert.False(t, verdict.Compliant)
	assert.Equal(t, []string{"c1"}, verdict.MissingCourseIDs)

	verdict = Evaluate("p1", required, map[string]models.RecordStatus{"c1": models.StatusUpToDate}, Policy{})
	assert.True(t, verdict.Compliant)
	assert.Empty(t, verdict.MissingCourseIDs)
}

func TestEvaluateSoftenedPolicy(t *testing.T) {
	required := map[string]struct{}{"c1": {}}
	policy := Policy{CountDueSoonAsSatisfied: true}

	verdict := Evaluate("p1", required, map[string]models.RecordStatus{"c1": models.StatusDueSoon}, policy)
	assert.True(t, verdict.Compliant)

	verdict = Evaluate("p1", required, map[string]models.RecordStatus{"c1": models.StatusOverdue}, policy)
	assert.False(t, verdict.Compliant)
}

func TestEvaluateTriviallyCompliant(t *testing.T) {
	verdict := Evaluate("p1", map[string]struct{}{}, nil, Policy{})
	assert.True(t, verdict.Compliant)
	assert.Empty(t, verdict.MissingCourseIDs)
}

func TestEvaluateMissingSorted(t *testing.T) {
	required := map[string]struct{}{"c3": {}, "c1": {}, "c2": {}}
	verdict := Evaluate("p1", required, nil, Policy{})
	assert.Equal(t, []string{"c1", "c2", "c3"}, verdict.MissingCourseIDs)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 50, Rate(1, 2))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 33, Rate(1, 3))
	assert.Equal(t, 100, Rate(5, 5))
}

func TestTargetsByPerson(t *testing.T) {
	targets := []models.MandateTarget{
		{CourseID: "c1", PersonID: "p1"},
		{CourseID: "c2", PersonID: "p1"},
		{CourseID: "c1", PersonID: "p2"},
	}
	byPerson := TargetsByPerson(targets)
	assert.ElementsMatch(t, []string{"c1", "c2"}, byPerson["p1"])
	assert.Equal(t, []string{"c1"}, byPerson["p2"])
}
