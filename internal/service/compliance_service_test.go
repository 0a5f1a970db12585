package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-care/carehome-api/internal/compliance"
	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
)

type cacheRepoStub struct {
	store           map[string][]byte
	deletedPatterns []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{store: map[string][]byte{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = data
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	s.store = map[string][]byte{}
	return nil
}

// complianceFixture builds a company with two homes and three people:
// Alice (Rose House, fully trained), Bob (Rose House, missing the targeted
// medication course) and Carol (bank, nothing completed).
func complianceFixture() (*courseRepoStub, *recordRepoStub, *rosterResolverStub) {
	oneYear := 1
	courses := &courseRepoStub{
		courses: map[string]*models.Course{
			"c-fire": {ID: "c-fire", CompanyID: "co1", Name: "Fire Safety", MandatoryEveryone: true, RefresherYears: &oneYear, DueSoonDays: 30},
			"c-meds": {ID: "c-meds", CompanyID: "co1", Name: "Medication", RefresherYears: nil},
		},
		targeted: map[string]struct{}{"c-meds": {}},
		targets:  []models.MandateTarget{{CourseID: "c-meds", PersonID: "p-bob", CompanyID: "co1"}},
	}
	records := &recordRepoStub{records: map[string]*models.TrainingRecord{
		"rec-alice-fire": {ID: "rec-alice-fire", PersonID: "p-alice", CourseID: "c-fire", CompanyID: "co1", DateCompleted: timePtr(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))},
		"rec-bob-fire":   {ID: "rec-bob-fire", PersonID: "p-bob", CourseID: "c-fire", CompanyID: "co1", DateCompleted: timePtr(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))},
	}}
	roster := &rosterResolverStub{roster: []dto.RosterEntry{
		{PersonID: "p-alice", DisplayName: "Alice Ward", HomeID: strPtr("h1"), HomeName: "Rose House"},
		{PersonID: "p-bob", DisplayName: "Bob Field", HomeID: strPtr("h1"), HomeName: "Rose House"},
		{PersonID: "p-carol", DisplayName: "Carol Banks", Bank: true},
	}}
	return courses, records, roster
}

func newComplianceService(courses *courseRepoStub, records *recordRepoStub, roster *rosterResolverStub, cache *CacheService, policy compliance.Policy) *ComplianceService {
	svc := NewComplianceService(roster, courses, records, cache, nil, policy, 30, nil)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestReportSplitsVerdictsAndNamesMissing(t *testing.T) {
	courses, records, roster := complianceFixture()
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	report, err := svc.Report(context.Background(), "co1", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)

	require.Len(t, report.Compliant, 1)
	assert.Equal(t, "p-alice", report.Compliant[0].Person.PersonID)

	require.Len(t, report.NonCompliant, 2)
	missing := map[string][]string{}
	for _, entry := range report.NonCompliant {
		missing[entry.Person.PersonID] = entry.MissingCourseNames
	}
	assert.Equal(t, []string{"Medication"}, missing["p-bob"])
	assert.Equal(t, []string{"Fire Safety", "Medication"}, missing["p-carol"])
}

func TestReportPendingRecordsDoNotSatisfy(t *testing.T) {
	courses, records, roster := complianceFixture()
	dueBy := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	records.records["rec-bob-meds"] = &models.TrainingRecord{
		ID: "rec-bob-meds", PersonID: "p-bob", CourseID: "c-meds", CompanyID: "co1", DueBy: &dueBy,
	}
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	report, err := svc.Report(context.Background(), "co1", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)

	for _, entry := range report.NonCompliant {
		if entry.Person.PersonID == "p-bob" {
			assert.Equal(t, []string{"Medication"}, entry.MissingCourseNames)
			return
		}
	}
	t.Fatal("expected p-bob to stay non-compliant with a pending record")
}

func TestReportDueSoonPolicy(t *testing.T) {
	courses, records, roster := complianceFixture()
	// Alice's refresher lands four days out, inside the 30 day window.
	records.records["rec-alice-fire"].DateCompleted = timePtr(time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC))

	strict := newComplianceService(courses, records, roster, nil, compliance.Policy{})
	report, err := strict.Report(context.Background(), "co1", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)
	assert.Empty(t, report.Compliant)

	softened := newComplianceService(courses, records, roster, nil, compliance.Policy{CountDueSoonAsSatisfied: true})
	report, err = softened.Report(context.Background(), "co1", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)
	require.Len(t, report.Compliant, 1)
	assert.Equal(t, "p-alice", report.Compliant[0].Person.PersonID)
}

func TestCourseReportBreakdown(t *testing.T) {
	courses, records, roster := complianceFixture()
	// Bob's fire refresher is long past due.
	records.records["rec-bob-fire"].DateCompleted = timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	report, err := svc.CourseReport(context.Background(), "c-fire", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)

	assert.Equal(t, "Fire Safety", report.CourseName)
	assert.Equal(t, 1, report.Breakdown.UpToDate)
	assert.Equal(t, 0, report.Breakdown.DueSoon)
	assert.Equal(t, 1, report.Breakdown.Overdue)
	assert.Equal(t, 1, report.Breakdown.NoRecord)
	require.Len(t, report.Entries, 3)
}

func TestCourseReportUnknownCourse(t *testing.T) {
	courses, records, roster := complianceFixture()
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	_, err := svc.CourseReport(context.Background(), "c-missing", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHomeSummaryBucketsWithBankLast(t *testing.T) {
	courses, records, roster := complianceFixture()
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	summaries, err := svc.HomeSummary(context.Background(), "co1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "Rose House", summaries[0].HomeName)
	assert.Equal(t, 1, summaries[0].Compliant)
	assert.Equal(t, 2, summaries[0].Total)
	assert.Equal(t, 50, summaries[0].RatePercent)

	assert.Equal(t, "Bank staff", summaries[1].HomeName)
	assert.Nil(t, summaries[1].HomeID)
	assert.Equal(t, 0, summaries[1].Compliant)
	assert.Equal(t, 1, summaries[1].Total)
	assert.Equal(t, 0, summaries[1].RatePercent)
}

func TestHomeSummaryServedFromCache(t *testing.T) {
	courses, records, roster := complianceFixture()
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := newComplianceService(courses, records, roster, cache, compliance.Policy{})

	first, err := svc.HomeSummary(context.Background(), "co1")
	require.NoError(t, err)

	// Roster lookups now fail; the cached summary still serves.
	roster.err = errors.New("db down")
	second, err := svc.HomeSummary(context.Background(), "co1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// After invalidation the failure surfaces.
	require.NoError(t, cache.Invalidate(context.Background(), complianceCachePattern("co1")))
	_, err = svc.HomeSummary(context.Background(), "co1")
	require.Error(t, err)
}

func TestPersonViewMergesRequiredAndRecorded(t *testing.T) {
	courses, records, roster := complianceFixture()
	courses.courses["c-manual"] = &models.Course{ID: "c-manual", CompanyID: "co1", Name: "Manual Handling"}
	records.records["rec-bob-manual"] = &models.TrainingRecord{
		ID: "rec-bob-manual", PersonID: "p-bob", CourseID: "c-manual", CompanyID: "co1",
		DateCompleted: timePtr(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)),
	}
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	view, err := svc.PersonView(context.Background(), "co1", "p-bob")
	require.NoError(t, err)
	require.Len(t, view.Courses, 3)

	assert.Equal(t, "Fire Safety", view.Courses[0].CourseName)
	assert.True(t, view.Courses[0].Required)
	assert.Equal(t, models.StatusUpToDate, view.Courses[0].Status)
	require.NotNil(t, view.Courses[0].NextDueDate)
	assert.Equal(t, "2027-08-01", *view.Courses[0].NextDueDate)

	assert.Equal(t, "Manual Handling", view.Courses[1].CourseName)
	assert.False(t, view.Courses[1].Required)
	assert.Equal(t, models.AudienceOptional, view.Courses[1].Audience)

	assert.Equal(t, "Medication", view.Courses[2].CourseName)
	assert.True(t, view.Courses[2].Required)
	assert.Equal(t, models.StatusNoRecord, view.Courses[2].Status)
	assert.Equal(t, models.AudienceConditional, view.Courses[2].Audience)
}

func TestExportReportCSVQuotesAndPipes(t *testing.T) {
	courses, records, roster := complianceFixture()
	roster.roster[2].DisplayName = `Carol "Caz" Banks`
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	data, err := svc.ExportReportCSV(context.Background(), "co1", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Person,Home,Bank,Missing mandatory courses", lines[0])
	assert.Contains(t, out, "Fire Safety|Medication")
	assert.Contains(t, out, `"Carol ""Caz"" Banks"`)
	assert.Contains(t, out, "Bob Field,Rose House,No,Medication")
}

func TestExportCourseCSVUsesSingleCourseHeader(t *testing.T) {
	courses, records, roster := complianceFixture()
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	data, err := svc.ExportCourseCSV(context.Background(), "c-meds", dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: "co1"})
	require.NoError(t, err)

	out := string(data)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "Person,Home,Bank,Missing course", lines[0])
	// Everyone lacks a medication completion.
	assert.Len(t, lines, 4)
}

func TestExportHomeSummaryPDF(t *testing.T) {
	courses, records, roster := complianceFixture()
	svc := newComplianceService(courses, records, roster, nil, compliance.Policy{})

	data, err := svc.ExportHomeSummaryPDF(context.Background(), "co1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
