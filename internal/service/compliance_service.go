package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/haven-care/carehome-api/internal/compliance"
	"github.com/haven-care/carehome-api/internal/dto"
	"github.com/haven-care/carehome-api/internal/models"
	appErrors "github.com/haven-care/carehome-api/pkg/errors"
	"github.com/haven-care/carehome-api/pkg/export"
)

const bankBucketName = "Bank staff"

type rosterResolver interface {
	Resolve(ctx context.Context, scope dto.RosterScope) ([]dto.RosterEntry, error)
}

type complianceCourseRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListTargetsByCompany(ctx context.Context, companyID string) ([]models.MandateTarget, error)
	TargetedCourseIDs(ctx context.Context, courseIDs []string) (map[string]struct{}, error)
}

type complianceRecordRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.TrainingRecord, error)
	ListByPerson(ctx context.Context, personID string) ([]models.TrainingRecord, error)
}

// ComplianceService combines the roster, mandate and status building blocks
// into reports: mandatory-mode verdicts, single-course breakdowns, home
// summaries, the self-service training view and the CSV/PDF exports.
// Everything here is a pure read; writes elsewhere invalidate the report
// cache.
type ComplianceService struct {
	roster      rosterResolver
	courses     complianceCourseRepository
	records     complianceRecordRepository
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	policy      compliance.Policy
	dueSoonDays int
	logger      *zap.Logger
	now         func() time.Time
}

// NewComplianceService constructs the compliance service. dueSoonDays is
// the fallback window for courses that do not define their own.
func NewComplianceService(roster rosterResolver, courses complianceCourseRepository, records complianceRecordRepository, cache *CacheService, metrics *MetricsService, policy compliance.Policy, dueSoonDays int, logger *zap.Logger) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dueSoonDays <= 0 {
		dueSoonDays = 30
	}
	return &ComplianceService{
		roster:      roster,
		courses:     courses,
		records:     records,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		policy:      policy,
		dueSoonDays: dueSoonDays,
		logger:      logger,
		now:         time.Now,
	}
}

// complianceCachePattern matches every cached report for a company. Course,
// record and assignment writers invalidate with this pattern.
func complianceCachePattern(companyID string) string {
	return fmt.Sprintf("compliance:company:%s:*", companyID)
}

func complianceCacheKey(companyID, report string) string {
	return fmt.Sprintf("compliance:company:%s:%s", companyID, report)
}

// Report evaluates mandatory-mode compliance for everyone in scope.
func (s *ComplianceService) Report(ctx context.Context, companyID string, scope dto.RosterScope) (*dto.ComplianceReport, error) {
	start := s.now()

	roster, err := s.roster.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	courses, targets, err := s.loadMandates(ctx, companyID)
	if err != nil {
		return nil, err
	}
	statusByPerson, err := s.loadStatuses(ctx, companyID, courses)
	if err != nil {
		return nil, err
	}

	courseNames := make(map[string]string, len(courses))
	for _, c := range courses {
		courseNames[c.ID] = c.Name
	}

	report := &dto.ComplianceReport{CompanyID: companyID, Compliant: []dto.PersonCompliance{}, NonCompliant: []dto.PersonCompliance{}}
	for _, person := range roster {
		required := compliance.RequiredCourseIDs(person.PersonID, courses, targets)
		verdict := compliance.Evaluate(person.PersonID, required, statusByPerson[person.PersonID], s.policy)
		entry := dto.PersonCompliance{Person: person, Compliant: verdict.Compliant}
		if !verdict.Compliant {
			names := make([]string, 0, len(verdict.MissingCourseIDs))
			for _, id := range verdict.MissingCourseIDs {
				names = append(names, courseNames[id])
			}
			sort.Strings(names)
			entry.MissingCourseNames = names
			report.NonCompliant = append(report.NonCompliant, entry)
			continue
		}
		report.Compliant = append(report.Compliant, entry)
	}

	if s.metrics != nil {
		s.metrics.ObserveReport("mandatory", time.Since(start))
	}
	return report, nil
}

// CourseReport evaluates everyone in scope against a single course.
func (s *ComplianceService) CourseReport(ctx context.Context, courseID string, scope dto.RosterScope) (*dto.SingleCourseReport, error) {
	start := s.now()

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	roster, err := s.roster.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	statusByPerson, err := s.loadStatuses(ctx, course.CompanyID, []models.Course{*course})
	if err != nil {
		return nil, err
	}

	report := &dto.SingleCourseReport{CourseID: course.ID, CourseName: course.Name, Entries: []dto.CourseStatusEntry{}}
	for _, person := range roster {
		status := models.StatusNoRecord
		if personStatuses, ok := statusByPerson[person.PersonID]; ok {
			if st, ok := personStatuses[course.ID]; ok {
				status = st
			}
		}
		report.Entries = append(report.Entries, dto.CourseStatusEntry{Person: person, Status: status})
		switch status {
		case models.StatusUpToDate:
			report.Breakdown.UpToDate++
		case models.StatusDueSoon:
			report.Breakdown.DueSoon++
		case models.StatusOverdue:
			report.Breakdown.Overdue++
		default:
			report.Breakdown.NoRecord++
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveReport("course", time.Since(start))
	}
	return report, nil
}

// HomeSummary aggregates the mandatory-mode verdicts into per-home buckets
// plus a synthetic bank-staff bucket. Buckets with no people are omitted.
// Company-wide summaries are served read-through from cache.
func (s *ComplianceService) HomeSummary(ctx context.Context, companyID string) ([]dto.HomeComplianceSummary, error) {
	cacheKey := complianceCacheKey(companyID, "homes")
	var cached []dto.HomeComplianceSummary
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	report, err := s.Report(ctx, companyID, dto.RosterScope{Kind: dto.ScopeCompany, CompanyID: companyID})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		homeID    *string
		homeName  string
		compliant int
		total     int
	}
	buckets := map[string]*bucket{}
	add := func(entry dto.PersonCompliance, compliant bool) {
		key := bankBucketName
		name := bankBucketName
		var homeID *string
		if !entry.Person.Bank && entry.Person.HomeID != nil {
			key = *entry.Person.HomeID
			homeID = entry.Person.HomeID
			name = entry.Person.HomeName
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{homeID: homeID, homeName: name}
			buckets[key] = b
		}
		b.total++
		if compliant {
			b.compliant++
		}
	}
	for _, entry := range report.Compliant {
		add(entry, true)
	}
	for _, entry := range report.NonCompliant {
		add(entry, false)
	}

	summaries := make([]dto.HomeComplianceSummary, 0, len(buckets))
	for _, b := range buckets {
		summaries = append(summaries, dto.HomeComplianceSummary{
			HomeID:      b.homeID,
			HomeName:    b.homeName,
			Compliant:   b.compliant,
			Total:       b.total,
			RatePercent: compliance.Rate(b.compliant, b.total),
		})
	}
	// Named homes alphabetically, the bank bucket last.
	sort.Slice(summaries, func(i, j int) bool {
		bi, bj := summaries[i].HomeID == nil, summaries[j].HomeID == nil
		if bi != bj {
			return bj
		}
		return summaries[i].HomeName < summaries[j].HomeName
	})

	if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
		s.logger.Warn("failed to cache home summary", zap.String("company_id", companyID), zap.Error(err))
	}
	return summaries, nil
}

// PersonView builds the self-service view: every course the person is
// required to hold or has a record for, with its current status.
func (s *ComplianceService) PersonView(ctx context.Context, companyID, personID string) (*dto.PersonTrainingView, error) {
	courses, targets, err := s.loadMandates(ctx, companyID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByPerson(ctx, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training records")
	}

	courseIDs := make([]string, 0, len(courses))
	coursesByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
		coursesByID[c.ID] = c
	}
	targeted, err := s.courses.TargetedCourseIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course audiences")
	}

	required := compliance.RequiredCourseIDs(personID, courses, targets)
	recordsByCourse := make(map[string]models.TrainingRecord, len(records))
	for _, rec := range records {
		recordsByCourse[rec.CourseID] = rec
	}

	relevant := make(map[string]struct{}, len(required)+len(recordsByCourse))
	for id := range required {
		relevant[id] = struct{}{}
	}
	for id := range recordsByCourse {
		relevant[id] = struct{}{}
	}

	today := s.now()
	view := &dto.PersonTrainingView{PersonID: personID, Courses: []dto.PersonCourseStatus{}}
	for courseID := range relevant {
		course, ok := coursesByID[courseID]
		if !ok {
			continue
		}
		_, hasTargets := targeted[courseID]
		_, isRequired := required[courseID]
		line := dto.PersonCourseStatus{
			CourseID:   courseID,
			CourseName: course.Name,
			Required:   isRequired,
			Status:     models.StatusNoRecord,
			Audience:   course.Audience(hasTargets),
		}
		if rec, ok := recordsByCourse[courseID]; ok {
			line.RecordID = &rec.ID
			line.CertificateRef = rec.CertificateRef
			if rec.DueBy != nil {
				line.DueBy = formatDate(*rec.DueBy)
			}
			if !rec.Pending() {
				line.Status = compliance.ComputeStatus(*rec.DateCompleted, course.RefresherYears, s.windowFor(course), today)
				line.DateCompleted = formatDate(*rec.DateCompleted)
				if course.RefresherYears != nil {
					line.NextDueDate = formatDate(compliance.NextDueDate(*rec.DateCompleted, *course.RefresherYears))
				}
			}
		}
		view.Courses = append(view.Courses, line)
	}
	sort.Slice(view.Courses, func(i, j int) bool {
		return view.Courses[i].CourseName < view.Courses[j].CourseName
	})
	return view, nil
}

// ExportReportCSV renders the non-compliant half of a mandatory-mode
// report as CSV, missing course names pipe-joined.
func (s *ComplianceService) ExportReportCSV(ctx context.Context, companyID string, scope dto.RosterScope) ([]byte, error) {
	report, err := s.Report(ctx, companyID, scope)
	if err != nil {
		return nil, err
	}
	table := export.Table{Headers: []string{"Person", "Home", "Bank", "Missing mandatory courses"}}
	for _, entry := range report.NonCompliant {
		table.Rows = append(table.Rows, []string{
			entry.Person.DisplayName,
			entry.Person.HomeName,
			yesNo(entry.Person.Bank),
			strings.Join(entry.MissingCourseNames, "|"),
		})
	}
	data, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return data, nil
}

// ExportCourseCSV renders everyone in scope not satisfying one course.
func (s *ComplianceService) ExportCourseCSV(ctx context.Context, courseID string, scope dto.RosterScope) ([]byte, error) {
	report, err := s.CourseReport(ctx, courseID, scope)
	if err != nil {
		return nil, err
	}
	table := export.Table{Headers: []string{"Person", "Home", "Bank", "Missing course"}}
	for _, entry := range report.Entries {
		if s.policy.Satisfies(entry.Status) {
			continue
		}
		table.Rows = append(table.Rows, []string{
			entry.Person.DisplayName,
			entry.Person.HomeName,
			yesNo(entry.Person.Bank),
			report.CourseName,
		})
	}
	data, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return data, nil
}

// ExportHomeSummaryPDF renders the per-home summary as a PDF table.
func (s *ComplianceService) ExportHomeSummaryPDF(ctx context.Context, companyID string) ([]byte, error) {
	summaries, err := s.HomeSummary(ctx, companyID)
	if err != nil {
		return nil, err
	}
	table := export.Table{Headers: []string{"Home", "Compliant", "Total", "Rate"}}
	for _, summary := range summaries {
		table.Rows = append(table.Rows, []string{
			summary.HomeName,
			fmt.Sprintf("%d", summary.Compliant),
			fmt.Sprintf("%d", summary.Total),
			fmt.Sprintf("%d%%", summary.RatePercent),
		})
	}
	data, err := s.pdf.Render(table, "Training compliance by home")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return data, nil
}

func (s *ComplianceService) loadMandates(ctx context.Context, companyID string) ([]models.Course, []models.MandateTarget, error) {
	start := time.Now()
	courses, err := s.courses.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	targets, err := s.courses.ListTargetsByCompany(ctx, companyID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mandate targets")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("load_mandates", time.Since(start))
	}
	return courses, targets, nil
}

// loadStatuses computes per-person course statuses from the company's live
// records. Pending rows never contribute a status.
func (s *ComplianceService) loadStatuses(ctx context.Context, companyID string, courses []models.Course) (map[string]map[string]models.RecordStatus, error) {
	start := time.Now()
	records, err := s.records.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list training records")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("load_records", time.Since(start))
	}
	coursesByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		coursesByID[c.ID] = c
	}
	today := s.now()
	statuses := make(map[string]map[string]models.RecordStatus)
	for _, rec := range records {
		if rec.Pending() {
			continue
		}
		course, ok := coursesByID[rec.CourseID]
		if !ok {
			continue
		}
		personStatuses, ok := statuses[rec.PersonID]
		if !ok {
			personStatuses = make(map[string]models.RecordStatus)
			statuses[rec.PersonID] = personStatuses
		}
		personStatuses[rec.CourseID] = compliance.ComputeStatus(*rec.DateCompleted, course.RefresherYears, s.windowFor(course), today)
	}
	return statuses, nil
}

func (s *ComplianceService) windowFor(course models.Course) int {
	if course.DueSoonDays > 0 {
		return course.DueSoonDays
	}
	return s.dueSoonDays
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatDate(t time.Time) *string {
	formatted := t.Format("2006-01-02")
	return &formatted
}
