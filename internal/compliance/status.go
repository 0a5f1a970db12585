// Package compliance implements the pure training-compliance calculus:
// refresher expiry math, per-person required-course resolution and the
// compliant/non-compliant verdict. It performs no I/O; services feed it
// rows and a clock.
package compliance

import (
	"time"

	"github.com/haven-care/carehome-api/internal/models"
)

// NextDueDate returns the refresher deadline for a completion. Calendar-year
// addition: a 29 Feb completion plus one year normalises to 1 Mar.
func NextDueDate(completed time.Time, refresherYears int) time.Time {
	return completed.AddDate(refresherYears, 0, 0)
}

// DaysRemaining counts whole days from today until the deadline, negative
// once the deadline has passed. Both inputs are truncated to dates so the
// time-of-day component never shifts the boundary.
func DaysRemaining(dueDate, today time.Time) int {
	due := truncateToDate(dueDate)
	now := truncateToDate(today)
	return int(due.Sub(now).Hours() / 24)
}

// ComputeStatus derives the lifecycle status of a completed record. It is
// only defined for records with a completion date; pending rows have no
// status here. A nil refresher interval means the course never expires. The
// due-soon boundary is inclusive: exactly dueSoonDays out is DUE_SOON.
func ComputeStatus(completed time.Time, refresherYears *int, dueSoonDays int, today time.Time) models.RecordStatus {
	if refresherYears == nil {
		return models.StatusUpToDate
	}
	remaining := DaysRemaining(NextDueDate(completed, *refresherYears), today)
	switch {
	case remaining < 0:
		return models.StatusOverdue
	case remaining <= dueSoonDays:
		return models.StatusDueSoon
	default:
		return models.StatusUpToDate
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
