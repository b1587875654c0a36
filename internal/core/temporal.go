package core

import (
	"fmt"
	"time"
)

// DefaultRange fills open date bounds: a missing start is a year before today and
// a missing end is today.
func DefaultRange(now, start, end time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start.IsZero() {
		start = today.AddDate(0, 0, -365)
	}
	if end.IsZero() {
		end = today
	}
	return start, end
}

// ReportPeriod labels a date range for report headings: "2023" for a whole
// calendar year, "Mar-Jun 2023" within one year and "Nov 2022-Feb 2023" across
// years.
func ReportPeriod(start, end time.Time) string {
	if start.Year() == end.Year() {
		if start.Month() == time.January && end.Month() == time.December {
			return fmt.Sprint(start.Year())
		}
		return fmt.Sprintf("%s-%s %d", start.Format("Jan"), end.Format("Jan"), start.Year())
	}
	return fmt.Sprintf("%s %d-%s %d", start.Format("Jan"), start.Year(), end.Format("Jan"), end.Year())
}
