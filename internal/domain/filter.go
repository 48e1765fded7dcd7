package domain

import (
	"fmt"
	"time"
)

const (
	DefaultWindowDays   = 30
	DefaultInsightLimit = 10
	DefaultMinCount     = 1
)

type Period string

const (
	PeriodHourly  Period = "hourly"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// ReportFilter carries the caller-selectable knobs shared by all reports.
// Zero values mean "not specified".
type ReportFilter struct {
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
	ServiceType ServiceType `json:"serviceType,omitempty"`
	Branch      string      `json:"branch,omitempty"`
	Urgency     Urgency     `json:"urgency,omitempty"`
	Category    Category    `json:"category,omitempty"`
	Period      Period      `json:"period,omitempty"`
	Days        int         `json:"days,omitempty"`
	MinCount    int         `json:"minCount,omitempty"`
	Limit       int         `json:"limit,omitempty"`
}

// Validate rejects filters with unknown enum values or inverted ranges.
func (f ReportFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return NewValidationError("endDate", "must not be before startDate")
	}
	if f.ServiceType != "" && !f.ServiceType.Valid() {
		return NewValidationError("serviceType", fmt.Sprintf("unknown service type %q", f.ServiceType))
	}
	if f.Urgency != "" && !f.Urgency.Valid() {
		return NewValidationError("urgency", fmt.Sprintf("unknown urgency %q", f.Urgency))
	}
	if f.Category != "" && !f.Category.Valid() {
		return NewValidationError("category", fmt.Sprintf("unknown category %q", f.Category))
	}
	if f.Period != "" && !f.Period.Valid() {
		return NewValidationError("period", fmt.Sprintf("unknown period %q", f.Period))
	}
	if f.Days < 0 {
		return NewValidationError("days", "must not be negative")
	}
	if f.MinCount < 0 {
		return NewValidationError("minCount", "must not be negative")
	}
	if f.Limit < 0 {
		return NewValidationError("limit", "must not be negative")
	}
	return nil
}

// Window resolves the date range: explicit bounds win, otherwise the last
// DefaultWindowDays days ending at now.
func (f ReportFilter) Window(now time.Time) (start, end time.Time) {
	end = now
	if f.EndDate != nil {
		end = *f.EndDate
	}
	start = end.AddDate(0, 0, -DefaultWindowDays)
	if f.StartDate != nil {
		start = *f.StartDate
	}
	return start, end
}

// TrailingWindow resolves a days-sized window ending at now.
func (f ReportFilter) TrailingWindow(now time.Time) (start, end time.Time, days int) {
	days = f.Days
	if days <= 0 {
		days = DefaultWindowDays
	}
	return now.AddDate(0, 0, -days), now, days
}

// RecordQuery is the predicate handed to the record store.
type RecordQuery struct {
	Start            *time.Time
	End              *time.Time
	ServiceType      ServiceType
	Branch           string
	Urgency          Urgency
	Category         Category
	ExcludeStatuses  []Status
	OnlyClassified   bool
	OnlyUnclassified bool
	WithInsights     bool
	OldestFirst      bool
	Limit            int
	Offset           int
}
