package domain

import "time"

// Report represents a dashboard snapshot rendered by the terminal reporters
type Report struct {
	Title       string
	Dataset     string
	Period      *TimePeriod
	Filters     []ReportDetail
	KPIs        []ReportDetail
	Sections    []ReportSection
	TotalAmount float64
	Currency    string
}

// TimePeriod represents the order date range covered by the report
type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

// ReportSection represents one grouped aggregate
type ReportSection struct {
	Title   string
	Details []ReportDetail
}

// ReportDetail represents one row within a section
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
