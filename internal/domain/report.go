package domain

import "time"

// Report is a complaint one user files against another.
type Report struct {
	ID          int64
	ReporterID  int64
	ReportedID  int64
	Description string
	FiledAt     time.Time
	Status      string
}

// ReportDetails joins a report with both usernames.
type ReportDetails struct {
	Report
	ReporterName string
	ReportedName string
}
