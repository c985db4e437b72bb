package domain

import "time"

// Review is an append-only rating event for one appointment. The subject of
// a review is not stored: it is whichever party of the appointment is not
// the reviewer.
type Review struct {
	ID            int64
	AppointmentID int64
	ReviewerID    int64
	Rating        int
	Comment       string
	CreatedAt     time.Time
}

// ReviewDetails is a review joined with the display names of the people
// involved. SubjectID carries the computed subject.
type ReviewDetails struct {
	Review
	ReviewerName string
	SubjectID    int64
	SubjectName  string
}
