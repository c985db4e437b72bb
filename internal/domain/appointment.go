package domain

import "time"

// Appointment links a pet (and transitively its owner) with a provider.
// StartTime/EndTime are time-of-day values in HH:MM:SS form.
type Appointment struct {
	ID          int64
	PetID       int64
	ProviderID  int64
	ServiceType string
	Date        time.Time
	StartTime   string
	EndTime     string
	Status      string
}

// AppointmentDetails is an appointment joined with the profiles either side
// of it needs to render a listing.
type AppointmentDetails struct {
	Appointment
	PetName      string
	OwnerID      int64
	OwnerName    string
	ProviderName string
}
