package domain

import "time"

// AvailabilitySlot is a window a provider has opened for bookings.
// StartTime/EndTime are time-of-day values in HH:MM:SS form.
type AvailabilitySlot struct {
	ID           int64
	ProviderID   int64
	ProviderType string
	Date         time.Time
	StartTime    string
	EndTime      string
}

// AvailabilityDetails joins a slot with the provider's public profile fields.
type AvailabilityDetails struct {
	AvailabilitySlot
	ProviderName  string
	Phone         *string
	Address       string
	AverageRating *float32
	Role          Role
}
