// Package models holds the investigator profile aggregate.
package models

import (
	"time"

	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
)

// AvailabilityStatus is the investigator's self-declared availability.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityBusy        AvailabilityStatus = "busy"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

func (a AvailabilityStatus) IsValid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityUnavailable:
		return true
	}
	return false
}

// Investigator is the worker profile that applies to or is assigned
// mandates. UnavailableDates are specific calendar days the investigator
// cannot work, compared by date rather than timestamp.
type Investigator struct {
	ID           id.InvestigatorID  `json:"id"`
	UserID       id.UserID          `json:"user_id"`
	FullName     string             `json:"full_name"`
	City         string             `json:"city"`
	Region       string             `json:"region"`
	Availability AvailabilityStatus `json:"availability_status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewInvestigator constructs an available investigator profile.
func NewInvestigator(investigatorID id.InvestigatorID, userID id.UserID, fullName string, now time.Time) (*Investigator, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "investigator name cannot be empty")
	}
	return &Investigator{
		ID:           investigatorID,
		UserID:       userID,
		FullName:     fullName,
		Availability: AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyAvailability records a new availability status.
func (i *Investigator) ApplyAvailability(status AvailabilityStatus, now time.Time) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown availability status")
	}
	i.Availability = status
	i.UpdatedAt = now
	return nil
}

// SameCalendarDay reports whether two instants fall on the same calendar
// date, ignoring the time-of-day portion. Comparison happens in UTC so a
// date registered from any client timezone blocks the whole day.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
