// Package models holds the mandate and candidature aggregates.
package models

import (
	"time"

	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
)

// Status is the lifecycle state of a mandate.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// IsValid reports whether s is a known mandate status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// AcceptsAssignment reports whether a mandate in this status may receive a
// new investigator. Completed, cancelled and expired mandates reject new
// assignment.
func (s Status) AcceptsAssignment() bool {
	return s == StatusOpen || s == StatusInProgress
}

// Priority orders mandates for agency dashboards.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// AssignmentType distinguishes mandates posted for public candidature from
// mandates assigned directly to a chosen investigator.
type AssignmentType string

const (
	AssignmentDirect AssignmentType = "direct"
	AssignmentPublic AssignmentType = "public"
)

func (a AssignmentType) IsValid() bool {
	return a == AssignmentDirect || a == AssignmentPublic
}

// Location is where the investigative work takes place.
type Location struct {
	City       string  `json:"city"`
	Region     string  `json:"region"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

// Mandate is the aggregate root for a posted work order.
//
// Invariants:
//   - AssignedTo is non-nil whenever Status is in-progress or completed
//   - AssignedTo is nil whenever Status is open
//   - Status changes only through transitions the workflow table allows
//   - A rating exists only once the mandate is completed, at most one
//
// Mandates are never deleted; cancellation is a terminal status.
type Mandate struct {
	ID             id.MandateID       `json:"id"`
	AgencyID       id.AgencyID        `json:"agency_id"`
	Title          string             `json:"title"`
	Type           string             `json:"type"`
	Description    string             `json:"description"`
	Location       Location           `json:"location"`
	DateRequired   *time.Time         `json:"date_required"`
	DurationHours  int                `json:"duration_hours"`
	Priority       Priority           `json:"priority"`
	Budget         *float64           `json:"budget,omitempty"`
	AssignmentType AssignmentType     `json:"assignment_type"`
	Status         Status             `json:"status"`
	AssignedTo     *id.InvestigatorID `json:"assigned_to,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewMandate constructs an open mandate after checking construction
// invariants. Direct-assignment mandates still start open; the assignment
// step moves them to in-progress.
func NewMandate(mandateID id.MandateID, agencyID id.AgencyID, title string, assignmentType AssignmentType, now time.Time) (*Mandate, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mandate title cannot be empty")
	}
	if len(title) > 200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mandate title must be 200 characters or less")
	}
	if !assignmentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "assignment type must be direct or public")
	}
	return &Mandate{
		ID:             mandateID,
		AgencyID:       agencyID,
		Title:          title,
		AssignmentType: assignmentType,
		Priority:       PriorityNormal,
		Status:         StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasAssignedInvestigator reports whether an investigator currently holds
// the mandate.
func (m *Mandate) HasAssignedInvestigator() bool {
	return m.AssignedTo != nil && !m.AssignedTo.IsNil()
}

// IsAssignedTo reports whether the mandate is assigned to this investigator.
func (m *Mandate) IsAssignedTo(investigatorID id.InvestigatorID) bool {
	return m.AssignedTo != nil && *m.AssignedTo == investigatorID
}

// ApplyAssignment records the investigator and moves the mandate to
// in-progress. Validate the assignment and the transition first.
func (m *Mandate) ApplyAssignment(investigatorID id.InvestigatorID, now time.Time) {
	assigned := investigatorID
	m.AssignedTo = &assigned
	m.Status = StatusInProgress
	m.UpdatedAt = now
}

// ApplyUnassignment clears the investigator and reopens the mandate.
func (m *Mandate) ApplyUnassignment(now time.Time) {
	m.AssignedTo = nil
	m.Status = StatusOpen
	m.UpdatedAt = now
}

// ApplyStatus records a status change. Legality is the workflow table's
// concern; this only mutates.
func (m *Mandate) ApplyStatus(next Status, now time.Time) {
	m.Status = next
	m.UpdatedAt = now
}

// CandidatureStatus is the resolution state of an application.
type CandidatureStatus string

const (
	CandidatureInterested CandidatureStatus = "interested"
	CandidatureAccepted   CandidatureStatus = "accepted"
	CandidatureRejected   CandidatureStatus = "rejected"
)

// Candidature is an investigator's application to an open mandate. At most
// one candidature per (mandate, investigator) pair, and at most one may
// reach accepted per mandate. Resolved candidatures are never mutated again.
type Candidature struct {
	ID             id.CandidatureID  `json:"id"`
	MandateID      id.MandateID      `json:"mandate_id"`
	InvestigatorID id.InvestigatorID `json:"investigator_id"`
	Status         CandidatureStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewCandidature constructs a pending candidature.
func NewCandidature(candidatureID id.CandidatureID, mandateID id.MandateID, investigatorID id.InvestigatorID, now time.Time) *Candidature {
	return &Candidature{
		ID:             candidatureID,
		MandateID:      mandateID,
		InvestigatorID: investigatorID,
		Status:         CandidatureInterested,
		CreatedAt:      now,
	}
}

// CanResolve checks that the candidature is still pending. Accepted and
// rejected candidatures are immutable.
func (c *Candidature) CanResolve() error {
	if c.Status != CandidatureInterested {
		return dErrors.New(dErrors.CodeInvariantViolation, "candidature is already resolved")
	}
	return nil
}

// ApplyAccept marks the candidature accepted.
func (c *Candidature) ApplyAccept() { c.Status = CandidatureAccepted }

// ApplyReject marks the candidature rejected.
func (c *Candidature) ApplyReject() { c.Status = CandidatureRejected }

// Rating is the agency's rating of a completed mandate. At most one per
// mandate.
type Rating struct {
	MandateID id.MandateID `json:"mandate_id"`
	Score     int          `json:"score"`
	Comment   string       `json:"comment,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewRating constructs a rating after checking the score range.
func NewRating(mandateID id.MandateID, score int, comment string, now time.Time) (*Rating, error) {
	if score < 1 || score > 5 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "rating score must be between 1 and 5")
	}
	return &Rating{MandateID: mandateID, Score: score, Comment: comment, CreatedAt: now}, nil
}

// Decision is the outcome of a business-rule check. Rule failures are
// values, not errors, so callers can tell an expected rejection from an
// infrastructure fault.
type Decision struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Allow returns a passing decision.
func Allow() Decision { return Decision{Valid: true} }

// Reject returns a failing decision with a user-facing reason.
func Reject(reason string) Decision { return Decision{Valid: false, Reason: reason} }
