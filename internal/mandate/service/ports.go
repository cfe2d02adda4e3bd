package service

import (
	"context"
	"time"

	invmodels "mandat/internal/investigator/models"
	"mandat/internal/mandate/models"
	"mandat/internal/notification"
	id "mandat/pkg/domain"
)

// MandateStore persists mandate aggregates and their ratings.
type MandateStore interface {
	Create(ctx context.Context, m *models.Mandate) error
	FindByID(ctx context.Context, mandateID id.MandateID) (*models.Mandate, error)
	Update(ctx context.Context, m *models.Mandate) error
	ListByAgency(ctx context.Context, agencyID id.AgencyID) ([]*models.Mandate, error)
	ListOpenPublic(ctx context.Context) ([]*models.Mandate, error)

	// AssignIfUnassigned atomically assigns the investigator and moves the
	// mandate to in-progress, but only while the mandate is open and
	// unassigned, or in-progress and already held by this same investigator.
	// Reports whether the assignment took effect. This conditional write,
	// not the validation pre-check, is what closes the double-assignment
	// race; the status guards keep it from reviving a terminal mandate.
	AssignIfUnassigned(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID, now time.Time) (bool, error)

	// ClearAssignment atomically clears the assigned investigator and reopens
	// the mandate, returning the investigator who held it. Returns
	// sentinel.ErrInvalidState when the mandate has no assignee.
	ClearAssignment(ctx context.Context, mandateID id.MandateID, now time.Time) (id.InvestigatorID, error)

	CountInProgressByInvestigator(ctx context.Context, investigatorID id.InvestigatorID) (int, error)

	// CreateRating returns sentinel.ErrConflict when the mandate is already
	// rated.
	CreateRating(ctx context.Context, r *models.Rating) error
	FindRating(ctx context.Context, mandateID id.MandateID) (*models.Rating, error)
}

// CandidatureStore persists candidatures.
type CandidatureStore interface {
	// Create returns sentinel.ErrConflict when the investigator already has a
	// candidature on this mandate.
	Create(ctx context.Context, c *models.Candidature) error
	FindByID(ctx context.Context, candidatureID id.CandidatureID) (*models.Candidature, error)
	ListByMandate(ctx context.Context, mandateID id.MandateID) ([]*models.Candidature, error)
	ListByInvestigator(ctx context.Context, investigatorID id.InvestigatorID) ([]*models.Candidature, error)
	Update(ctx context.Context, c *models.Candidature) error
}

// InvestigatorDirectory answers investigator lookups the validator and the
// orchestrator need. Backed by the investigator service, which may cache
// availability.
type InvestigatorDirectory interface {
	FindByID(ctx context.Context, investigatorID id.InvestigatorID) (*invmodels.Investigator, error)
	UnavailableDates(ctx context.Context, investigatorID id.InvestigatorID) ([]time.Time, error)
	ListAvailableInRegion(ctx context.Context, region string) ([]*invmodels.Investigator, error)
}

// AgencyDirectory answers agency lookups for posting gates and notification
// addressing.
type AgencyDirectory interface {
	// CanPost reports whether the agency's license allows posting mandates.
	CanPost(ctx context.Context, agencyID id.AgencyID) (bool, error)
	OwnerUserID(ctx context.Context, agencyID id.AgencyID) (id.UserID, error)
}

// Notifier records workflow-event notifications. Callers treat dispatch as
// fire-and-forget.
type Notifier interface {
	Dispatch(ctx context.Context, n notification.Notification) error
}

// TxRunner runs fn inside one storage transaction: every store call made
// through the ctx that fn receives commits or rolls back together. The
// in-memory runner just calls fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
