// Package notification records user-addressed workflow event notifications.
package notification

import (
	"time"

	id "mandat/pkg/domain"
)

// Type tags a notification with the workflow event that produced it.
type Type string

const (
	TypeAccepted          Type = "accepted"
	TypeRejected          Type = "rejected"
	TypeUpdate            Type = "update"
	TypeNewMandate        Type = "new-mandate"
	TypeMandateAssigned   Type = "mandate_assigned"
	TypeMandateUnassigned Type = "mandate_unassigned"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeAccepted, TypeRejected, TypeUpdate, TypeNewMandate, TypeMandateAssigned, TypeMandateUnassigned:
		return true
	}
	return false
}

// Notification is an append-only, user-addressed event record. The workflow
// engine only creates these; the recipient marks them read or deletes them
// through the consumer endpoints.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	RecipientID id.UserID         `json:"recipient_id"`
	MandateID   *id.MandateID     `json:"mandate_id,omitempty"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        Type              `json:"type"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}
