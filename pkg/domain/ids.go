// Package domain defines the typed identifiers shared across the marketplace.
//
// Each entity gets its own UUID-backed type so the compiler catches a mandate
// ID passed where an investigator ID belongs. Parse functions enforce the
// invariant that IDs crossing a trust boundary are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "mandat/pkg/domain-errors"
)

type (
	// UserID identifies a platform account (agency owner or investigator).
	UserID uuid.UUID

	// AgencyID identifies an investigation agency tenant.
	AgencyID uuid.UUID

	// InvestigatorID identifies an investigator profile.
	InvestigatorID uuid.UUID

	// MandateID identifies a posted work order.
	MandateID uuid.UUID

	// CandidatureID identifies an investigator's application to a mandate.
	CandidatureID uuid.UUID

	// NotificationID identifies a dispatched notification record.
	NotificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id AgencyID) String() string       { return uuid.UUID(id).String() }
func (id InvestigatorID) String() string { return uuid.UUID(id).String() }
func (id MandateID) String() string      { return uuid.UUID(id).String() }
func (id CandidatureID) String() string  { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// Text marshaling keeps the UUID string form in JSON; without these the
// underlying byte array would leak into payloads.
func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id AgencyID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id InvestigatorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id MandateID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CandidatureID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AgencyID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *InvestigatorID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MandateID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CandidatureID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NotificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id AgencyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id InvestigatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MandateID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CandidatureID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewAgencyID returns a fresh random agency ID.
func NewAgencyID() AgencyID { return AgencyID(uuid.New()) }

// NewInvestigatorID returns a fresh random investigator ID.
func NewInvestigatorID() InvestigatorID { return InvestigatorID(uuid.New()) }

// NewMandateID returns a fresh random mandate ID.
func NewMandateID() MandateID { return MandateID(uuid.New()) }

// NewCandidatureID returns a fresh random candidature ID.
func NewCandidatureID() CandidatureID { return CandidatureID(uuid.New()) }

// NewNotificationID returns a fresh random notification ID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID validates and converts a raw string into a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseAgencyID validates and converts a raw string into an AgencyID.
func ParseAgencyID(raw string) (AgencyID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return AgencyID{}, err
	}
	return AgencyID(parsed), nil
}

// ParseInvestigatorID validates and converts a raw string into an InvestigatorID.
func ParseInvestigatorID(raw string) (InvestigatorID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return InvestigatorID{}, err
	}
	return InvestigatorID(parsed), nil
}

// ParseMandateID validates and converts a raw string into a MandateID.
func ParseMandateID(raw string) (MandateID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return MandateID{}, err
	}
	return MandateID(parsed), nil
}

// ParseCandidatureID validates and converts a raw string into a CandidatureID.
func ParseCandidatureID(raw string) (CandidatureID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return CandidatureID{}, err
	}
	return CandidatureID(parsed), nil
}

// ParseNotificationID validates and converts a raw string into a NotificationID.
func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(parsed), nil
}
