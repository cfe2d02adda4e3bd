// Package models holds the agency aggregate.
package models

import (
	"time"

	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
)

// LicenseStatus is the verification state of an agency's permit.
type LicenseStatus string

const (
	LicensePending  LicenseStatus = "pending"
	LicenseVerified LicenseStatus = "verified"
	LicenseRejected LicenseStatus = "rejected"
)

func (s LicenseStatus) IsValid() bool {
	switch s {
	case LicensePending, LicenseVerified, LicenseRejected:
		return true
	}
	return false
}

// Agency is the tenant that posts mandates. Only agencies with a verified
// license may post.
type Agency struct {
	ID            id.AgencyID   `json:"id"`
	OwnerUserID   id.UserID     `json:"owner_user_id"`
	Name          string        `json:"name"`
	LicenseNumber string        `json:"license_number"`
	LicenseStatus LicenseStatus `json:"license_status"`
	City          string        `json:"city"`
	Region        string        `json:"region"`
	APISecretHash string        `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewAgency constructs an agency with a pending license.
func NewAgency(agencyID id.AgencyID, ownerUserID id.UserID, name, licenseNumber string, now time.Time) (*Agency, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency name cannot be empty")
	}
	if licenseNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency license number cannot be empty")
	}
	return &Agency{
		ID:            agencyID,
		OwnerUserID:   ownerUserID,
		Name:          name,
		LicenseNumber: licenseNumber,
		LicenseStatus: LicensePending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanPost reports whether the agency may post mandates.
func (a *Agency) CanPost() bool {
	return a.LicenseStatus == LicenseVerified
}

// CanReview checks that the license is awaiting a verification decision.
func (a *Agency) CanReview() error {
	if a.LicenseStatus != LicensePending {
		return dErrors.New(dErrors.CodeInvariantViolation, "agency license is not pending review")
	}
	return nil
}

// ApplyVerify marks the license verified.
func (a *Agency) ApplyVerify(now time.Time) {
	a.LicenseStatus = LicenseVerified
	a.UpdatedAt = now
}

// ApplyRejectLicense marks the license rejected.
func (a *Agency) ApplyRejectLicense(now time.Time) {
	a.LicenseStatus = LicenseRejected
	a.UpdatedAt = now
}

// ApplyCredential replaces the agency's API credential hash. Rotation
// invalidates the previous secret.
func (a *Agency) ApplyCredential(secretHash string, now time.Time) {
	a.APISecretHash = secretHash
	a.UpdatedAt = now
}

// ApplyResubmit puts a rejected license back under review with a new number.
func (a *Agency) ApplyResubmit(licenseNumber string, now time.Time) error {
	if a.LicenseStatus != LicenseRejected {
		return dErrors.New(dErrors.CodeInvariantViolation, "only rejected licenses can be resubmitted")
	}
	if licenseNumber == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "agency license number cannot be empty")
	}
	a.LicenseNumber = licenseNumber
	a.LicenseStatus = LicensePending
	a.UpdatedAt = now
	return nil
}
