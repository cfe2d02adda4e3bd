package service

import (
	"context"
	"errors"
	"time"

	"mandat/internal/investigator/models"
	mmodels "mandat/internal/mandate/models"
	"mandat/internal/mandate/workflow"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/platform/sentinel"
)

// maxInProgressPerInvestigator caps concurrent workload. The cap is
// inclusive: an investigator holding exactly this many in-progress mandates
// cannot take another.
const maxInProgressPerInvestigator = 5

// minimumLeadTime is how far in the future a mandate's required date must
// sit at creation time.
const minimumLeadTime = 24 * time.Hour

// Check names reported in metrics when a rule rejects.
const (
	checkMandateExists      = "mandate_exists"
	checkAlreadyAssigned    = "already_assigned"
	checkMandateStatus      = "mandate_status"
	checkInvestigatorExists = "investigator_exists"
	checkAvailability       = "availability"
	checkDateRequired       = "date_required"
	checkUnavailableDate    = "unavailable_date"
	checkWorkloadCap        = "workload_cap"
)

// Validator gates mutating workflow operations behind domain rules. Rule
// failures come back as Decision values; only infrastructure faults surface
// as errors.
type Validator struct {
	mandates      MandateStore
	investigators InvestigatorDirectory
	onRejection   func(check string)
}

// NewValidator wires a validator over the given stores. onRejection is
// called with the failing check's name on every rule rejection; pass nil to
// skip counting.
func NewValidator(mandates MandateStore, investigators InvestigatorDirectory, onRejection func(check string)) *Validator {
	return &Validator{mandates: mandates, investigators: investigators, onRejection: onRejection}
}

func (v *Validator) reject(check, reason string) mmodels.Decision {
	if v.onRejection != nil {
		v.onRejection(check)
	}
	return mmodels.Reject(reason)
}

// ValidateAssignment checks whether the investigator may be assigned to the
// mandate. Checks run in a fixed order and the first failure wins; later
// rules are not evaluated. Re-assigning the investigator who already holds
// an in-progress mandate passes so the operation stays idempotent; on a
// terminal mandate the status check rejects even the current holder.
func (v *Validator) ValidateAssignment(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID) (mmodels.Decision, error) {
	mandate, err := v.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return v.reject(checkMandateExists, "mandate not found"), nil
		}
		return mmodels.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}

	if mandate.HasAssignedInvestigator() && !mandate.IsAssignedTo(investigatorID) {
		return v.reject(checkAlreadyAssigned, "mandate is already assigned to another investigator"), nil
	}

	if !mandate.Status.AcceptsAssignment() {
		return v.reject(checkMandateStatus, "mandate status does not allow assignment"), nil
	}

	// At this point the mandate is active; re-assigning its current holder
	// is an idempotent pass. Terminal statuses never reach here, so a
	// completed mandate cannot be revived through its old assignee.
	if mandate.IsAssignedTo(investigatorID) {
		return mmodels.Allow(), nil
	}

	investigator, err := v.investigators.FindByID(ctx, investigatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return v.reject(checkInvestigatorExists, "investigator not found"), nil
		}
		return mmodels.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up investigator")
	}

	if investigator.Availability == models.AvailabilityUnavailable {
		return v.reject(checkAvailability, "investigator is currently unavailable"), nil
	}

	if mandate.DateRequired == nil {
		return v.reject(checkDateRequired, "mandate has no required date"), nil
	}

	unavailable, err := v.investigators.UnavailableDates(ctx, investigatorID)
	if err != nil {
		return mmodels.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up unavailable dates")
	}
	for _, day := range unavailable {
		if models.SameCalendarDay(day, *mandate.DateRequired) {
			return v.reject(checkUnavailableDate, "investigator is unavailable on the required date"), nil
		}
	}

	count, err := v.mandates.CountInProgressByInvestigator(ctx, investigatorID)
	if err != nil {
		return mmodels.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "count in-progress mandates")
	}
	if count >= maxInProgressPerInvestigator {
		return v.reject(checkWorkloadCap, "investigator has reached the concurrent mandate limit"), nil
	}

	return mmodels.Allow(), nil
}

// ValidateDates checks a mandate's required date at creation time. Pure; the
// caller supplies the clock.
func ValidateDates(dateRequired, now time.Time) mmodels.Decision {
	if !dateRequired.After(now) {
		return mmodels.Reject("required date must be in the future")
	}
	if dateRequired.Before(now.Add(minimumLeadTime)) {
		return mmodels.Reject("required date must be at least 24 hours away")
	}
	return mmodels.Allow()
}

// ValidateStatusTransition checks a status change against the workflow table
// plus the investigator presence rules. Pure.
func ValidateStatusTransition(current, next mmodels.Status, hasAssignedInvestigator bool) mmodels.Decision {
	if !workflow.CanTransition(current, next) {
		return mmodels.Reject("transition from " + string(current) + " to " + string(next) + " is not allowed")
	}
	if workflow.RequiresInvestigator(current, next) && !hasAssignedInvestigator {
		return mmodels.Reject("transition requires an assigned investigator")
	}
	if next == mmodels.StatusOpen && hasAssignedInvestigator {
		return mmodels.Reject("clear the assigned investigator before reopening the mandate")
	}
	return mmodels.Allow()
}
