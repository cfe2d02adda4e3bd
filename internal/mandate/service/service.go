// Package service orchestrates the mandate workflow: creation, candidature
// handling, assignment, status transitions and ratings. Every mutating
// action is gated by the validator and notifies affected users only after
// the mutation has committed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mandat/internal/mandate/metrics"
	"mandat/internal/mandate/models"
	"mandat/internal/notification"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/platform/sentinel"
	"mandat/pkg/requestcontext"
)

// Service is the workflow orchestrator.
type Service struct {
	mandates      MandateStore
	candidatures  CandidatureStore
	investigators InvestigatorDirectory
	agencies      AgencyDirectory
	notifier      Notifier
	validator     *Validator
	txRunner      TxRunner
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithTxRunner makes multi-store mutations transactional. Without it each
// store call commits on its own, which is what the in-memory stores do.
func WithTxRunner(runner TxRunner) Option {
	return func(s *Service) { s.txRunner = runner }
}

func NewService(mandates MandateStore, candidatures CandidatureStore, investigators InvestigatorDirectory, agencies AgencyDirectory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		mandates:      mandates,
		candidatures:  candidatures,
		investigators: investigators,
		agencies:      agencies,
		notifier:      notifier,
		txRunner:      passthroughTxRunner{},
		logger:        slog.Default(),
		tracer:        noop.NewTracerProvider().Tracer("mandate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("mandate")
	}
	s.validator = NewValidator(mandates, investigators, s.countRejection)
	return s
}

func (s *Service) countRejection(check string) {
	s.metrics.RecordRejection(check)
}

// passthroughTxRunner is the default when no transactional store backs the
// service: fn runs directly against the caller's context.
type passthroughTxRunner struct{}

func (passthroughTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Validator exposes the service's validator for callers that only need the
// checks.
func (s *Service) Validator() *Validator { return s.validator }

// CreateMandateInput carries the agency's posting request.
type CreateMandateInput struct {
	AgencyID       id.AgencyID
	Title          string
	Type           string
	Description    string
	Location       models.Location
	DateRequired   *time.Time
	DurationHours  int
	Priority       models.Priority
	Budget         *float64
	AssignmentType models.AssignmentType
	// InvestigatorID is set for direct-assignment mandates.
	InvestigatorID *id.InvestigatorID
}

// CreateMandate posts a new mandate for the agency. Public mandates start
// open and are announced to available investigators in the mandate's region.
// Direct-assignment mandates additionally run the assignment flow, so they
// come back in-progress when validation passes.
func (s *Service) CreateMandate(ctx context.Context, in CreateMandateInput) (*models.Mandate, models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.create")
	defer span.End()

	canPost, err := s.agencies.CanPost(ctx, in.AgencyID)
	if err != nil {
		return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "check agency license")
	}
	if !canPost {
		return nil, models.Reject("agency license must be verified before posting mandates"), nil
	}

	now := requestcontext.Now(ctx)
	if in.DateRequired != nil {
		if decision := ValidateDates(*in.DateRequired, now); !decision.Valid {
			return nil, decision, nil
		}
	}
	if in.AssignmentType == models.AssignmentDirect && in.InvestigatorID == nil {
		return nil, models.Reject("direct-assignment mandates need an investigator"), nil
	}

	mandate, err := models.NewMandate(id.NewMandateID(), in.AgencyID, in.Title, in.AssignmentType, now)
	if err != nil {
		return nil, models.Decision{}, err
	}
	mandate.Type = in.Type
	mandate.Description = in.Description
	mandate.Location = in.Location
	mandate.DateRequired = in.DateRequired
	mandate.DurationHours = in.DurationHours
	if in.Priority != "" {
		if !in.Priority.IsValid() {
			return nil, models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "unknown priority")
		}
		mandate.Priority = in.Priority
	}
	mandate.Budget = in.Budget

	if err := s.mandates.Create(ctx, mandate); err != nil {
		return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "create mandate")
	}
	s.logger.InfoContext(ctx, "mandate created",
		"mandate_id", mandate.ID.String(),
		"agency_id", mandate.AgencyID.String(),
		"assignment_type", string(mandate.AssignmentType),
	)

	if in.AssignmentType == models.AssignmentDirect {
		decision, err := s.AssignInvestigator(ctx, mandate.ID, *in.InvestigatorID)
		if err != nil {
			return nil, models.Decision{}, err
		}
		if !decision.Valid {
			// The mandate stays open and unassigned; the agency can retry
			// with another investigator.
			return mandate, decision, nil
		}
		fresh, err := s.mandates.FindByID(ctx, mandate.ID)
		if err != nil {
			return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "reload mandate")
		}
		return fresh, models.Allow(), nil
	}

	s.announceMandate(ctx, mandate)
	return mandate, models.Allow(), nil
}

// announceMandate tells available investigators in the mandate's region that
// a new public mandate was posted. Best effort.
func (s *Service) announceMandate(ctx context.Context, m *models.Mandate) {
	investigators, err := s.investigators.ListAvailableInRegion(ctx, m.Location.Region)
	if err != nil {
		s.logger.WarnContext(ctx, "new mandate announcement skipped",
			"mandate_id", m.ID.String(), "error", err.Error())
		return
	}
	mandateID := m.ID
	for _, inv := range investigators {
		_ = s.notifier.Dispatch(ctx, notification.Notification{
			RecipientID: inv.UserID,
			MandateID:   &mandateID,
			Title:       "New mandate available",
			Message:     fmt.Sprintf("A new mandate %q was posted in %s.", m.Title, m.Location.Region),
			Type:        notification.TypeNewMandate,
		})
	}
}

// ApplyToMandate records an investigator's candidature on an open public
// mandate and tells the agency owner.
func (s *Service) ApplyToMandate(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID) (*models.Candidature, models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.apply")
	defer span.End()

	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.Reject("mandate not found"), nil
		}
		return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	if mandate.Status != models.StatusOpen {
		return nil, models.Reject("mandate is no longer open for candidatures"), nil
	}
	if mandate.AssignmentType != models.AssignmentPublic {
		return nil, models.Reject("mandate does not accept candidatures"), nil
	}
	if _, err := s.investigators.FindByID(ctx, investigatorID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.Reject("investigator not found"), nil
		}
		return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up investigator")
	}

	now := requestcontext.Now(ctx)
	candidature := models.NewCandidature(id.NewCandidatureID(), mandateID, investigatorID, now)
	if err := s.candidatures.Create(ctx, candidature); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, models.Reject("investigator has already applied to this mandate"), nil
		}
		return nil, models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "create candidature")
	}
	if s.metrics != nil {
		s.metrics.CandidaturesCreated.Inc()
	}

	if owner, err := s.agencies.OwnerUserID(ctx, mandate.AgencyID); err == nil {
		_ = s.notifier.Dispatch(ctx, notification.Notification{
			RecipientID: owner,
			MandateID:   &mandateID,
			Title:       "New candidature",
			Message:     fmt.Sprintf("An investigator applied to %q.", mandate.Title),
			Type:        notification.TypeUpdate,
		})
	} else {
		s.logger.WarnContext(ctx, "agency owner lookup failed",
			"agency_id", mandate.AgencyID.String(), "error", err.Error())
	}
	return candidature, models.Allow(), nil
}

// AssignInvestigator validates and commits an assignment, then notifies the
// investigator. The commit is a conditional update, so of two concurrent
// calls that both pass validation only one wins.
func (s *Service) AssignInvestigator(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID) (models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.assign")
	defer span.End()

	decision, err := s.validator.ValidateAssignment(ctx, mandateID, investigatorID)
	if err != nil || !decision.Valid {
		return decision, err
	}

	// The pre-commit status feeds the transition metric and tells an
	// idempotent re-assignment of the current holder apart from a fresh
	// assignment, which records no transition and sends no notification.
	current, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	alreadyHeld := current.IsAssignedTo(investigatorID)

	now := requestcontext.Now(ctx)
	assigned, err := s.mandates.AssignIfUnassigned(ctx, mandateID, investigatorID, now)
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "assign mandate")
	}
	if !assigned {
		return models.Reject("mandate was assigned concurrently"), nil
	}
	if alreadyHeld {
		return models.Allow(), nil
	}
	if s.metrics != nil {
		s.metrics.AssignmentsTotal.Inc()
		s.metrics.RecordTransition(string(current.Status), string(models.StatusInProgress))
	}
	s.logger.InfoContext(ctx, "investigator assigned",
		"mandate_id", mandateID.String(),
		"investigator_id", investigatorID.String(),
	)

	s.notifyInvestigator(ctx, investigatorID, mandateID,
		"Mandate assigned", "You have been assigned a mandate.", notification.TypeMandateAssigned)
	return models.Allow(), nil
}

// AcceptCandidature runs the accept flow: validate the assignment, commit it
// atomically, mark the candidature accepted, reject its siblings, then
// notify. Sibling rejection keeps the candidature set consistent with the
// one-accepted-per-mandate rule.
func (s *Service) AcceptCandidature(ctx context.Context, candidatureID id.CandidatureID, mandateID id.MandateID, investigatorID id.InvestigatorID) (models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "candidature.accept")
	defer span.End()

	candidature, err := s.candidatures.FindByID(ctx, candidatureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Reject("candidature not found"), nil
		}
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up candidature")
	}
	if candidature.MandateID != mandateID || candidature.InvestigatorID != investigatorID {
		return models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "candidature does not match mandate and investigator")
	}
	if err := candidature.CanResolve(); err != nil {
		return models.Decision{}, err
	}

	decision, err := s.validator.ValidateAssignment(ctx, mandateID, investigatorID)
	if err != nil || !decision.Valid {
		return decision, err
	}

	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	alreadyHeld := mandate.IsAssignedTo(investigatorID)

	// The assignment and the candidature resolution commit together: a
	// failed candidature update rolls the assignment back instead of leaving
	// an assigned mandate with an unresolved candidature.
	now := requestcontext.Now(ctx)
	var assigned bool
	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		assigned, txErr = s.mandates.AssignIfUnassigned(ctx, mandateID, investigatorID, now)
		if txErr != nil {
			return fmt.Errorf("assign mandate: %w", txErr)
		}
		if !assigned {
			return nil
		}
		candidature.ApplyAccept()
		if txErr := s.candidatures.Update(ctx, candidature); txErr != nil {
			return fmt.Errorf("update candidature: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "accept candidature")
	}
	if !assigned {
		return models.Reject("mandate was assigned concurrently"), nil
	}

	if s.metrics != nil && !alreadyHeld {
		s.metrics.AssignmentsTotal.Inc()
		s.metrics.RecordTransition(string(mandate.Status), string(models.StatusInProgress))
	}
	s.logger.InfoContext(ctx, "candidature accepted",
		"candidature_id", candidatureID.String(),
		"mandate_id", mandateID.String(),
		"investigator_id", investigatorID.String(),
	)

	s.rejectSiblings(ctx, mandate, candidatureID)

	s.notifyInvestigator(ctx, investigatorID, mandateID,
		"Candidature accepted",
		fmt.Sprintf("Your candidature for %q was accepted.", mandate.Title),
		notification.TypeAccepted)
	return models.Allow(), nil
}

// rejectSiblings rejects the mandate's other pending candidatures and
// notifies each investigator. Failures are logged; the accept has already
// committed.
func (s *Service) rejectSiblings(ctx context.Context, mandate *models.Mandate, acceptedID id.CandidatureID) {
	siblings, err := s.candidatures.ListByMandate(ctx, mandate.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "sibling candidature lookup failed",
			"mandate_id", mandate.ID.String(), "error", err.Error())
		return
	}
	for _, sibling := range siblings {
		if sibling.ID == acceptedID || sibling.Status != models.CandidatureInterested {
			continue
		}
		sibling.ApplyReject()
		if err := s.candidatures.Update(ctx, sibling); err != nil {
			s.logger.WarnContext(ctx, "sibling candidature rejection failed",
				"candidature_id", sibling.ID.String(), "error", err.Error())
			continue
		}
		s.notifyInvestigator(ctx, sibling.InvestigatorID, mandate.ID,
			"Candidature rejected",
			fmt.Sprintf("Your candidature for %q was not selected.", mandate.Title),
			notification.TypeRejected)
	}
}

// RejectCandidature marks a pending candidature rejected and notifies the
// investigator. The mandate itself is untouched.
func (s *Service) RejectCandidature(ctx context.Context, candidatureID id.CandidatureID) error {
	ctx, span := s.tracer.Start(ctx, "candidature.reject")
	defer span.End()

	candidature, err := s.candidatures.FindByID(ctx, candidatureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "candidature not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up candidature")
	}
	if err := candidature.CanResolve(); err != nil {
		return err
	}

	candidature.ApplyReject()
	if err := s.candidatures.Update(ctx, candidature); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update candidature")
	}
	s.logger.InfoContext(ctx, "candidature rejected", "candidature_id", candidatureID.String())

	var title string
	if mandate, err := s.mandates.FindByID(ctx, candidature.MandateID); err == nil {
		title = mandate.Title
	}
	s.notifyInvestigator(ctx, candidature.InvestigatorID, candidature.MandateID,
		"Candidature rejected",
		fmt.Sprintf("Your candidature for %q was rejected.", title),
		notification.TypeRejected)
	return nil
}

// UnassignInvestigator clears the mandate's assignment, reopens it, and
// notifies the investigator who held it.
func (s *Service) UnassignInvestigator(ctx context.Context, mandateID id.MandateID) (models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.unassign")
	defer span.End()

	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Reject("mandate not found"), nil
		}
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	if !mandate.HasAssignedInvestigator() {
		return models.Reject("mandate has no assigned investigator"), nil
	}
	// The transition is checked against the post-clear state: unassignment
	// clears and reopens in one step.
	if !workflowAllowsReopen(mandate.Status) {
		return models.Reject("transition from " + string(mandate.Status) + " to " + string(models.StatusOpen) + " is not allowed"), nil
	}

	now := requestcontext.Now(ctx)
	previous, err := s.mandates.ClearAssignment(ctx, mandateID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return models.Reject("mandate has no assigned investigator"), nil
		}
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "clear assignment")
	}
	if s.metrics != nil {
		s.metrics.UnassignmentsTotal.Inc()
		s.metrics.RecordTransition(string(mandate.Status), string(models.StatusOpen))
	}
	s.logger.InfoContext(ctx, "investigator unassigned",
		"mandate_id", mandateID.String(),
		"investigator_id", previous.String(),
	)

	s.notifyInvestigator(ctx, previous, mandateID,
		"Mandate unassigned",
		fmt.Sprintf("You were unassigned from %q.", mandate.Title),
		notification.TypeMandateUnassigned)
	return models.Allow(), nil
}

// TransitionStatus moves the mandate to the requested status when the
// workflow table permits it, and notifies the assigned investigator of the
// update.
func (s *Service) TransitionStatus(ctx context.Context, mandateID id.MandateID, next models.Status) (models.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.transition")
	defer span.End()

	if !next.IsValid() {
		return models.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "unknown mandate status")
	}
	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Reject("mandate not found"), nil
		}
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}

	decision := ValidateStatusTransition(mandate.Status, next, mandate.HasAssignedInvestigator())
	if !decision.Valid {
		s.countRejection("status_transition")
		return decision, nil
	}

	from := mandate.Status
	mandate.ApplyStatus(next, requestcontext.Now(ctx))
	if err := s.mandates.Update(ctx, mandate); err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "update mandate")
	}
	s.metrics.RecordTransition(string(from), string(next))
	s.logger.InfoContext(ctx, "mandate status changed",
		"mandate_id", mandateID.String(),
		"from", string(from),
		"to", string(next),
	)

	if mandate.HasAssignedInvestigator() {
		s.notifyInvestigator(ctx, *mandate.AssignedTo, mandateID,
			"Mandate updated",
			fmt.Sprintf("Mandate %q is now %s.", mandate.Title, next),
			notification.TypeUpdate)
	}
	return models.Allow(), nil
}

// RateMandate records the agency's rating of a completed mandate. At most
// one rating per mandate.
func (s *Service) RateMandate(ctx context.Context, mandateID id.MandateID, score int, comment string) (*models.Rating, error) {
	ctx, span := s.tracer.Start(ctx, "mandate.rate")
	defer span.End()

	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "mandate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	if mandate.Status != models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only completed mandates can be rated")
	}

	rating, err := models.NewRating(mandateID, score, comment, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.mandates.CreateRating(ctx, rating); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "mandate is already rated")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create rating")
	}
	return rating, nil
}

// GetMandate returns one mandate.
func (s *Service) GetMandate(ctx context.Context, mandateID id.MandateID) (*models.Mandate, error) {
	mandate, err := s.mandates.FindByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "mandate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up mandate")
	}
	return mandate, nil
}

// ListAgencyMandates returns the agency's mandates, newest first.
func (s *Service) ListAgencyMandates(ctx context.Context, agencyID id.AgencyID) ([]*models.Mandate, error) {
	out, err := s.mandates.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list agency mandates")
	}
	return out, nil
}

// ListOpenMandates returns open public mandates for investigator browsing.
func (s *Service) ListOpenMandates(ctx context.Context) ([]*models.Mandate, error) {
	out, err := s.mandates.ListOpenPublic(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list open mandates")
	}
	return out, nil
}

// GetCandidature returns one candidature.
func (s *Service) GetCandidature(ctx context.Context, candidatureID id.CandidatureID) (*models.Candidature, error) {
	candidature, err := s.candidatures.FindByID(ctx, candidatureID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidature not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up candidature")
	}
	return candidature, nil
}

// ListMandateCandidatures returns the candidatures on one mandate.
func (s *Service) ListMandateCandidatures(ctx context.Context, mandateID id.MandateID) ([]*models.Candidature, error) {
	out, err := s.candidatures.ListByMandate(ctx, mandateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list mandate candidatures")
	}
	return out, nil
}

// ListInvestigatorCandidatures returns the investigator's candidatures.
func (s *Service) ListInvestigatorCandidatures(ctx context.Context, investigatorID id.InvestigatorID) ([]*models.Candidature, error) {
	out, err := s.candidatures.ListByInvestigator(ctx, investigatorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list investigator candidatures")
	}
	return out, nil
}

// GetRating returns the mandate's rating if one exists.
func (s *Service) GetRating(ctx context.Context, mandateID id.MandateID) (*models.Rating, error) {
	rating, err := s.mandates.FindRating(ctx, mandateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "rating not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find rating")
	}
	return rating, nil
}

func (s *Service) notifyInvestigator(ctx context.Context, investigatorID id.InvestigatorID, mandateID id.MandateID, title, message string, typ notification.Type) {
	investigator, err := s.investigators.FindByID(ctx, investigatorID)
	if err != nil {
		s.logger.WarnContext(ctx, "notification recipient lookup failed",
			"investigator_id", investigatorID.String(), "error", err.Error())
		return
	}
	mid := mandateID
	_ = s.notifier.Dispatch(ctx, notification.Notification{
		RecipientID: investigator.UserID,
		MandateID:   &mid,
		Title:       title,
		Message:     message,
		Type:        typ,
	})
}

func workflowAllowsReopen(from models.Status) bool {
	return ValidateStatusTransition(from, models.StatusOpen, false).Valid
}
