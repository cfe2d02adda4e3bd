// Package handler exposes the mandate workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	agencymodels "mandat/internal/agency/models"
	invmodels "mandat/internal/investigator/models"
	"mandat/internal/mandate/models"
	"mandat/internal/mandate/service"
	"mandat/internal/platform/middleware"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// WorkflowService is the orchestrator surface the handler needs.
type WorkflowService interface {
	CreateMandate(ctx context.Context, in service.CreateMandateInput) (*models.Mandate, models.Decision, error)
	ApplyToMandate(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID) (*models.Candidature, models.Decision, error)
	AcceptCandidature(ctx context.Context, candidatureID id.CandidatureID, mandateID id.MandateID, investigatorID id.InvestigatorID) (models.Decision, error)
	RejectCandidature(ctx context.Context, candidatureID id.CandidatureID) error
	UnassignInvestigator(ctx context.Context, mandateID id.MandateID) (models.Decision, error)
	TransitionStatus(ctx context.Context, mandateID id.MandateID, next models.Status) (models.Decision, error)
	RateMandate(ctx context.Context, mandateID id.MandateID, score int, comment string) (*models.Rating, error)
	GetMandate(ctx context.Context, mandateID id.MandateID) (*models.Mandate, error)
	GetCandidature(ctx context.Context, candidatureID id.CandidatureID) (*models.Candidature, error)
	GetRating(ctx context.Context, mandateID id.MandateID) (*models.Rating, error)
	ListAgencyMandates(ctx context.Context, agencyID id.AgencyID) ([]*models.Mandate, error)
	ListOpenMandates(ctx context.Context) ([]*models.Mandate, error)
	ListMandateCandidatures(ctx context.Context, mandateID id.MandateID) ([]*models.Candidature, error)
	ListInvestigatorCandidatures(ctx context.Context, investigatorID id.InvestigatorID) ([]*models.Candidature, error)
}

// AgencyResolver resolves the caller's agency for ownership checks.
type AgencyResolver interface {
	FindByOwner(ctx context.Context, ownerUserID id.UserID) (*agencymodels.Agency, error)
}

// InvestigatorResolver resolves the caller's investigator profile.
type InvestigatorResolver interface {
	FindByUserID(ctx context.Context, userID id.UserID) (*invmodels.Investigator, error)
}

// Handler serves the mandate workflow routes.
type Handler struct {
	workflow      WorkflowService
	agencies      AgencyResolver
	investigators InvestigatorResolver
}

func New(workflow WorkflowService, agencies AgencyResolver, investigators InvestigatorResolver) *Handler {
	return &Handler{workflow: workflow, agencies: agencies, investigators: investigators}
}

// RegisterRoutes mounts the mandate routes. The router must already run the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/mandates", func(r chi.Router) {
		r.Post("/", h.createMandate)
		r.Get("/", h.listAgencyMandates)
		r.Get("/open", h.listOpenMandates)
		r.Route("/{mandateID}", func(r chi.Router) {
			r.Get("/", h.getMandate)
			r.Post("/status", h.transitionStatus)
			r.Post("/unassign", h.unassignInvestigator)
			r.Get("/rating", h.getRating)
			r.Post("/rating", h.rateMandate)
			r.Route("/candidatures", func(r chi.Router) {
				r.Get("/", h.listCandidatures)
				r.Post("/", h.applyToMandate)
				r.Post("/{candidatureID}/accept", h.acceptCandidature)
				r.Post("/{candidatureID}/reject", h.rejectCandidature)
			})
		})
	})
	r.Get("/candidatures", h.listOwnCandidatures)
}

type createMandateRequest struct {
	Title          string          `json:"title"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Location       models.Location `json:"location"`
	DateRequired   *time.Time      `json:"date_required"`
	DurationHours  int             `json:"duration_hours"`
	Priority       string          `json:"priority"`
	Budget         *float64        `json:"budget"`
	AssignmentType string          `json:"assignment_type"`
	InvestigatorID string          `json:"investigator_id"`
}

// decisionResponse reports a business-rule rejection without an error
// envelope; the request itself was well-formed.
type decisionResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

func writeRejection(w http.ResponseWriter, decision models.Decision) {
	middleware.WriteJSON(w, http.StatusUnprocessableEntity, decisionResponse{Valid: false, Reason: decision.Reason})
}

func (h *Handler) createMandate(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var req createMandateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	in := service.CreateMandateInput{
		AgencyID:       agency.ID,
		Title:          req.Title,
		Type:           req.Type,
		Description:    req.Description,
		Location:       req.Location,
		DateRequired:   req.DateRequired,
		DurationHours:  req.DurationHours,
		Priority:       models.Priority(req.Priority),
		Budget:         req.Budget,
		AssignmentType: models.AssignmentType(req.AssignmentType),
	}
	if req.InvestigatorID != "" {
		investigatorID, err := id.ParseInvestigatorID(req.InvestigatorID)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		in.InvestigatorID = &investigatorID
	}

	mandate, decision, err := h.workflow.CreateMandate(r.Context(), in)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !decision.Valid {
		writeRejection(w, decision)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, mandate)
}

func (h *Handler) listAgencyMandates(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	mandates, err := h.workflow.ListAgencyMandates(r.Context(), agency.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, mandates)
}

func (h *Handler) listOpenMandates(w http.ResponseWriter, r *http.Request) {
	mandates, err := h.workflow.ListOpenMandates(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, mandates)
}

func (h *Handler) getMandate(w http.ResponseWriter, r *http.Request) {
	mandateID, err := id.ParseMandateID(chi.URLParam(r, "mandateID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	mandate, err := h.workflow.GetMandate(r.Context(), mandateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, mandate)
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) transitionStatus(w http.ResponseWriter, r *http.Request) {
	mandateID, err := h.ownedMandateID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	decision, err := h.workflow.TransitionStatus(r.Context(), mandateID, models.Status(req.Status))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !decision.Valid {
		writeRejection(w, decision)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, decisionResponse{Valid: true})
}

func (h *Handler) unassignInvestigator(w http.ResponseWriter, r *http.Request) {
	mandateID, err := h.ownedMandateID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	decision, err := h.workflow.UnassignInvestigator(r.Context(), mandateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !decision.Valid {
		writeRejection(w, decision)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, decisionResponse{Valid: true})
}

type rateRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *Handler) rateMandate(w http.ResponseWriter, r *http.Request) {
	mandateID, err := h.ownedMandateID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rating, err := h.workflow.RateMandate(r.Context(), mandateID, req.Score, req.Comment)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, rating)
}

func (h *Handler) getRating(w http.ResponseWriter, r *http.Request) {
	mandateID, err := id.ParseMandateID(chi.URLParam(r, "mandateID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	rating, err := h.workflow.GetRating(r.Context(), mandateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, rating)
}

func (h *Handler) listCandidatures(w http.ResponseWriter, r *http.Request) {
	mandateID, err := h.ownedMandateID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidatures, err := h.workflow.ListMandateCandidatures(r.Context(), mandateID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, candidatures)
}

func (h *Handler) applyToMandate(w http.ResponseWriter, r *http.Request) {
	mandateID, err := id.ParseMandateID(chi.URLParam(r, "mandateID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	investigator, err := h.investigators.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidature, decision, err := h.workflow.ApplyToMandate(r.Context(), mandateID, investigator.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !decision.Valid {
		writeRejection(w, decision)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, candidature)
}

func (h *Handler) acceptCandidature(w http.ResponseWriter, r *http.Request) {
	mandateID, err := h.ownedMandateID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidatureID, err := id.ParseCandidatureID(chi.URLParam(r, "candidatureID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidature, err := h.workflow.GetCandidature(r.Context(), candidatureID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	decision, err := h.workflow.AcceptCandidature(r.Context(), candidatureID, mandateID, candidature.InvestigatorID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !decision.Valid {
		writeRejection(w, decision)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, decisionResponse{Valid: true})
}

func (h *Handler) rejectCandidature(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ownedMandateID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidatureID, err := id.ParseCandidatureID(chi.URLParam(r, "candidatureID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.workflow.RejectCandidature(r.Context(), candidatureID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, decisionResponse{Valid: true})
}

func (h *Handler) listOwnCandidatures(w http.ResponseWriter, r *http.Request) {
	investigator, err := h.investigators.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	candidatures, err := h.workflow.ListInvestigatorCandidatures(r.Context(), investigator.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, candidatures)
}

// ownedMandateID parses the mandate ID from the URL and checks that the
// mandate belongs to the caller's agency.
func (h *Handler) ownedMandateID(r *http.Request) (id.MandateID, error) {
	mandateID, err := id.ParseMandateID(chi.URLParam(r, "mandateID"))
	if err != nil {
		return id.MandateID{}, err
	}
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		return id.MandateID{}, err
	}
	mandate, err := h.workflow.GetMandate(r.Context(), mandateID)
	if err != nil {
		return id.MandateID{}, err
	}
	if mandate.AgencyID != agency.ID {
		return id.MandateID{}, dErrors.New(dErrors.CodeForbidden, "mandate belongs to another agency")
	}
	return mandateID, nil
}
