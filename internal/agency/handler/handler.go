// Package handler exposes agency registration and license endpoints.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mandat/internal/agency/models"
	"mandat/internal/platform/middleware"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// AgencyService is the agency surface the handler needs.
type AgencyService interface {
	Register(ctx context.Context, ownerUserID id.UserID, name, licenseNumber, city, region string) (*models.Agency, error)
	FindByOwner(ctx context.Context, ownerUserID id.UserID) (*models.Agency, error)
	ReviewLicense(ctx context.Context, agencyID id.AgencyID, approved bool) (*models.Agency, error)
	ResubmitLicense(ctx context.Context, agencyID id.AgencyID, licenseNumber string) (*models.Agency, error)
	IssueAPICredential(ctx context.Context, agencyID id.AgencyID) (string, error)
}

// Handler serves the agency routes.
type Handler struct {
	agencies AgencyService
}

func New(agencies AgencyService) *Handler {
	return &Handler{agencies: agencies}
}

// RegisterRoutes mounts the agency routes. License review is an
// administrative action gated by role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agencies", func(r chi.Router) {
		r.Post("/", h.register)
		r.Get("/me", h.me)
		r.Post("/me/license/resubmit", h.resubmitLicense)
		r.Post("/me/credential", h.issueCredential)
		r.Post("/{agencyID}/license/review", h.reviewLicense)
	})
}

type registerRequest struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	City          string `json:"city"`
	Region        string `json:"region"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	agency, err := h.agencies.Register(r.Context(), requestcontext.UserID(r.Context()), req.Name, req.LicenseNumber, req.City, req.Region)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, agency)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, agency)
}

type credentialResponse struct {
	APISecret string `json:"api_secret"`
}

// issueCredential rotates the agency's API secret and returns the plaintext.
// The secret is not retrievable afterwards.
func (h *Handler) issueCredential(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	secret, err := h.agencies.IssueAPICredential(r.Context(), agency.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, credentialResponse{APISecret: secret})
}

type reviewRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) reviewLicense(w http.ResponseWriter, r *http.Request) {
	agencyID, err := id.ParseAgencyID(chi.URLParam(r, "agencyID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	agency, err := h.agencies.ReviewLicense(r.Context(), agencyID, req.Approved)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, agency)
}

type resubmitRequest struct {
	LicenseNumber string `json:"license_number"`
}

func (h *Handler) resubmitLicense(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.FindByOwner(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req resubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.agencies.ResubmitLicense(r.Context(), agency.ID, req.LicenseNumber)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}
