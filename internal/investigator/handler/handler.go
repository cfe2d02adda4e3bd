// Package handler exposes investigator profile endpoints.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mandat/internal/investigator/models"
	"mandat/internal/platform/middleware"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// ProfileService is the investigator surface the handler needs.
type ProfileService interface {
	Register(ctx context.Context, userID id.UserID, fullName, city, region string) (*models.Investigator, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Investigator, error)
	SetAvailability(ctx context.Context, investigatorID id.InvestigatorID, status models.AvailabilityStatus) (*models.Investigator, error)
	UnavailableDates(ctx context.Context, investigatorID id.InvestigatorID) ([]time.Time, error)
	AddUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error
	RemoveUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error
}

// Handler serves the investigator routes.
type Handler struct {
	profiles ProfileService
}

func New(profiles ProfileService) *Handler {
	return &Handler{profiles: profiles}
}

// RegisterRoutes mounts the investigator routes. Every route acts on the
// authenticated user's own profile.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/investigators", func(r chi.Router) {
		r.Post("/", h.register)
		r.Get("/me", h.me)
		r.Put("/me/availability", h.setAvailability)
		r.Get("/me/unavailable-dates", h.listUnavailableDates)
		r.Post("/me/unavailable-dates", h.addUnavailableDate)
		r.Delete("/me/unavailable-dates", h.removeUnavailableDate)
	})
}

type registerRequest struct {
	FullName string `json:"full_name"`
	City     string `json:"city"`
	Region   string `json:"region"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	inv, err := h.profiles.Register(r.Context(), requestcontext.UserID(r.Context()), req.FullName, req.City, req.Region)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	inv, err := h.profiles.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, inv)
}

type availabilityRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	inv, err := h.profiles.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.profiles.SetAvailability(r.Context(), inv.ID, models.AvailabilityStatus(req.Status))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) listUnavailableDates(w http.ResponseWriter, r *http.Request) {
	inv, err := h.profiles.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	dates, err := h.profiles.UnavailableDates(r.Context(), inv.ID)
	if err != nil {
		middleware.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list unavailable dates"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dates)
}

type unavailableDateRequest struct {
	// Day is a calendar date in RFC 3339 date form, e.g. "2026-09-15".
	Day string `json:"day"`
}

func parseDay(raw string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "day must be a date in YYYY-MM-DD form")
	}
	return day, nil
}

func (h *Handler) addUnavailableDate(w http.ResponseWriter, r *http.Request) {
	inv, err := h.profiles.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req unavailableDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	day, err := parseDay(req.Day)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.profiles.AddUnavailableDate(r.Context(), inv.ID, day); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, nil)
}

func (h *Handler) removeUnavailableDate(w http.ResponseWriter, r *http.Request) {
	inv, err := h.profiles.FindByUserID(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	var req unavailableDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	day, err := parseDay(req.Day)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.profiles.RemoveUnavailableDate(r.Context(), inv.ID, day); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusNoContent, nil)
}
