// Package handler exposes the recipient-facing notification endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mandat/internal/notification"
	"mandat/internal/platform/middleware"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/platform/sentinel"
	"mandat/pkg/requestcontext"
)

// Inbox is the notification surface recipients interact with.
type Inbox interface {
	List(ctx context.Context, recipientID id.UserID) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error
	Delete(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error
}

// Handler serves the notification routes.
type Handler struct {
	inbox Inbox
}

func New(inbox Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// RegisterRoutes mounts the notification routes. The router must already run
// the auth middleware; every route is scoped to the authenticated recipient.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/{notificationID}/read", h.markRead)
		r.Delete("/{notificationID}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.inbox.List(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		middleware.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.inbox.MarkRead(r.Context(), notificationID, requestcontext.UserID(r.Context())); err != nil {
		middleware.WriteError(w, classify(err))
		return
	}
	middleware.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.inbox.Delete(r.Context(), notificationID, requestcontext.UserID(r.Context())); err != nil {
		middleware.WriteError(w, classify(err))
		return
	}
	middleware.WriteJSON(w, http.StatusNoContent, nil)
}

func classify(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "update notification")
}
