package testutil

import (
	"net/http"

	id "mandat/pkg/domain"
	"mandat/pkg/requestcontext"
)

// WithUser adds an authenticated user ID to the request context, simulating
// what the auth middleware does for real requests. Invalid IDs are ignored.
func WithUser(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
