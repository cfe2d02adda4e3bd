package middleware

import (
	"encoding/json"
	"net/http"

	dErrors "mandat/pkg/domain-errors"
)

// errorEnvelope is the JSON error body every handler returns.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError translates a domain error into the shared JSON error envelope.
// Keeping the translation in one place keeps handlers thin and responses
// consistent.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error:   string(code),
		Message: dErrors.Message(err),
	})
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
