package httpserver

import (
	"net/http"
	"time"
)

// New builds the workflow API server. Write timeout stays above the request
// timeout middleware so handlers control the deadline.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
