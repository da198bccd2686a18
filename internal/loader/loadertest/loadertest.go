// Package loadertest provides a miniature httptest-backed fixture server,
// standing in for grafana-k6's internal/lib/testutils/httpmultibin helper.
package loadertest

import (
	"net/http"
	"net/http/httptest"
)

// Server wraps an httptest.Server and a ServeMux callers register routes on
// before calling Start.
type Server struct {
	Mux *http.ServeMux
	srv *httptest.Server
}

// New returns an unstarted Server.
func New() *Server {
	return &Server{Mux: http.NewServeMux()}
}

// Start starts the underlying httptest.Server and returns its base URL.
func (s *Server) Start() string {
	s.srv = httptest.NewServer(s.Mux)
	return s.srv.URL
}

// Close shuts down the underlying httptest.Server.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}
