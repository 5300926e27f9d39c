// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

// Package httpapi exposes the auth orchestrator over HTTP. It is a thin
// adapter: Envelope status codes map 1:1 onto HTTP status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/keyspring/keyspring/internal/auth"
	"github.com/keyspring/keyspring/internal/observability"
)

// Route paths.
const (
	RegisterPath = "/api/v1/auth/register"
	LoginPath    = "/api/v1/auth/login"
	MePath       = "/api/v1/auth/me"
)

// maxBodyBytes caps request bodies; auth payloads are tiny.
const maxBodyBytes = 1 << 20

// Server serves the auth HTTP API.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	service    *auth.Service
	verifier   TokenVerifier
	metrics    *observability.Metrics
	running    atomic.Bool
}

// NewServer creates an API server. metrics may be nil.
func NewServer(addr string, service *auth.Service, verifier TokenVerifier, metrics *observability.Metrics) (*Server, error) {
	if service == nil {
		return nil, oops.Code("API_INVALID_DEPENDENCY").Errorf("auth service is required")
	}
	if verifier == nil {
		return nil, oops.Code("API_INVALID_DEPENDENCY").Errorf("token verifier is required")
	}
	return &Server{
		addr:     addr,
		service:  service,
		verifier: verifier,
		metrics:  metrics,
	}, nil
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RegisterPath, s.handleRegister)
	mux.HandleFunc("POST "+LoginPath, s.handleLogin)
	mux.Handle("GET "+MePath, RequireAuth(s.verifier, http.HandlerFunc(s.handleMe)))
	return mux
}

// Start begins serving the API. It returns an error channel that
// receives any serve error and is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown api server").Wrap(err)
		}
	}

	slog.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on, or the empty
// string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var candidate auth.Registration
	if !s.decode(w, r, "register", &candidate) {
		return
	}

	env := s.service.Register(r.Context(), candidate)
	s.writeEnvelope(w, "register", env)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var credentials auth.Credentials
	if !s.decode(w, r, "login", &credentials) {
		return
	}

	env := s.service.Login(r.Context(), credentials)
	if env.StatusCode == http.StatusOK && s.metrics != nil {
		s.metrics.TokensIssuedTotal.Inc()
	}
	s.writeEnvelope(w, "login", env)
}

// handleMe echoes the authenticated subject. It exists to exercise the
// bearer-token middleware end to end.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	subject, okSubj := SubjectFromContext(r.Context())
	if !okSubj {
		s.writeEnvelope(w, "me", auth.Envelope{
			StatusCode: http.StatusUnauthorized,
			Message:    "Invalid or missing bearer token.",
		})
		return
	}
	s.writeEnvelope(w, "me", auth.Envelope{
		StatusCode: http.StatusOK,
		Message:    "Authenticated.",
		Payload:    map[string]string{"uniqueId": subject},
	})
}

// decode reads a JSON request body. On failure it writes a 400 Envelope
// and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, endpoint string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeEnvelope(w, endpoint, auth.Envelope{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request body.",
		})
		return false
	}
	return true
}

// writeEnvelope writes the envelope as JSON with its status code as the
// HTTP status, and records the request metric.
func (s *Server) writeEnvelope(w http.ResponseWriter, endpoint string, env auth.Envelope) {
	if s.metrics != nil {
		s.metrics.RecordRequest(endpoint, env.StatusCode)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to write response", "endpoint", endpoint, "error", err)
	}
}
