// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package web exposes the account service over HTTP with JSON bodies.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/veriauth/veriauth/internal/account"
	"github.com/veriauth/veriauth/pkg/errutil"
)

// Metrics receives request and auth-failure counts. A nil Metrics is
// valid and drops everything.
type Metrics interface {
	RecordRequest(route, status string)
	RecordAuthFailure(reason string)
}

// Server routes the /auth API to the account service.
type Server struct {
	svc     *account.Service
	logger  *slog.Logger
	metrics Metrics
	router  *mux.Router
}

// NewServer creates a Server. metrics may be nil.
func NewServer(svc *account.Service, logger *slog.Logger, metrics Metrics) *Server {
	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	// Inside the router so the matched path template is available for the
	// route label.
	r.Use(s.countRequests)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify-otp", s.handleVerifyOTP).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset-password", s.handleResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/users", s.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/auth/{id}", s.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/auth/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	r.HandleFunc("/auth/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
}

// Handler returns the router wrapped in access logging.
func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(os.Stdout, s.router)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// countRequests feeds per-route, per-status counts to the metrics sink.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.metrics == nil {
			return
		}
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.RecordRequest(route, strconv.Itoa(rec.status))
	})
}

func (s *Server) recordAuthFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordAuthFailure(reason)
	}
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

// respondMessage writes a {"message": ...} body.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// serverError logs the full error server-side and sends a generic 500.
func (s *Server) serverError(w http.ResponseWriter, err error) {
	errutil.LogError(s.logger, "request failed", err)
	respondMessage(w, http.StatusInternalServerError, "Server error")
}
