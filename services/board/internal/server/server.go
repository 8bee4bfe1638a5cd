package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"msgboard/internal/metrics"
	"msgboard/internal/ratelimit"
	"msgboard/internal/util"
	"msgboard/services/board/internal/app"
)

const defaultMaxBodyBytes = 64 * 1024

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// Server exposes the board's HTTP endpoints.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	renderer       *pageRenderer
	mux            *http.ServeMux
	maxBodyBytes   int64
	requestTimeout time.Duration
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		trustedProxies: cfg.TrustedProxies,
		renderer:       newPageRenderer(),
		mux:            http.NewServeMux(),
		maxBodyBytes:   maxBodyBytes,
		requestTimeout: cfg.RequestTimeout,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("board",
		util.WithSecurityHeaders(util.WithRequestTimeout(s.requestTimeout, s.mux)),
		metrics.ObserveRequest,
	))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.app.Ready(ctx); err != nil {
		util.LoggerFromContext(r.Context()).Warn("store not ready", "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoot dispatches every (method, path) pair not claimed by another route.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, r, "not found")
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.handleCreateMessage(w, r)
	case http.MethodGet:
		s.handleListMessages(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	msg, err := app.ReadForm(r.Body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ts, err := s.app.PostMessage(r.Context(), msg)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	util.LoggerFromContext(r.Context()).Debug("message stored", "timestamp", ts, "username", msg.Username)
	writeJSON(w, http.StatusOK, postResponse{Timestamp: ts})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	timeRange, err := app.DecodeQuery(r.URL.RawQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	msgs, err := s.app.ListMessages(r.Context(), timeRange)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	page, err := s.renderer.Render(msgs)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("render page failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	key := util.ClientIP(r, s.trustedProxies)
	if s.limiter.Allow(r.Context(), key) {
		return true
	}
	metrics.RateLimited.Inc()
	w.Header().Set("Retry-After", "60")
	writeError(w, r, http.StatusTooManyRequests, "too many messages")
	return false
}

type postResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeErrorCode(w, r, status, msg, errorCodeForStatus(status))
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: util.RequestIDFromRequest(r),
	})
}

// writeAppError maps the tagged board errors to status codes:
// validation failures are the client's (400/413), everything else is ours.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if app.KindOf(err) == app.KindValidation {
		status = http.StatusBadRequest
		if errors.Is(err, app.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
	}
	writeErrorCode(w, r, status, app.PublicMessage(err), errorCodeForBoard(status, err))
}

func errorCodeForBoard(status int, err error) string {
	switch {
	case errors.Is(err, app.ErrMessageRequired):
		return "BOARD_MESSAGE_REQUIRED"
	case errors.Is(err, app.ErrInvalidFilter):
		return "BOARD_INVALID_FILTER"
	case errors.Is(err, app.ErrBodyTooLarge):
		return "BOARD_BODY_TOO_LARGE"
	case errors.Is(err, app.ErrInvalidForm):
		return "BOARD_INVALID_REQUEST"
	}
	return errorCodeForStatus(status)
}

func errorCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BOARD_INVALID_REQUEST"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "BOARD_BODY_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SYSTEM_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
