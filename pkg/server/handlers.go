package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lanegraph/pkg/buildinfo"
	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/observability"
)

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type snapshotResponse struct {
	ID      string    `json:"id"`
	RunID   string    `json:"run_id"`
	BuiltAt time.Time `json:"built_at"`
	Commits int       `json:"commits"`
	Lanes   int       `json:"lanes"`
}

func summarize(sn *Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:      sn.ID,
		RunID:   sn.RunID,
		BuiltAt: sn.BuiltAt,
		Commits: sn.Commits,
		Lanes:   sn.Lanes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := string(lgerrors.GetCode(err))
	if code == "" {
		code = string(lgerrors.ErrCodeInternal)
	}
	writeJSON(w, lgerrors.HTTPStatus(err), errorResponse{Error: code, Message: lgerrors.UserMessage(err)})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "version": buildinfo.Version}
	if sn := s.Snapshot(); sn != nil {
		body["snapshot"] = sn.ID
	}
	writeJSON(w, http.StatusOK, body)
}

// current writes 503 and returns nil when nothing has been built yet.
func (s *Server) current(w http.ResponseWriter) *Snapshot {
	sn := s.Snapshot()
	if sn == nil {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "UNAVAILABLE", Message: ErrNoSnapshot.Error()})
	}
	return sn
}

// artifact serves one snapshot body with conditional GET support.
func (s *Server) artifact(contentType string, body func(*Snapshot) []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sn := s.current(w)
		if sn == nil {
			return
		}
		w.Header().Set("ETag", sn.ETag())
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == sn.ETag() {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body(sn))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sn, err := s.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(sn))
}

// =============================================================================
// Middleware
// =============================================================================

// instrument logs each request and reports it to the HTTP hooks. The route
// pattern is read after the handler ran, once chi has matched it.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
