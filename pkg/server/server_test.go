package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	pkgio "github.com/matzehuels/lanegraph/pkg/io"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

var testHistory = []history.Commit{
	{Hash: "c3", Subject: "Third", Parents: []string{"c2"}, Refs: []string{"HEAD", "main"}},
	{Hash: "c2", Subject: "Second", Parents: []string{"c1"}},
	{Hash: "c1", Subject: "First"},
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	input := filepath.Join(t.TempDir(), "history.json")
	if err := pkgio.ExportCommits(input, testHistory); err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	s := New(pipeline.NewRunner(nil, nil, nil), Options{
		Pipeline: pipeline.Options{Input: input, Labels: true},
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, nil)
	return s, input
}

func do(t *testing.T, h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBeforeFirstRefresh(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d", rec.Code)
	}
	for _, path := range []string{"/api/topology", "/api/graph.svg", "/api/graph.txt"} {
		rec := do(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s = %d, want 503", path, rec.Code)
		}
	}
}

func TestServeSnapshot(t *testing.T) {
	s, _ := newTestServer(t)
	sn, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sn.Commits != 3 || sn.Lanes != 1 || sn.ID == "" {
		t.Errorf("snapshot = %+v", sn)
	}
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/topology", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/topology = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}
	etag := rec.Header().Get("ETag")
	if etag != sn.ETag() {
		t.Errorf("ETag = %s, want %s", etag, sn.ETag())
	}
	l, err := graph.UnmarshalLayout(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Rows) != 3 || l.Rows[0].Subject != "Third" {
		t.Errorf("layout rows = %+v", l.Rows)
	}

	rec = do(t, h, http.MethodGet, "/api/topology", http.Header{"If-None-Match": {etag}})
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Errorf("conditional GET = %d with %d bytes", rec.Code, rec.Body.Len())
	}

	rec = do(t, h, http.MethodGet, "/api/graph.svg", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Errorf("/api/graph.svg = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("svg content type = %s", ct)
	}

	rec = do(t, h, http.MethodGet, "/api/graph.txt", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Second") {
		t.Errorf("/api/graph.txt = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/healthz", nil)
	var health map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["snapshot"] != sn.ID {
		t.Errorf("health = %v", health)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	s, input := newTestServer(t)
	first, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/refresh = %d: %s", rec.Code, rec.Body)
	}
	var resp snapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != first.ID {
		t.Errorf("unchanged history produced a new ID %s != %s", resp.ID, first.ID)
	}
	if resp.RunID == first.RunID {
		t.Error("each refresh is a new run")
	}

	if rec := do(t, h, http.MethodGet, "/api/refresh", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/refresh = %d", rec.Code)
	}

	// A failing rebuild reports the error and keeps serving the old graph.
	if err := os.Remove(input); err != nil {
		t.Fatal(err)
	}
	rec = do(t, h, http.MethodPost, "/api/refresh", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("refresh with missing input = %d, want 404", rec.Code)
	}
	var errResp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Error != "FILE_NOT_FOUND" {
		t.Errorf("error = %+v", errResp)
	}
	if s.Snapshot() == nil || s.Snapshot().ID != first.ID {
		t.Error("failed refresh replaced the snapshot")
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("/metrics = %d", rec.Code)
	}
}

func TestListenAndServe(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	addrc := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0", func(a net.Addr) { addrc <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrc:
	case err := <-done:
		t.Fatalf("ListenAndServe: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
