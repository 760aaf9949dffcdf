package headless

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/dancer/pkg/deferred"
	"github.com/bft-labs/dancer/pkg/frontend"
)

func testStatus() frontend.Status {
	return frontend.Status{Program: "dancer", Version: "1.2.0", State: "Running", Queued: 3}
}

func TestServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := deferred.NewMetrics(reg)
	s := deferred.NewScheduler(deferred.DefaultSchedulerConfig(), nil, m)
	_ = s.Offload("digest", nil, func() (interface{}, error) { return nil, nil })
	s.Shutdown(true)

	srv := NewServer("127.0.0.1:0", testStatus, reg, nil)
	router := srv.Router()

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		contains string
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK, `"healthy"`},
		{"status", http.MethodGet, "/status", http.StatusOK, `"state":"Running"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "dancer_pool_jobs_submitted_total 1"},
		{"wrong method", http.MethodPost, "/status", http.StatusMethodNotAllowed, ""},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.contains)
			}
		})
	}
}

func TestServer_StatusUnavailable(t *testing.T) {
	srv := NewServer(":0", nil, prometheus.NewRegistry(), nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestServer_StartAndClose(t *testing.T) {
	srv := NewServer("127.0.0.1:0", testStatus, prometheus.NewRegistry(), nil)
	if srv.Addr() != "" {
		t.Error("Addr() before Start should be empty")
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/status")
	if err != nil {
		t.Fatalf("GET /status error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var st frontend.Status
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Program != "dancer" || st.Queued != 3 {
		t.Errorf("status = %+v", st)
	}

	f := New(false, srv, nil)
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
