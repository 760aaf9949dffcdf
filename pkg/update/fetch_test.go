package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	err error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return nil, m.err
}

const validManifest = `{
  "metadata": {"lastUpdated": "2024-05-01"},
  "versions": [
    {"versionNumber": "1.3.0", "push": "True", "description": "Bug fixes", "updateUrl": "https://example.com/1.3.0"}
  ]
}`

func TestFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind OutcomeKind
		wantErr  error
	}{
		{name: "success", status: http.StatusOK, body: validManifest, wantKind: OutcomeSuccess},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantKind: OutcomeRequestError, wantErr: ErrTransport},
		{name: "not found", status: http.StatusNotFound, wantKind: OutcomeRequestError, wantErr: ErrTransport},
		{name: "malformed json", status: http.StatusOK, body: `{"metadata": `, wantKind: OutcomeMalformed, wantErr: ErrManifestMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := NewFetcher(srv.Client(), srv.URL, time.Second).Fetch(context.Background())
			if out.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v (err %v)", out.Kind, tt.wantKind, out.Err)
			}
			if tt.wantErr != nil && !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
			if tt.wantKind == OutcomeSuccess && (out.Manifest == nil || len(out.Manifest.Versions) != 1) {
				t.Errorf("Manifest = %+v", out.Manifest)
			}
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	out := NewFetcher(srv.Client(), srv.URL, 50*time.Millisecond).Fetch(context.Background())
	if out.Kind != OutcomeTimeout {
		t.Fatalf("Kind = %v, want Timeout (err %v)", out.Kind, out.Err)
	}
	if !errors.Is(out.Err, ErrTransportTimeout) {
		t.Errorf("Err = %v, want ErrTransportTimeout", out.Err)
	}
}

func TestFetcher_TransportError(t *testing.T) {
	f := NewFetcher(&mockHTTPClient{err: errors.New("connection refused")}, "http://example.invalid", time.Second)

	out := f.Fetch(context.Background())
	if out.Kind != OutcomeRequestError {
		t.Errorf("Kind = %v, want RequestError", out.Kind)
	}
	if !errors.Is(out.Err, ErrTransport) {
		t.Errorf("Err = %v, want ErrTransport", out.Err)
	}
}

func TestFetcher_InvalidURL(t *testing.T) {
	out := NewFetcher(nil, "://bad", time.Second).Fetch(context.Background())
	if out.Kind != OutcomeRequestError {
		t.Errorf("Kind = %v, want RequestError", out.Kind)
	}
}
