package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxManifestBytes caps the manifest body.
const maxManifestBytes = 1 << 20

// DefaultTimeout bounds one manifest request.
const DefaultTimeout = 5 * time.Second

// HTTPClient abstracts HTTP request execution.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves the release manifest.
type Fetcher struct {
	client  HTTPClient
	url     string
	timeout time.Duration
}

// NewFetcher creates a fetcher for url. A nil client uses http.DefaultClient.
func NewFetcher(client HTTPClient, url string, timeout time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: client, url: url, timeout: timeout}
}

// Fetch issues one GET and classifies the result. It never returns an
// error; failures are reported through Outcome.Kind and Outcome.Err.
func (f *Fetcher) Fetch(ctx context.Context) Outcome {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Outcome{Kind: OutcomeRequestError, Err: fmt.Errorf("%w: create request: %v", ErrTransport, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Err: fmt.Errorf("%w: %v", ErrTransportTimeout, err)}
		}
		return Outcome{Kind: OutcomeRequestError, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return Outcome{Kind: OutcomeRequestError, Err: fmt.Errorf("%w: server returned %d", ErrTransport, resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Err: fmt.Errorf("%w: %v", ErrTransportTimeout, err)}
		}
		return Outcome{Kind: OutcomeRequestError, Err: fmt.Errorf("%w: read body: %v", ErrTransport, err)}
	}

	m, err := ParseManifest(body)
	if err != nil {
		return Outcome{Kind: OutcomeMalformed, Err: err}
	}
	return Outcome{Kind: OutcomeSuccess, Manifest: m}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
