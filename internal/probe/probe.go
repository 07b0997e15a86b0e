package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kubereach/kubereach/internal/resolver"
)

// Result describes the outcome of a successful probe request.
type Result struct {
	Target     resolver.Target
	StatusCode int
}

// Prober issues the single reachability request of a run. Redirects are
// always followed; certificate verification is disabled only when the
// target carries the resolver's insecure marker.
type Prober struct {
	timeout time.Duration
}

// New creates a Prober. A zero timeout means the request blocks until the
// server responds.
func New(timeout time.Duration) *Prober {
	return &Prober{timeout: timeout}
}

// Do issues one GET against the target. Transport failures and HTTP error
// statuses (>= 400) are both reported as errors; callers decide whether
// that is fatal.
func (p *Prober) Do(ctx context.Context, target resolver.Target) (*Result, error) {
	client := &http.Client{Timeout: p.timeout}
	if target.Insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	url := target.URL()
	log.Debug().Str("url", url).Bool("insecure", target.Insecure).Msg("probing target")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused or closed cleanly.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("probe request to %s returned status %d", url, resp.StatusCode)
	}

	return &Result{Target: target, StatusCode: resp.StatusCode}, nil
}
