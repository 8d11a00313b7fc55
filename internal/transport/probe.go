package transport

import (
	"context"
	"net/http"

	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/reconcile"
)

// Probe issues HEAD requests against feed download URLs, following
// redirects, and reports the status and advertised content length. It
// implements reconcile.HeadProbe.
type Probe struct {
	http *http.Client
}

// NewProbe creates a header probe with the standard probe timeout.
func NewProbe() *Probe {
	return &Probe{
		http: &http.Client{Timeout: constants.ProbeTimeout},
	}
}

// Probe performs a HEAD request against url. The response body is never
// downloaded; a server that does not advertise a content length yields -1.
func (p *Probe) Probe(ctx context.Context, url string) (reconcile.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return reconcile.ProbeResult{}, err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return reconcile.ProbeResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	return reconcile.ProbeResult{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
	}, nil
}
