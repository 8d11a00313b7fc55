package reconcile

import (
	"context"
	"net/http"

	"github.com/openmobility/feedsync/pkg/feeds"
)

// ProbeResult is what a header probe learned about a URL without downloading
// its body.
type ProbeResult struct {
	StatusCode    int
	ContentLength int64 // -1 when the server did not report a length
}

// HeadProbe issues a lightweight header request against a feed URL. Timeouts
// and redirects are the implementation's concern; the detector only consumes
// the reported status and content length.
type HeadProbe interface {
	Probe(ctx context.Context, url string) (ProbeResult, error)
}

// Detector decides per feed whether upstream content differs from what the
// directory last recorded, using the cheapest available signal.
type Detector struct {
	probe HeadProbe
}

// NewDetector returns a detector using the given probe.
func NewDetector(probe HeadProbe) *Detector {
	return &Detector{probe: probe}
}

// NeedsRefresh assesses one feed against the directory's prior knowledge.
//
// The policy fails safe: a feed is only skipped when a successful probe
// reports a content length equal to the size the directory recorded for its
// latest version. Every other case, including probe failure, keeps the feed.
// The size heuristic accepts false negatives (same size, different content)
// in exchange for not downloading every feed on every pass.
func (d *Detector) NeedsRefresh(ctx context.Context, record feeds.FeedRecord, prior *feeds.PriorFeedRecord) Assessment {
	assessment := Assessment{FeedID: record.ID, Decision: Keep}

	if prior == nil {
		assessment.Reason = ReasonNoPrior
		return assessment
	}

	latest := prior.LatestVersion
	if latest == nil || (latest.ContentHash == "" && latest.SizeBytes == 0) {
		assessment.Reason = ReasonNoBaseline
		return assessment
	}
	assessment.PriorHash = latest.ContentHash

	url := record.URLs.StaticCurrent
	if url == "" {
		assessment.Reason = ReasonNoURL
		return assessment
	}

	result, err := d.probe.Probe(ctx, url)
	if err != nil {
		assessment.Decision = KeepOnError
		assessment.Reason = ReasonProbeError
		assessment.Err = err
		return assessment
	}

	if result.StatusCode != http.StatusOK {
		assessment.Reason = ReasonUnreachable
		return assessment
	}

	if result.ContentLength > 0 && result.ContentLength == latest.SizeBytes {
		assessment.Decision = Skip
		assessment.Reason = ReasonSizeMatch
		return assessment
	}

	assessment.Reason = ReasonSizeMismatch
	return assessment
}
