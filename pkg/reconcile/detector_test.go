package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
)

// fakeProbe returns a canned result or error for every URL.
type fakeProbe struct {
	result ProbeResult
	err    error
	calls  int
}

func (p *fakeProbe) Probe(_ context.Context, _ string) (ProbeResult, error) {
	p.calls++
	return p.result, p.err
}

func testRecord() feeds.FeedRecord {
	return feeds.FeedRecord{
		ID:   "f-acme~metro~fr",
		URLs: feeds.URLs{StaticCurrent: "http://x/a.zip"},
	}
}

func priorWithVersion(hash string, size int64) *feeds.PriorFeedRecord {
	return &feeds.PriorFeedRecord{
		FeedRecord:    feeds.FeedRecord{ID: "f-acme~metro~fr"},
		LatestVersion: &feeds.VersionDescriptor{ContentHash: hash, SizeBytes: size},
	}
}

func TestNeedsRefreshNoPrior(t *testing.T) {
	probe := &fakeProbe{}
	d := NewDetector(probe)

	assessment := d.NeedsRefresh(context.Background(), testRecord(), nil)
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonNoPrior, assessment.Reason)
	assert.Zero(t, probe.calls, "no probe without a baseline to compare against")
}

func TestNeedsRefreshNoBaseline(t *testing.T) {
	probe := &fakeProbe{}
	d := NewDetector(probe)

	prior := &feeds.PriorFeedRecord{FeedRecord: feeds.FeedRecord{ID: "f-acme~metro~fr"}}
	assessment := d.NeedsRefresh(context.Background(), testRecord(), prior)
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonNoBaseline, assessment.Reason)
	assert.Zero(t, probe.calls)
}

func TestNeedsRefreshSizeMatch(t *testing.T) {
	d := NewDetector(&fakeProbe{result: ProbeResult{StatusCode: 200, ContentLength: 1000}})

	assessment := d.NeedsRefresh(context.Background(), testRecord(), priorWithVersion("abc", 1000))
	assert.Equal(t, Skip, assessment.Decision)
	assert.Equal(t, ReasonSizeMatch, assessment.Reason)
	assert.Equal(t, "abc", assessment.PriorHash)
}

func TestNeedsRefreshSizeMismatch(t *testing.T) {
	d := NewDetector(&fakeProbe{result: ProbeResult{StatusCode: 200, ContentLength: 999}})

	assessment := d.NeedsRefresh(context.Background(), testRecord(), priorWithVersion("abc", 1000))
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonSizeMismatch, assessment.Reason)
}

func TestNeedsRefreshUnreachable(t *testing.T) {
	d := NewDetector(&fakeProbe{result: ProbeResult{StatusCode: 404}})

	assessment := d.NeedsRefresh(context.Background(), testRecord(), priorWithVersion("abc", 1000))
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonUnreachable, assessment.Reason)
}

func TestNeedsRefreshProbeError(t *testing.T) {
	probeErr := errors.New("connection refused")
	d := NewDetector(&fakeProbe{err: probeErr})

	assessment := d.NeedsRefresh(context.Background(), testRecord(), priorWithVersion("abc", 1000))
	assert.Equal(t, KeepOnError, assessment.Decision)
	assert.Equal(t, ReasonProbeError, assessment.Reason)
	assert.Equal(t, probeErr, assessment.Err)
}

func TestNeedsRefreshNoURL(t *testing.T) {
	probe := &fakeProbe{}
	d := NewDetector(probe)

	record := testRecord()
	record.URLs.StaticCurrent = ""

	assessment := d.NeedsRefresh(context.Background(), record, priorWithVersion("abc", 1000))
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonNoURL, assessment.Reason)
	assert.Zero(t, probe.calls)
}

func TestNeedsRefreshMissingContentLength(t *testing.T) {
	d := NewDetector(&fakeProbe{result: ProbeResult{StatusCode: 200, ContentLength: -1}})

	assessment := d.NeedsRefresh(context.Background(), testRecord(), priorWithVersion("abc", 1000))
	assert.Equal(t, Keep, assessment.Decision)
	assert.Equal(t, ReasonSizeMismatch, assessment.Reason)
}
