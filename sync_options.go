package feedsync

import (
	"time"

	"github.com/openmobility/feedsync/pkg/constants"
)

// SyncOptions controls one reconciliation pass.
type SyncOptions struct {
	// Timeout bounds the whole pass, external fetching included.
	Timeout time.Duration

	// DryRun computes every decision but writes nothing: no registry
	// document, no reports, no external fetch.
	DryRun bool

	// SkipFetch stops after the first stage: the registry document and
	// reports are written, but the external executor never runs.
	SkipFetch bool

	// Force refreshes every feed regardless of what the size probe says.
	Force bool

	// ReportsOnly writes the diagnostic reports but leaves the registry
	// document untouched and never fetches.
	ReportsOnly bool
}

// SyncOption configures one reconciliation pass.
type SyncOption func(*SyncOptions)

// NewSyncOptions builds SyncOptions from defaults plus the given options.
func NewSyncOptions(opts ...SyncOption) *SyncOptions {
	options := &SyncOptions{
		Timeout: constants.SyncTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTimeout bounds the reconciliation pass. Zero disables the bound.
func WithTimeout(timeout time.Duration) SyncOption {
	return func(o *SyncOptions) { o.Timeout = timeout }
}

// WithDryRun computes decisions without writing anything.
func WithDryRun(enabled bool) SyncOption {
	return func(o *SyncOptions) { o.DryRun = enabled }
}

// WithSkipFetch stops the pass after the registry document is written.
func WithSkipFetch(enabled bool) SyncOption {
	return func(o *SyncOptions) { o.SkipFetch = enabled }
}

// WithForce refreshes every feed regardless of probe results.
func WithForce(enabled bool) SyncOption {
	return func(o *SyncOptions) { o.Force = enabled }
}

// WithReportsOnly writes diagnostic reports without touching the registry.
func WithReportsOnly(enabled bool) SyncOption {
	return func(o *SyncOptions) { o.ReportsOnly = enabled }
}
