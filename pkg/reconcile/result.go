package reconcile

import "github.com/openmobility/feedsync/pkg/feeds"

// Decision is the change detector's verdict for one feed.
type Decision int

// Change detection decisions.
const (
	// Keep includes the feed in the outgoing registry document.
	Keep Decision = iota

	// Skip drops the feed from the outgoing document because its upstream
	// content is presumed unchanged.
	Skip

	// KeepOnError includes the feed because probing failed; equivalent to
	// Keep, but the failure is recorded.
	KeepOnError
)

// String returns the decision's name.
func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Skip:
		return "skip"
	case KeepOnError:
		return "keep_on_error"
	default:
		return "unknown"
	}
}

// Assessment reasons.
const (
	ReasonNoPrior      = "no_prior"
	ReasonNoBaseline   = "no_baseline"
	ReasonNoURL        = "no_url"
	ReasonSizeMatch    = "size_match"
	ReasonSizeMismatch = "size_mismatch"
	ReasonUnreachable  = "unreachable"
	ReasonProbeError   = "probe_error"
)

// Assessment is the outcome of first-stage change detection for one feed.
type Assessment struct {
	FeedID    feeds.Identifier
	Decision  Decision
	Reason    string
	PriorHash string // directory's latest content hash, when known
	Err       error  // probe error, when Decision is KeepOnError
}

// ObservationKind categorizes non-fatal findings surfaced during a pass.
type ObservationKind string

// Observation kinds.
const (
	// ObservationUnknownLicense flags a catalog license code outside the
	// known table.
	ObservationUnknownLicense ObservationKind = "unknown_license"

	// ObservationUntrustedURL flags a static URL that moved to a domain
	// outside the trusted set.
	ObservationUntrustedURL ObservationKind = "untrusted_url"
)

// Observation is a non-fatal finding attached to one feed. Observations are
// surfaced to the caller for logging or export; they never block a merge.
type Observation struct {
	Kind    ObservationKind
	FeedID  feeds.Identifier
	Slug    string
	Message string
}

// Confirmation statuses.
const (
	ConfirmMatch   = "match"
	ConfirmChanged = "changed"
	ConfirmNew     = "new"
)

// Confirmation is the outcome of second-stage change confirmation for one
// feed, comparing the hash the fetch pipeline computed against the hash the
// directory already knows.
type Confirmation struct {
	FeedID    feeds.Identifier
	Status    string
	OldHash   string
	NewHash   string
	URL       string
	SizeBytes int64
}
