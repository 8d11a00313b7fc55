package feedsync

import (
	"fmt"

	"github.com/openmobility/feedsync/pkg/reconcile"
)

// Result summarizes one reconciliation pass.
type Result struct {
	// Entries is the number of catalog datasets listed.
	Entries int

	// Records is the number of qualifying feed records built from them.
	Records int

	// New, Existing and ExistingOnly partition the feeds by where they are
	// known: catalog only, both sides, or directory only.
	New          int
	Existing     int
	ExistingOnly int

	// Skipped is the number of feeds the size probe found unchanged.
	Skipped int

	// Kept is the number of records written to the registry document.
	Kept int

	// Pruned is the number of feeds removed from the document after the
	// second stage confirmed their content did not change.
	Pruned int

	// Changed is the number of feeds whose fetched content hash differs
	// from what the directory last recorded.
	Changed int

	// FetchRan reports whether the external executor ran.
	FetchRan bool

	// DryRun reports whether the pass was a dry run.
	DryRun bool

	// RegistryPath is where the registry document was (or would be) written.
	RegistryPath string

	// Observations are the non-fatal findings of the pass: unknown license
	// codes and untrusted URL moves.
	Observations []reconcile.Observation

	// Assessments are the first-stage change detection outcomes per feed.
	Assessments []reconcile.Assessment

	// Confirmations are the second-stage outcomes, present only when the
	// executor ran.
	Confirmations []reconcile.Confirmation
}

// Summary returns a one-line human-readable summary of the pass.
func (r *Result) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("dry run: %d entries, %d records (%d new, %d existing), %d skipped",
			r.Entries, r.Records, r.New, r.Existing, r.Skipped)
	}
	return fmt.Sprintf("%d entries, %d records (%d new, %d existing, %d directory-only), %d skipped, %d kept, %d pruned, %d changed",
		r.Entries, r.Records, r.New, r.Existing, r.ExistingOnly, r.Skipped, r.Kept, r.Pruned, r.Changed)
}
