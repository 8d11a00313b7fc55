package reconcile

import (
	"sort"

	"github.com/openmobility/feedsync/pkg/feeds"
)

// ConfirmUnchanged compares content hashes computed by the fetch pipeline
// against the hashes the directory already knows, separating confirmed
// duplicates from confirmed new or changed feeds.
//
// A feed whose fetched hash equals the directory's latest hash is a
// duplicate, eligible for pruning from the outgoing document. A feed with a
// differing hash, or one the directory has no hash for, is new or changed.
// Results are sorted by identifier for deterministic reporting.
func ConfirmUnchanged(fetched map[feeds.Identifier]feeds.VersionDescriptor, prior feeds.KnownFeeds) (duplicates, changed []Confirmation) {
	for id, version := range fetched {
		confirmation := Confirmation{
			FeedID:    id,
			NewHash:   version.ContentHash,
			URL:       version.URL,
			SizeBytes: version.SizeBytes,
		}

		previous, exists := prior[id]
		if !exists || previous.LatestVersion == nil || previous.LatestVersion.ContentHash == "" {
			confirmation.Status = ConfirmNew
			changed = append(changed, confirmation)
			continue
		}

		confirmation.OldHash = previous.LatestVersion.ContentHash
		if confirmation.OldHash == version.ContentHash {
			confirmation.Status = ConfirmMatch
			duplicates = append(duplicates, confirmation)
		} else {
			confirmation.Status = ConfirmChanged
			changed = append(changed, confirmation)
		}
	}

	sortConfirmations(duplicates)
	sortConfirmations(changed)
	return duplicates, changed
}

func sortConfirmations(confirmations []Confirmation) {
	sort.Slice(confirmations, func(i, j int) bool {
		return confirmations[i].FeedID < confirmations[j].FeedID
	})
}
