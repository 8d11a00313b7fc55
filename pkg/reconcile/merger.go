// Package reconcile implements the core reconciliation engine: building
// canonical feed records from catalog entries, overlaying metadata preserved
// from the federated directory, and deciding per feed whether upstream
// content changed since the directory last saw it.
//
// The engine is pure with respect to external state: prior directory
// knowledge is passed in as a lookup table scoped to one pass, network
// access happens only through the narrow HeadProbe interface, and every
// anomaly degrades to a documented fallback instead of an error.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/ident"
	"github.com/openmobility/feedsync/pkg/license"
)

// trustedDomains are substrings of static URLs that are expected for feeds in
// this registry. A URL change away from these domains is surfaced as an
// observation.
var trustedDomains = []string{"data.gouv.fr", ".fr/gtfs"}

// Merger builds canonical feed records from catalog entries.
type Merger struct {
	licenses *license.Mapper
}

// NewMerger returns a merger using the given license mapper. A nil mapper
// falls back to the built-in license table.
func NewMerger(licenses *license.Mapper) *Merger {
	if licenses == nil {
		licenses = license.NewMapper()
	}
	return &Merger{licenses: licenses}
}

// BuildRecord builds the canonical feed record for one catalog entry,
// preserving metadata from the directory's prior record of the same
// identifier.
//
// The returned record is nil when the entry has no qualifying static
// resource; that is a normal outcome, not an error. BuildRecord is
// idempotent: identical inputs yield an identical record.
func (m *Merger) BuildRecord(entry feeds.CatalogEntry, prior feeds.KnownFeeds) (*feeds.FeedRecord, []Observation) {
	resource, ok := entry.StaticResource()
	if !ok {
		return nil, nil
	}

	id := ident.Normalize(entry.Slug)

	var observations []Observation

	lic, known := m.licenses.Map(entry.LicenseCode, entry.PageURL, entry.Title)
	if !known {
		observations = append(observations, Observation{
			Kind:    ObservationUnknownLicense,
			FeedID:  id,
			Slug:    entry.Slug,
			Message: fmt.Sprintf("unknown license code %q", entry.LicenseCode),
		})
	}

	record := feeds.FeedRecord{
		ID:      id,
		Spec:    feeds.SpecGTFS,
		URLs:    feeds.URLs{StaticCurrent: resource.URL},
		License: lic,
		Name:    entry.Title,
		Tags:    map[string]string{feeds.ProvenanceTag: entry.ID},
	}

	if previous, exists := prior[id]; exists {
		observations = append(observations, m.overlay(&record, previous, entry)...)
	}

	cleaned := record.Clean()
	return &cleaned, observations
}

// overlay preserves prior directory metadata on a freshly built record.
func (m *Merger) overlay(record *feeds.FeedRecord, prior feeds.PriorFeedRecord, entry feeds.CatalogEntry) []Observation {
	var observations []Observation

	// Content history and operational state always survive a sync.
	record.FeedVersions = prior.FeedVersions
	record.FeedState = prior.FeedState
	record.Languages = prior.Languages

	// Keep the directory's name only when the catalog supplied none.
	if record.Name == "" && prior.Name != "" {
		record.Name = prior.Name
	}

	// Keep the directory's license wholesale when it is more specific.
	if record.License.SPDXIdentifier == "" && prior.License.SPDXIdentifier != "" {
		record.License = prior.License
	}

	// Prior tags survive; freshly computed tags win on conflict, so the
	// provenance tag always reflects the current catalog entry.
	if len(prior.Tags) > 0 {
		merged := make(map[string]string, len(prior.Tags)+len(record.Tags))
		for k, v := range prior.Tags {
			merged[k] = v
		}
		for k, v := range record.Tags {
			merged[k] = v
		}
		record.Tags = merged
	}

	if obs := urlChangeObservation(record.ID, entry.Slug, prior.URLs.StaticCurrent, record.URLs.StaticCurrent); obs != nil {
		observations = append(observations, *obs)
	}

	return observations
}

// urlChangeObservation reports a static URL that moved to an untrusted
// domain. URL changes within trusted domains are routine and pass silently.
func urlChangeObservation(id feeds.Identifier, slug, oldURL, newURL string) *Observation {
	if oldURL == "" || newURL == "" || oldURL == newURL {
		return nil
	}
	for _, domain := range trustedDomains {
		if strings.Contains(newURL, domain) {
			return nil
		}
	}
	return &Observation{
		Kind:    ObservationUntrustedURL,
		FeedID:  id,
		Slug:    slug,
		Message: fmt.Sprintf("static URL moved from %s to untrusted %s", oldURL, newURL),
	}
}
