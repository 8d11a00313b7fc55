// Package feeds defines the data model shared by the feedsync system: catalog
// entries as published by the national open-data catalog, and feed records as
// persisted in the distributed mobility feed registry (DMFR) document.
//
// Records are serialized minimally: optional fields carry omitempty/omitzero
// tags and Clean normalizes placeholder values away, so that re-running a
// reconciliation pass with unchanged inputs produces a byte-identical
// document.
package feeds

// Identifier is the stable string key assigned to one feed across its
// lifetime, e.g. "f-acme~metro~fr". It is derived from a catalog slug once
// and never changes afterwards.
type Identifier string

// String returns the string representation of an Identifier.
func (id Identifier) String() string {
	return string(id)
}

// SpecGTFS is the feed specification token used in the registry.
const SpecGTFS = "gtfs"

// ProvenanceTag is the tag key linking a feed record back to the catalog
// dataset it was derived from. It must survive every merge.
const ProvenanceTag = "fr_nap_dataset_id"

// URLs holds the download locations of a feed. Only static_current is
// required; the remaining slots exist in the registry schema and are kept
// empty unless the directory already knows them.
type URLs struct {
	StaticCurrent            string   `json:"static_current,omitempty"`
	StaticPlanned            []string `json:"static_planned,omitempty"`
	StaticHistoric           []string `json:"static_historic,omitempty"`
	RealtimeAlerts           string   `json:"realtime_alerts,omitempty"`
	RealtimeTripUpdates      string   `json:"realtime_trip_updates,omitempty"`
	RealtimeVehiclePositions string   `json:"realtime_vehicle_positions,omitempty"`
	GBFSAutoDiscovery        string   `json:"gbfs_auto_discovery,omitempty"`
	MDSProvider              string   `json:"mds_provider,omitempty"`
}

// IsZero reports whether no URL slot is populated.
func (u URLs) IsZero() bool {
	return u.StaticCurrent == "" &&
		len(u.StaticPlanned) == 0 &&
		len(u.StaticHistoric) == 0 &&
		u.RealtimeAlerts == "" &&
		u.RealtimeTripUpdates == "" &&
		u.RealtimeVehiclePositions == "" &&
		u.GBFSAutoDiscovery == "" &&
		u.MDSProvider == ""
}

// FeedRecord is one feed entry of the registry document.
type FeedRecord struct {
	ID           Identifier        `json:"id"`
	Spec         string            `json:"spec,omitempty"`
	URLs         URLs              `json:"urls,omitzero"`
	License      License           `json:"license,omitzero"`
	Name         string            `json:"name,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Languages    []string          `json:"languages,omitempty"`
	FeedVersions Versions          `json:"feed_versions,omitempty"`
	FeedState    map[string]any    `json:"feed_state,omitempty"`
}

// Clean returns a copy of the record with placeholder values removed: license
// permissions still at "unknown", empty tag values, and empty collections.
// The result marshals to the minimal, diff-friendly form the registry
// document requires.
func (r FeedRecord) Clean() FeedRecord {
	out := r
	out.License = r.License.Clean()

	if len(r.Tags) > 0 {
		tags := make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			if k == "" || v == "" {
				continue
			}
			tags[k] = v
		}
		if len(tags) == 0 {
			tags = nil
		}
		out.Tags = tags
	}

	if len(r.Languages) == 0 {
		out.Languages = nil
	}
	if len(r.FeedVersions) == 0 {
		out.FeedVersions = nil
	}
	if len(r.FeedState) == 0 {
		out.FeedState = nil
	}
	if len(r.URLs.StaticPlanned) == 0 {
		out.URLs.StaticPlanned = nil
	}
	if len(r.URLs.StaticHistoric) == 0 {
		out.URLs.StaticHistoric = nil
	}

	return out
}

// PriorFeedRecord is a feed record as known by the federated directory,
// together with the most recent content snapshot the directory has observed.
// It is read-only with respect to a reconciliation pass.
type PriorFeedRecord struct {
	FeedRecord

	// LatestVersion is the directory's newest version descriptor for this
	// feed, used by the change detector. Nil when the directory has never
	// fetched the feed.
	LatestVersion *VersionDescriptor
}

// KnownFeeds maps feed identifiers to the directory's prior records. It is
// built once per reconciliation pass and passed explicitly wherever prior
// state is consulted.
type KnownFeeds map[Identifier]PriorFeedRecord
