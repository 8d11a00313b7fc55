package feeds

import "time"

// VersionDescriptor is one observed content snapshot of a feed: its content
// hash, size, and when it was fetched.
type VersionDescriptor struct {
	ContentHash        string    `json:"sha1,omitempty"`
	URL                string    `json:"url,omitempty"`
	SizeBytes          int64     `json:"size_bytes,omitempty"`
	FetchedAt          time.Time `json:"fetched_at,omitzero"`
	LatestCalendarDate string    `json:"latest_calendar_date,omitempty"`
}

// Versions is an ordered sequence of version descriptors.
type Versions []VersionDescriptor

// Latest returns the descriptor with the newest fetched_at timestamp, or nil
// when the sequence is empty.
func (v Versions) Latest() *VersionDescriptor {
	if len(v) == 0 {
		return nil
	}
	latest := &v[0]
	for i := range v {
		if v[i].FetchedAt.After(latest.FetchedAt) {
			latest = &v[i]
		}
	}
	return latest
}
