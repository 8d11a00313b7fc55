package feeds

import "strings"

// Resource is one downloadable artifact attached to a catalog entry.
type Resource struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// CatalogEntry is one dataset as published by the national open-data catalog.
// Entries are immutable inputs to a reconciliation pass.
type CatalogEntry struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	PageURL     string     `json:"page_url"`
	LicenseCode string     `json:"licence"`
	Resources   []Resource `json:"resources"`
}

// staticFormat is the resource format token identifying a static feed.
// Realtime variants carry a distinct format ("gtfs-rt") and never match.
const staticFormat = "GTFS"

// StaticResource returns the first resource whose format is the static feed
// format (case-insensitive). The second return value is false when the entry
// has no qualifying resource, which is a normal outcome: such entries
// contribute no feed record.
func (e CatalogEntry) StaticResource() (Resource, bool) {
	for _, r := range e.Resources {
		if strings.ToUpper(r.Format) == staticFormat {
			return r, true
		}
	}
	return Resource{}, false
}
