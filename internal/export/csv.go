// Package export writes the diagnostic CSV reports of a reconciliation pass:
// a per-feed status sheet, the feeds skipped by the size probe, and the feeds
// whose content hash changed after fetching.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/reconcile"
)

// Status classifies a feed in the per-feed report.
type Status string

const (
	// StatusNew marks a catalog entry the directory has never seen.
	StatusNew Status = "new"
	// StatusExisting marks a feed present in both catalog and directory.
	StatusExisting Status = "existing"
	// StatusExistingOnly marks a directory feed absent from the catalog.
	StatusExistingOnly Status = "existing_only"
	// StatusSkipped marks a feed the size probe found unchanged.
	StatusSkipped Status = "skip"
)

// StatusRow is one line of the per-feed report.
type StatusRow struct {
	FeedID          feeds.Identifier
	Slug            string
	Status          Status
	URL             string
	URLChanged      bool
	VersionCount    int
	LatestFetchedAt time.Time
	License         string
	Languages       []string
	DatasetID       string
}

// WriteStatusReport writes the per-feed report sorted by feed id.
func WriteStatusReport(path string, rows []StatusRow) error {
	sorted := make([]StatusRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FeedID < sorted[j].FeedID })

	records := [][]string{{
		"feed_id", "dataset_slug", "status", "url", "url_changed",
		"feed_versions", "latest_fetched_at", "license", "languages", "dataset_id",
	}}
	for _, row := range sorted {
		fetchedAt := ""
		if !row.LatestFetchedAt.IsZero() {
			fetchedAt = row.LatestFetchedAt.Format(time.RFC3339)
		}
		records = append(records, []string{
			string(row.FeedID),
			row.Slug,
			string(row.Status),
			row.URL,
			strconv.FormatBool(row.URLChanged),
			strconv.Itoa(row.VersionCount),
			fetchedAt,
			row.License,
			strings.Join(row.Languages, " "),
			row.DatasetID,
		})
	}
	return write(path, records)
}

// WriteSkipped writes the feeds the probe decided not to refresh, with the
// reason and the prior content hash.
func WriteSkipped(path string, assessments []reconcile.Assessment) error {
	records := [][]string{{"feed_id", "reason", "prior_hash"}}
	for _, a := range assessments {
		if a.Decision != reconcile.Skip {
			continue
		}
		records = append(records, []string{string(a.FeedID), a.Reason, a.PriorHash})
	}
	return write(path, records)
}

// WriteChanged writes the feeds whose fetched content differs from what the
// directory last recorded.
func WriteChanged(path string, confirmations []reconcile.Confirmation) error {
	records := [][]string{{"feed_id", "status", "old_hash", "new_hash", "url"}}
	for _, c := range confirmations {
		records = append(records, []string{
			string(c.FeedID), c.Status, c.OldHash, c.NewHash, c.URL,
		})
	}
	return write(path, records)
}

func write(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer file.Close()

	if err := csv.NewWriter(file).WriteAll(records); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return file.Close()
}
