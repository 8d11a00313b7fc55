package feedsync

import (
	"context"
	"path/filepath"

	"github.com/openmobility/feedsync/internal/export"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/logging"
	"github.com/openmobility/feedsync/pkg/reconcile"
	"github.com/openmobility/feedsync/pkg/registry"
)

// writeRegistry merges the kept records into the persisted registry document
// and writes it back, returning the merged document. A corrupt existing
// document falls back to an incoming-only write; only I/O failures abort.
func (fs *feedsync) writeRegistry(ctx context.Context, kept []feeds.FeedRecord) (*registry.Document, error) {
	existing, err := registry.Load(fs.config.registryPath)
	if err != nil {
		var parseErr *errors.ParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).
			Str("path", fs.config.registryPath).
			Msg("Registry document is corrupt, rewriting from incoming records")
		existing = nil
	}
	doc := registry.Write(existing, kept)
	if err := registry.Save(doc, fs.config.registryPath); err != nil {
		return nil, err
	}
	return doc, nil
}

// writeReports writes the per-feed status report and the skipped-feeds report.
// An empty export dir disables reporting.
func (fs *feedsync) writeReports(result *Result, records []feeds.FeedRecord, known feeds.KnownFeeds, slugs map[feeds.Identifier]string) error {
	if fs.config.exportDir == "" {
		return nil
	}

	skippedIDs := make(map[feeds.Identifier]bool)
	for _, a := range result.Assessments {
		if a.Decision == reconcile.Skip {
			skippedIDs[a.FeedID] = true
		}
	}

	rows := make([]export.StatusRow, 0, len(records)+result.ExistingOnly)
	for _, record := range records {
		row := export.StatusRow{
			FeedID:       record.ID,
			Slug:         slugs[record.ID],
			Status:       export.StatusNew,
			URL:          record.URLs.StaticCurrent,
			VersionCount: len(record.FeedVersions),
			License:      record.License.SPDXIdentifier,
			Languages:    record.Languages,
			DatasetID:    record.Tags[feeds.ProvenanceTag],
		}
		if prior, exists := known[record.ID]; exists {
			row.Status = export.StatusExisting
			row.URLChanged = prior.URLs.StaticCurrent != "" &&
				prior.URLs.StaticCurrent != record.URLs.StaticCurrent
			if prior.LatestVersion != nil {
				row.LatestFetchedAt = prior.LatestVersion.FetchedAt
			}
		}
		if skippedIDs[record.ID] {
			row.Status = export.StatusSkipped
		}
		rows = append(rows, row)
	}

	// Directory feeds with no catalog counterpart this pass.
	for id, prior := range known {
		if _, exists := slugs[id]; exists {
			continue
		}
		row := export.StatusRow{
			FeedID:       id,
			Status:       export.StatusExistingOnly,
			URL:          prior.URLs.StaticCurrent,
			VersionCount: len(prior.FeedVersions),
			License:      prior.License.SPDXIdentifier,
			Languages:    prior.Languages,
		}
		if prior.LatestVersion != nil {
			row.LatestFetchedAt = prior.LatestVersion.FetchedAt
		}
		rows = append(rows, row)
	}

	if err := export.WriteStatusReport(filepath.Join(fs.config.exportDir, "feeds.csv"), rows); err != nil {
		return err
	}
	return export.WriteSkipped(filepath.Join(fs.config.exportDir, "skipped.csv"), result.Assessments)
}

// writeChangedReport writes the feeds whose fetched content hash differs from
// the directory's latest.
func (fs *feedsync) writeChangedReport(changed []reconcile.Confirmation) error {
	if fs.config.exportDir == "" {
		return nil
	}
	return export.WriteChanged(filepath.Join(fs.config.exportDir, "changed.csv"), changed)
}
