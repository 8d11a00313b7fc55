package feedsync

import (
	"context"

	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/logging"
	"github.com/openmobility/feedsync/pkg/reconcile"
	"github.com/openmobility/feedsync/pkg/registry"
)

// Sync runs one reconciliation pass: catalog listing, merge with directory
// knowledge, change detection, registry write, and optionally the external
// fetch with second-stage confirmation.
func (fs *feedsync) Sync(ctx context.Context, opts ...SyncOption) (*Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse options
	options := NewSyncOptions(opts...)

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	logger := logging.Ctx(ctx)

	// Step 3: Load the directory's prior knowledge. An unavailable
	// directory degrades to an empty baseline: every feed is treated as
	// new and nothing is preserved or skipped.
	known, err := fs.directory.ListKnownFeeds(ctx, fs.config.country)
	if err != nil {
		logger.Warn().Err(err).Msg("Directory unavailable, proceeding with empty baseline")
		known = feeds.KnownFeeds{}
	}

	// Step 4: List the catalog's datasets. Without the catalog there is
	// nothing to reconcile.
	entries, err := fs.catalog.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Entries:      len(entries),
		DryRun:       options.DryRun,
		RegistryPath: fs.config.registryPath,
	}

	// Step 5: Build canonical records, preserving prior metadata.
	var records []feeds.FeedRecord
	slugs := make(map[feeds.Identifier]string)
	for _, entry := range entries {
		record, observations := fs.merger.BuildRecord(entry, known)
		result.Observations = append(result.Observations, observations...)
		if record == nil {
			continue
		}
		records = append(records, *record)
		slugs[record.ID] = entry.Slug
		if _, exists := known[record.ID]; exists {
			result.Existing++
		} else {
			result.New++
		}
	}
	result.Records = len(records)
	result.ExistingOnly = countDirectoryOnly(known, slugs)

	// Step 6: First-stage change detection. Feeds whose upstream size
	// matches the directory's latest version are left out of the outgoing
	// document; everything else is kept.
	detector := reconcile.NewDetector(fs.probe)
	var kept []feeds.FeedRecord
	for _, record := range records {
		var prior *feeds.PriorFeedRecord
		if p, exists := known[record.ID]; exists {
			prior = &p
		}

		assessment := detector.NeedsRefresh(ctx, record, prior)
		if options.Force && assessment.Decision == reconcile.Skip {
			assessment.Decision = reconcile.Keep
			assessment.Reason = "forced"
		}
		result.Assessments = append(result.Assessments, assessment)

		if assessment.Decision == reconcile.Skip {
			result.Skipped++
			continue
		}
		kept = append(kept, record)
	}
	result.Kept = len(kept)

	logger.Info().
		Int("entries", result.Entries).
		Int("records", result.Records).
		Int("new", result.New).
		Int("existing", result.Existing).
		Int("skipped", result.Skipped).
		Msg("Change detection completed")

	// Step 7: Dry run stops before anything is written.
	if options.DryRun {
		logger.Info().Bool("dry_run", true).Msg("Dry run completed - no changes applied")
		return result, nil
	}

	// Step 8: Merge into the persisted registry document and write it.
	var doc *registry.Document
	if !options.ReportsOnly {
		if doc, err = fs.writeRegistry(ctx, kept); err != nil {
			return nil, err
		}
	}

	// Step 9: Diagnostic reports.
	if err := fs.writeReports(result, records, known, slugs); err != nil {
		return nil, err
	}

	// Step 10: External fetch. A missing binary degrades to a first-stage
	// only pass; the registry document stands as written.
	if options.SkipFetch || options.ReportsOnly {
		return result, nil
	}
	if !fs.executor.Available() {
		logger.Warn().Msg("Fetch executor not found, skipping content fetch")
		return result, nil
	}

	// Step 11: Load the document into the store and fetch feed content.
	// Executor failure is contained: the pass stands as a first-stage-only
	// update, with the registry document already written.
	if err := fs.executor.Sync(ctx, fs.config.registryPath); err != nil {
		logger.Warn().Err(err).Msg("Executor sync failed, skipping version check")
		return result, nil
	}
	if err := fs.executor.Fetch(ctx); err != nil {
		logger.Warn().Err(err).Msg("Executor fetch failed, skipping version check")
		return result, nil
	}
	result.FetchRan = true

	// Step 12: Read back what the fetch produced. An unusable store is
	// contained the same way: no confirmation, no prune.
	fetched, err := fs.fetchedVersions(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Version store unusable, skipping version check")
		return result, nil
	}

	// Step 13: Second-stage confirmation. Feeds whose fetched hash matches
	// the directory's latest are confirmed duplicates and pruned from the
	// document; genuinely changed feeds are reported.
	duplicates, changed := reconcile.ConfirmUnchanged(fetched, known)
	result.Changed = len(changed)
	result.Confirmations = append(duplicates, changed...)

	if len(duplicates) > 0 {
		ids := make([]feeds.Identifier, 0, len(duplicates))
		for _, d := range duplicates {
			ids = append(ids, d.FeedID)
		}
		doc = registry.Prune(doc, ids)
		if err := registry.Save(doc, fs.config.registryPath); err != nil {
			return nil, err
		}
		result.Pruned = len(ids)
	}

	if err := fs.writeChangedReport(changed); err != nil {
		return nil, err
	}

	logger.Info().
		Int("fetched", len(fetched)).
		Int("pruned", result.Pruned).
		Int("changed", result.Changed).
		Msg("Sync completed successfully")

	return result, nil
}

// fetchedVersions opens the version store, checks the executor left it
// usable, and returns the latest version per feed.
func (fs *feedsync) fetchedVersions(ctx context.Context) (map[feeds.Identifier]feeds.VersionDescriptor, error) {
	store, err := fs.openStore(fs.config.storeURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logging.Ctx(ctx).Warn().Err(closeErr).Msg("Could not close version store")
		}
	}()

	feedCount, versionCount, err := store.Verify(ctx)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Int64("feeds", feedCount).
		Int64("versions", versionCount).
		Msg("Version store verified")

	return store.LatestVersions(ctx)
}

// countDirectoryOnly counts feeds the directory knows that no catalog entry
// produced this pass.
func countDirectoryOnly(known feeds.KnownFeeds, seen map[feeds.Identifier]string) int {
	count := 0
	for id := range known {
		if _, exists := seen[id]; !exists {
			count++
		}
	}
	return count
}
