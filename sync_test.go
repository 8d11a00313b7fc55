package feedsync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/reconcile"
	"github.com/openmobility/feedsync/pkg/registry"
)

// ----------------------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------------------

type fakeCatalog struct {
	entries []feeds.CatalogEntry
	err     error
}

func (f *fakeCatalog) ListEntries(_ context.Context) ([]feeds.CatalogEntry, error) {
	return f.entries, f.err
}

type fakeDirectory struct {
	known feeds.KnownFeeds
	err   error
}

func (f *fakeDirectory) ListKnownFeeds(_ context.Context, _ string) (feeds.KnownFeeds, error) {
	return f.known, f.err
}

type fakeProbe struct {
	results map[string]reconcile.ProbeResult
}

func (f *fakeProbe) Probe(_ context.Context, url string) (reconcile.ProbeResult, error) {
	if result, ok := f.results[url]; ok {
		return result, nil
	}
	return reconcile.ProbeResult{StatusCode: 404}, nil
}

type fakeExecutor struct {
	available bool
	syncErr   error
	fetchErr  error
	synced    []string
	fetches   int
}

func (f *fakeExecutor) Available() bool { return f.available }

func (f *fakeExecutor) Sync(_ context.Context, registryPath string) error {
	f.synced = append(f.synced, registryPath)
	return f.syncErr
}

func (f *fakeExecutor) Fetch(_ context.Context) error {
	f.fetches++
	return f.fetchErr
}

type fakeStore struct {
	versions map[feeds.Identifier]feeds.VersionDescriptor
	closed   bool
}

func (f *fakeStore) Verify(_ context.Context) (int64, int64, error) {
	n := int64(len(f.versions))
	return n, n, nil
}

func (f *fakeStore) LatestVersions(_ context.Context) (map[feeds.Identifier]feeds.VersionDescriptor, error) {
	return f.versions, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

func acmeEntry() feeds.CatalogEntry {
	return feeds.CatalogEntry{
		ID:          "5f1e",
		Slug:        "acme-metro",
		Title:       "Acme Metro GTFS",
		PageURL:     "https://transport.data.gouv.fr/datasets/acme-metro",
		LicenseCode: "lov2",
		Resources: []feeds.Resource{
			{Format: "GTFS", URL: "https://data.gouv.fr/acme.zip"},
			{Format: "gtfs-rt", URL: "https://data.gouv.fr/acme-rt"},
		},
	}
}

func newTestSync(t *testing.T, dir string, opts ...Option) Feedsync {
	t.Helper()
	base := []Option{
		WithRegistryPath(filepath.Join(dir, "feeds", "registry.dmfr.json")),
		WithExportDir(filepath.Join(dir, "reports")),
	}
	fs, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return fs
}

func loadDoc(t *testing.T, path string) *registry.Document {
	t.Helper()
	doc, err := registry.Load(path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

// ----------------------------------------------------------------------------
// Tests
// ----------------------------------------------------------------------------

func TestSyncNewFeed(t *testing.T) {
	dir := t.TempDir()
	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
		WithProbe(&fakeProbe{}),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Entries)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 0, result.Existing)
	assert.Equal(t, 1, result.Kept)
	assert.False(t, result.FetchRan)

	registryPath := filepath.Join(dir, "feeds", "registry.dmfr.json")
	doc := loadDoc(t, registryPath)
	require.Len(t, doc.Feeds, 1)

	feed := doc.Feeds[0]
	assert.Equal(t, feeds.Identifier("f-acme~metro~fr"), feed.ID)
	assert.Equal(t, "gtfs", feed.Spec)
	assert.Equal(t, "https://data.gouv.fr/acme.zip", feed.URLs.StaticCurrent)
	assert.Equal(t, "LO-2.0", feed.License.SPDXIdentifier)
	assert.Equal(t, "5f1e", feed.Tags[feeds.ProvenanceTag])

	// A new feed has no content history; the document must not carry an
	// empty feed_versions key.
	raw, err := os.ReadFile(registryPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "feed_versions")

	// Status report classifies the feed as new.
	report, err := os.ReadFile(filepath.Join(dir, "reports", "feeds.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "f-acme~metro~fr,acme-metro,new")
}

func TestSyncPreservesDirectoryMetadata(t *testing.T) {
	dir := t.TempDir()
	known := feeds.KnownFeeds{
		"f-acme~metro~fr": {
			FeedRecord: feeds.FeedRecord{
				ID:        "f-acme~metro~fr",
				Spec:      "gtfs",
				URLs:      feeds.URLs{StaticCurrent: "https://data.gouv.fr/acme-old.zip"},
				Languages: []string{"fr"},
				FeedVersions: feeds.Versions{
					{ContentHash: "aaa111", SizeBytes: 900},
				},
			},
			LatestVersion: &feeds.VersionDescriptor{ContentHash: "aaa111", SizeBytes: 900},
		},
	}
	probe := &fakeProbe{results: map[string]reconcile.ProbeResult{
		"https://data.gouv.fr/acme.zip": {StatusCode: 200, ContentLength: 1024},
	}}

	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: known}),
		WithProbe(probe),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Existing)
	assert.Equal(t, 0, result.Skipped, "size 1024 differs from 900")

	doc := loadDoc(t, filepath.Join(dir, "feeds", "registry.dmfr.json"))
	require.Len(t, doc.Feeds, 1)
	assert.Equal(t, []string{"fr"}, doc.Feeds[0].Languages)
	require.Len(t, doc.Feeds[0].FeedVersions, 1)
	assert.Equal(t, "aaa111", doc.Feeds[0].FeedVersions[0].ContentHash)
}

func TestSyncSkipsUnchangedBySize(t *testing.T) {
	dir := t.TempDir()
	known := feeds.KnownFeeds{
		"f-acme~metro~fr": {
			FeedRecord:    feeds.FeedRecord{ID: "f-acme~metro~fr"},
			LatestVersion: &feeds.VersionDescriptor{ContentHash: "aaa111", SizeBytes: 1024},
		},
	}
	probe := &fakeProbe{results: map[string]reconcile.ProbeResult{
		"https://data.gouv.fr/acme.zip": {StatusCode: 200, ContentLength: 1024},
	}}

	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: known}),
		WithProbe(probe),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Kept)

	doc := loadDoc(t, filepath.Join(dir, "feeds", "registry.dmfr.json"))
	assert.Empty(t, doc.Feeds)

	skipped, err := os.ReadFile(filepath.Join(dir, "reports", "skipped.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(skipped), "f-acme~metro~fr,size_match,aaa111")
}

func TestSyncForceOverridesSizeMatch(t *testing.T) {
	dir := t.TempDir()
	known := feeds.KnownFeeds{
		"f-acme~metro~fr": {
			FeedRecord:    feeds.FeedRecord{ID: "f-acme~metro~fr"},
			LatestVersion: &feeds.VersionDescriptor{ContentHash: "aaa111", SizeBytes: 1024},
		},
	}
	probe := &fakeProbe{results: map[string]reconcile.ProbeResult{
		"https://data.gouv.fr/acme.zip": {StatusCode: 200, ContentLength: 1024},
	}}

	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: known}),
		WithProbe(probe),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background(), WithForce(true))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Kept)
}

func TestSyncFullPassPrunesConfirmedDuplicates(t *testing.T) {
	dir := t.TempDir()

	brest := feeds.CatalogEntry{
		ID:          "7a2b",
		Slug:        "brest-bus",
		Title:       "Brest Bus",
		LicenseCode: "odc-odbl",
		Resources:   []feeds.Resource{{Format: "GTFS", URL: "https://brest.fr/gtfs.zip"}},
	}
	known := feeds.KnownFeeds{
		"f-acme~metro~fr": {
			FeedRecord:    feeds.FeedRecord{ID: "f-acme~metro~fr"},
			LatestVersion: &feeds.VersionDescriptor{ContentHash: "aaa111", SizeBytes: 900},
		},
		"f-brest~bus~fr": {
			FeedRecord:    feeds.FeedRecord{ID: "f-brest~bus~fr"},
			LatestVersion: &feeds.VersionDescriptor{ContentHash: "ccc333", SizeBytes: 500},
		},
	}
	// Probes disagree with prior sizes, so both feeds are kept for fetching.
	probe := &fakeProbe{results: map[string]reconcile.ProbeResult{
		"https://data.gouv.fr/acme.zip": {StatusCode: 200, ContentLength: 1024},
		"https://brest.fr/gtfs.zip":     {StatusCode: 200, ContentLength: 600},
	}}
	executor := &fakeExecutor{available: true}
	// The fetch finds acme unchanged (same hash) and brest changed.
	store := &fakeStore{versions: map[feeds.Identifier]feeds.VersionDescriptor{
		"f-acme~metro~fr": {ContentHash: "aaa111", SizeBytes: 1024, FetchedAt: time.Now()},
		"f-brest~bus~fr":  {ContentHash: "ddd444", SizeBytes: 600, FetchedAt: time.Now()},
	}}

	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry(), brest}}),
		WithDirectorySource(&fakeDirectory{known: known}),
		WithProbe(probe),
		WithExecutor(executor),
		WithStoreOpener(func(string) (VersionStore, error) { return store, nil }),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, result.FetchRan)
	assert.Equal(t, 2, result.Kept)
	assert.Equal(t, 1, result.Pruned)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, 1, executor.fetches)
	require.Len(t, executor.synced, 1)
	assert.True(t, store.closed)

	// The confirmed duplicate is pruned; the changed feed stays.
	doc := loadDoc(t, filepath.Join(dir, "feeds", "registry.dmfr.json"))
	require.Len(t, doc.Feeds, 1)
	assert.Equal(t, feeds.Identifier("f-brest~bus~fr"), doc.Feeds[0].ID)

	changed, err := os.ReadFile(filepath.Join(dir, "reports", "changed.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(changed), "f-brest~bus~fr,changed,ccc333,ddd444")
}

func TestSyncRecoversFromCorruptRegistry(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "feeds", "registry.dmfr.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(registryPath), 0o755))
	require.NoError(t, os.WriteFile(registryPath, []byte("{not json"), 0o644))

	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
		WithProbe(&fakeProbe{}),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Kept)

	// The corrupt document is replaced by the incoming records alone.
	doc := loadDoc(t, registryPath)
	require.Len(t, doc.Feeds, 1)
	assert.Equal(t, feeds.Identifier("f-acme~metro~fr"), doc.Feeds[0].ID)
}

func TestSyncExecutorFailureKeepsFirstStageResult(t *testing.T) {
	tests := []struct {
		name     string
		executor *fakeExecutor
	}{
		{name: "sync fails", executor: &fakeExecutor{available: true, syncErr: assert.AnError}},
		{name: "fetch fails", executor: &fakeExecutor{available: true, fetchErr: assert.AnError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			fs := newTestSync(t, dir,
				WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
				WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
				WithProbe(&fakeProbe{}),
				WithExecutor(tt.executor),
			)

			result, err := fs.Sync(context.Background())
			require.NoError(t, err)
			assert.False(t, result.FetchRan)
			assert.Equal(t, 0, result.Pruned)
			assert.Empty(t, result.Confirmations)

			// The registry document was already written and stands.
			doc := loadDoc(t, filepath.Join(dir, "feeds", "registry.dmfr.json"))
			assert.Len(t, doc.Feeds, 1)
		})
	}
}

func TestSyncUnusableStoreKeepsFirstStageResult(t *testing.T) {
	dir := t.TempDir()
	executor := &fakeExecutor{available: true}
	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
		WithProbe(&fakeProbe{}),
		WithExecutor(executor),
		WithStoreOpener(func(string) (VersionStore, error) { return nil, assert.AnError }),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.FetchRan, "executor completed before the store failed")
	assert.Equal(t, 0, result.Pruned)
	assert.Empty(t, result.Confirmations)

	doc := loadDoc(t, filepath.Join(dir, "feeds", "registry.dmfr.json"))
	assert.Len(t, doc.Feeds, 1)
}

func TestSyncDirectoryFailureDegradesToEmptyBaseline(t *testing.T) {
	dir := t.TempDir()
	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{err: assert.AnError}),
		WithProbe(&fakeProbe{}),
		WithExecutor(&fakeExecutor{available: false}),
	)

	result, err := fs.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 0, result.Existing)
}

func TestSyncCatalogFailureIsFatal(t *testing.T) {
	fs := newTestSync(t, t.TempDir(),
		WithCatalogSource(&fakeCatalog{err: assert.AnError}),
		WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
		WithProbe(&fakeProbe{}),
		WithExecutor(&fakeExecutor{available: false}),
	)

	_, err := fs.Sync(context.Background())
	require.Error(t, err)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	executor := &fakeExecutor{available: true}
	fs := newTestSync(t, dir,
		WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
		WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
		WithProbe(&fakeProbe{}),
		WithExecutor(executor),
	)

	result, err := fs.Sync(context.Background(), WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Kept)

	_, statErr := os.Stat(filepath.Join(dir, "feeds", "registry.dmfr.json"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, executor.synced)
}

func TestSyncIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "feeds", "registry.dmfr.json")

	build := func() Feedsync {
		return newTestSync(t, dir,
			WithCatalogSource(&fakeCatalog{entries: []feeds.CatalogEntry{acmeEntry()}}),
			WithDirectorySource(&fakeDirectory{known: feeds.KnownFeeds{}}),
			WithProbe(&fakeProbe{}),
			WithExecutor(&fakeExecutor{available: false}),
		)
	}

	_, err := build().Sync(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(registryPath)
	require.NoError(t, err)

	_, err = build().Sync(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(registryPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(first, &doc))
	assert.Contains(t, doc, "feeds")
}

func TestNewRejectsEmptyRegistryPath(t *testing.T) {
	_, err := New(WithRegistryPath(""))
	require.Error(t, err)
}
