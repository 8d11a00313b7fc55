// Package versionstore reads the content-version store produced by the
// external sync/fetch executor. The store is a database the executor owns:
// this package never migrates or writes it, it only answers "what is the
// latest content hash, size, and fetch time per feed".
package versionstore

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
)

// Store is a read-only view over the executor's database.
type Store struct {
	db  *gorm.DB
	url string
}

// Open connects to the store at dburl. Supported schemes are
// sqlite3://<path> (and sqlite://<path>) and postgres:// / postgresql://,
// matching the dburl values the executor accepts.
func Open(dburl string) (*Store, error) {
	dialector, err := dialectorFor(dburl)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.WrapStore("open", dburl, err)
	}

	return &Store{db: db, url: dburl}, nil
}

func dialectorFor(dburl string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dburl, "sqlite3://"):
		return sqlite.Open(strings.TrimPrefix(dburl, "sqlite3://")), nil
	case strings.HasPrefix(dburl, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dburl, "sqlite://")), nil
	case strings.HasPrefix(dburl, "postgres://"), strings.HasPrefix(dburl, "postgresql://"):
		return postgres.Open(dburl), nil
	default:
		return nil, &errors.ConfigError{
			Component: "versionstore",
			Message:   "unsupported dburl scheme: " + dburl,
		}
	}
}

// Verify checks that the executor left a usable store behind: the expected
// tables exist and at least one feed was synced. It returns the feed and
// version counts for logging.
func (s *Store) Verify(ctx context.Context) (feedCount, versionCount int64, err error) {
	migrator := s.db.WithContext(ctx).Migrator()
	for _, table := range []string{"current_feeds", "feed_versions"} {
		if !migrator.HasTable(table) {
			return 0, 0, errors.WrapStore("verify", s.url, errors.New("missing table "+table))
		}
	}

	if err := s.db.WithContext(ctx).Table("current_feeds").Count(&feedCount).Error; err != nil {
		return 0, 0, errors.WrapStore("verify", s.url, err)
	}
	if err := s.db.WithContext(ctx).Table("feed_versions").Count(&versionCount).Error; err != nil {
		return 0, 0, errors.WrapStore("verify", s.url, err)
	}
	if feedCount == 0 {
		return 0, 0, errors.WrapStore("verify", s.url, errors.New("store holds no feeds"))
	}
	return feedCount, versionCount, nil
}

// versionRow is the scan target for the latest-versions query.
type versionRow struct {
	OnestopID string
	SHA1      string
	URL       string
	SizeBytes int64
	FetchedAt time.Time
}

// LatestVersions returns the newest version descriptor per feed, keyed by
// identifier.
func (s *Store) LatestVersions(ctx context.Context) (map[feeds.Identifier]feeds.VersionDescriptor, error) {
	var rows []versionRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT cf.onestop_id AS onestop_id,
		       fv.sha1 AS sha1,
		       fv.url AS url,
		       fv.size_bytes AS size_bytes,
		       fv.fetched_at AS fetched_at
		FROM feed_versions fv
		JOIN current_feeds cf ON cf.id = fv.feed_id
		ORDER BY fv.fetched_at DESC`).Scan(&rows).Error
	if err != nil {
		return nil, errors.WrapStore("query", s.url, err)
	}

	latest := make(map[feeds.Identifier]feeds.VersionDescriptor, len(rows))
	for _, row := range rows {
		id := feeds.Identifier(row.OnestopID)
		if _, seen := latest[id]; seen {
			// Rows are newest-first; keep the first per feed.
			continue
		}
		latest[id] = feeds.VersionDescriptor{
			ContentHash: row.SHA1,
			URL:         row.URL,
			SizeBytes:   row.SizeBytes,
			FetchedAt:   row.FetchedAt,
		}
	}
	return latest, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return errors.WrapStore("close", s.url, err)
	}
	return db.Close()
}
