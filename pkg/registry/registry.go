// Package registry persists the merged feed registry document.
//
// The document is a single JSON file holding {"feeds": [...]}; it is created
// on the first pass and rewritten on every subsequent one. Writes are
// merges: incoming records replace their existing entries, untouched entries
// survive, and the result is sorted by identifier so that repeated runs with
// unchanged inputs produce byte-identical files.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
)

// Document is the persisted registry of feed records, keyed uniquely by
// identifier.
type Document struct {
	Feeds []feeds.FeedRecord `json:"feeds"`
}

// Feed returns the record with the given identifier, if present.
func (d *Document) Feed(id feeds.Identifier) (feeds.FeedRecord, bool) {
	for _, f := range d.Feeds {
		if f.ID == id {
			return f, true
		}
	}
	return feeds.FeedRecord{}, false
}

// Load reads the registry document at path. A missing file is a normal first
// run and returns (nil, nil); a malformed file returns a ParseError so the
// caller can log it and fall back to an incoming-only write.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &doc, nil
}

// Write merges incoming records into an existing document. Records in
// incoming fully replace existing entries with the same identifier; existing
// entries absent from incoming are preserved unchanged. A nil existing
// document yields a document of the incoming records alone. The result is
// sorted by identifier.
func Write(existing *Document, incoming []feeds.FeedRecord) *Document {
	incomingIDs := make(map[feeds.Identifier]struct{}, len(incoming))
	for _, f := range incoming {
		incomingIDs[f.ID] = struct{}{}
	}

	merged := make([]feeds.FeedRecord, 0, len(incoming))
	if existing != nil {
		for _, f := range existing.Feeds {
			if _, replaced := incomingIDs[f.ID]; !replaced {
				merged = append(merged, f)
			}
		}
	}
	merged = append(merged, incoming...)

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return &Document{Feeds: merged}
}

// Prune removes the given identifiers from the document, returning a new
// sorted document. It is used after second-stage change confirmation to drop
// feeds whose content the directory already holds.
func Prune(doc *Document, ids []feeds.Identifier) *Document {
	if doc == nil {
		return &Document{Feeds: []feeds.FeedRecord{}}
	}

	drop := make(map[feeds.Identifier]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := make([]feeds.FeedRecord, 0, len(doc.Feeds))
	for _, f := range doc.Feeds {
		if _, dropped := drop[f.ID]; !dropped {
			kept = append(kept, f)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	return &Document{Feeds: kept}
}

// Save writes the document to path, creating parent directories as needed.
// The file is rewritten whole, never appended.
func Save(doc *Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
