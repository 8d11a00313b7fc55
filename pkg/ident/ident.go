// Package ident derives stable feed identifiers from catalog slugs.
//
// An identifier is a pure function of the slug alone: the same slug always
// yields the same identifier, across runs and machines. Identifiers follow
// the registry convention "f-<name>~<region>", e.g. "f-acme~metro~fr".
package ident

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/openmobility/feedsync/pkg/feeds"
)

const (
	// namespacePrefix marks registry feed identifiers.
	namespacePrefix = "f-"

	// separator joins the name components of an identifier.
	separator = "~"

	// defaultSuffix is appended when a slug carries no regional suffix.
	defaultSuffix = "~fr"
)

// regionalSuffixes are the accepted identifier endings. Slugs already ending
// in one of these are not suffixed again.
var regionalSuffixes = []string{"~fr", "~france", "~reunion"}

// Normalize derives the stable feed identifier for a catalog slug.
//
// The slug is unicode-normalized and lower-cased; hyphens and underscores
// become the separator; runs of separators collapse to one; leading and
// trailing separators are stripped; the default regional suffix is appended
// unless a regional suffix is already present; finally the namespace prefix
// is attached.
//
// Normalize is total: any input produces a valid identifier, even if the
// result looks odd for unusual slugs.
func Normalize(slug string) feeds.Identifier {
	name := strings.ToLower(norm.NFC.String(slug))
	// Re-normalizing an identifier yields the same identifier.
	name = strings.TrimPrefix(name, namespacePrefix)
	name = strings.ReplaceAll(name, "-", separator)
	name = strings.ReplaceAll(name, "_", separator)

	for strings.Contains(name, separator+separator) {
		name = strings.ReplaceAll(name, separator+separator, separator)
	}
	name = strings.Trim(name, separator)

	if !hasRegionalSuffix(name) {
		name += defaultSuffix
	}

	return feeds.Identifier(namespacePrefix + name)
}

func hasRegionalSuffix(name string) bool {
	for _, suffix := range regionalSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
