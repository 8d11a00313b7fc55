// Package license translates catalog license codes into normalized license
// records for the feed registry.
//
// The mapping is a fixed table of known catalog codes to SPDX identifiers,
// each SPDX family carrying a fixed attribution/permission template. Unknown
// codes never fail: they degrade to a permissive-unknown template and the
// caller is told the code was unrecognized.
package license

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
)

// SPDX identifiers produced by the built-in table.
const (
	SPDXODbL         = "ODbL-1.0" // Open Data Commons Open Database License v1.0
	SPDXOpenLicense  = "LO-2.0"   // French Open License 2.0 (Licence Ouverte)
	SPDXPublicDomain = "CC0-1.0"  // Public domain dedication
)

// defaultCodes maps normalized catalog license codes to SPDX identifiers.
// An empty value means the code is known but explicitly unspecified.
var defaultCodes = map[string]string{
	// Open Data Commons licenses
	"odc-odbl": SPDXODbL,

	// French government licenses
	"lov2":            SPDXOpenLicense,
	"fr-lo":           SPDXOpenLicense,
	"licence-ouverte": SPDXOpenLicense,

	// Public domain and other open licenses
	"other-pd":         SPDXPublicDomain,
	"mobility-licence": SPDXOpenLicense,

	// Fallback for unspecified
	"notspecified": "",
}

// Mapper maps catalog license codes to license records.
type Mapper struct {
	codes map[string]string
}

// NewMapper returns a mapper with the built-in code table.
func NewMapper() *Mapper {
	codes := make(map[string]string, len(defaultCodes))
	for k, v := range defaultCodes {
		codes[k] = v
	}
	return &Mapper{codes: codes}
}

// overrideFile is the YAML shape of a code-table override file.
type overrideFile struct {
	Codes map[string]string `yaml:"codes"`
}

// LoadOverrides merges additional code-to-SPDX mappings from a YAML file into
// the mapper's table. Overrides win over built-in entries.
func (m *Mapper) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	for code, spdx := range file.Codes {
		m.codes[normalizeCode(code)] = spdx
	}
	return nil
}

// Map translates a catalog license code into a license record.
//
// The returned bool reports whether the code was recognized; unrecognized
// codes still produce a valid record (the permissive-unknown template with
// the entry's display name as attribution) so the caller can surface a
// warning without losing the feed.
func (m *Mapper) Map(code, pageURL, displayName string) (feeds.License, bool) {
	l := feeds.License{URL: pageURL}

	if code == "" {
		return l, true
	}

	spdx, known := m.codes[normalizeCode(code)]
	if !known || spdx == "" {
		// Unrecognized, or known but explicitly unspecified: permissions are
		// unknown and attribution falls back to the display name.
		l.AttributionText = displayName
		l.RedistributionAllowed = feeds.PermissionUnknown
		l.CommercialUseAllowed = feeds.PermissionUnknown
		l.CreateDerivedProduct = feeds.PermissionUnknown
		l.ShareAlikeOptional = feeds.PermissionUnknown
		return l, known
	}

	l.SPDXIdentifier = spdx
	applyTemplate(&l, spdx)
	return l, true
}

// applyTemplate fills the fixed attribution/permission fields for an SPDX
// family.
func applyTemplate(l *feeds.License, spdx string) {
	switch spdx {
	case SPDXODbL:
		l.AttributionText = "© OpenStreetMap contributors"
		l.RedistributionAllowed = feeds.PermissionYes
		l.CommercialUseAllowed = feeds.PermissionYes
		l.CreateDerivedProduct = feeds.PermissionYes
		l.ShareAlikeOptional = feeds.PermissionNo
	case SPDXOpenLicense:
		l.AttributionText = "Licence Ouverte / Open License"
		l.RedistributionAllowed = feeds.PermissionYes
		l.CommercialUseAllowed = feeds.PermissionYes
		l.CreateDerivedProduct = feeds.PermissionYes
		l.ShareAlikeOptional = feeds.PermissionYes
	case SPDXPublicDomain:
		// No attribution needed for public domain.
		l.RedistributionAllowed = feeds.PermissionYes
		l.CommercialUseAllowed = feeds.PermissionYes
		l.CreateDerivedProduct = feeds.PermissionYes
		l.ShareAlikeOptional = feeds.PermissionYes
	default:
		// SPDX identifier from an override file without a built-in template:
		// keep the identifier, leave permissions unknown.
		l.RedistributionAllowed = feeds.PermissionUnknown
		l.CommercialUseAllowed = feeds.PermissionUnknown
		l.CreateDerivedProduct = feeds.PermissionUnknown
		l.ShareAlikeOptional = feeds.PermissionUnknown
	}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
