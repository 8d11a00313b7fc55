package feeds

// Permission is a tri-state license permission value.
type Permission string

// Permission values. Unknown is a placeholder that Clean strips before
// serialization; the registry document never carries it.
const (
	PermissionYes     Permission = "yes"
	PermissionNo      Permission = "no"
	PermissionUnknown Permission = "unknown"
)

// License is the normalized license record attached to a feed.
type License struct {
	SPDXIdentifier        string     `json:"spdx_identifier,omitempty"`
	URL                   string     `json:"url,omitempty"`
	AttributionText       string     `json:"attribution_text,omitempty"`
	RedistributionAllowed Permission `json:"redistribution_allowed,omitempty"`
	CommercialUseAllowed  Permission `json:"commercial_use_allowed,omitempty"`
	CreateDerivedProduct  Permission `json:"create_derived_product,omitempty"`
	ShareAlikeOptional    Permission `json:"share_alike_optional,omitempty"`
}

// Clean returns a copy of the license with "unknown" permissions emptied so
// that omitempty drops them from the serialized record.
func (l License) Clean() License {
	out := l
	if out.RedistributionAllowed == PermissionUnknown {
		out.RedistributionAllowed = ""
	}
	if out.CommercialUseAllowed == PermissionUnknown {
		out.CommercialUseAllowed = ""
	}
	if out.CreateDerivedProduct == PermissionUnknown {
		out.CreateDerivedProduct = ""
	}
	if out.ShareAlikeOptional == PermissionUnknown {
		out.ShareAlikeOptional = ""
	}
	return out
}

// IsZero reports whether the license carries no information.
func (l License) IsZero() bool {
	return l == License{}
}
