package models

import "strings"

// Domain binds a host name (or wildcard) to a content root.
type Domain struct {
	EntityBase
	DomainName    string `json:"domain_name"`
	RootContentID int    `json:"root_content_id,omitempty"`
	LanguageID    int    `json:"language_id,omitempty"`
	// LanguageIsoCode is resolved on read.
	LanguageIsoCode string `json:"language_iso_code,omitempty"`
	SortOrder       int    `json:"sort_order"`
}

// IsWildcard reports whether the domain is a "*<id>" culture-only binding.
func (d *Domain) IsWildcard() bool {
	return d.DomainName == "" || strings.HasPrefix(d.DomainName, "*")
}
