package models

// Tag is a (group, text) pair shared by every entity that references it.
type Tag struct {
	EntityBase
	Group      string `json:"group"`
	Text       string `json:"text"`
	LanguageID int    `json:"language_id,omitempty"`
	// NodeCount is the number of distinct tagged entities. It is only
	// populated by aggregate queries.
	NodeCount int `json:"node_count,omitempty"`
}

// NewTag returns an unsaved tag.
func NewTag(group, text string) *Tag {
	return &Tag{Group: group, Text: text}
}

// TaggedProperty lists the tags matched on one property of an entity.
type TaggedProperty struct {
	PropertyTypeID    int    `json:"property_type_id"`
	PropertyTypeAlias string `json:"property_type_alias"`
	Tags              []*Tag `json:"tags"`
}

// TaggedEntity is an entity grouped with its matched tagged properties.
type TaggedEntity struct {
	EntityID         int               `json:"entity_id"`
	TaggedProperties []*TaggedProperty `json:"tagged_properties"`
}
