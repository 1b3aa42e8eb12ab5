package models

import (
	"fmt"
	"time"
)

// PublishedState is the publishing intent or outcome of a content item.
type PublishedState int

const (
	StateUnpublished PublishedState = iota
	StatePublished
	// StatePublishing requests a publish on the next save.
	StatePublishing
	// StateUnpublishing requests an unpublish on the next save.
	StateUnpublishing
)

func (s PublishedState) String() string {
	switch s {
	case StateUnpublished:
		return "unpublished"
	case StatePublished:
		return "published"
	case StatePublishing:
		return "publishing"
	case StateUnpublishing:
		return "unpublishing"
	default:
		return fmt.Sprintf("PublishedState(%d)", int(s))
	}
}

// Content is a versioned content item: a document, element, media item or member.
//
// VersionID identifies the current version row. PublishedVersionID
// identifies the version row that is live, or is zero when nothing is published.
type Content struct {
	TreeEntityBase
	ObjectType         ObjectType        `json:"object_type"`
	ContentTypeID      int               `json:"content_type_id"`
	ContentTypeAlias   string            `json:"content_type_alias,omitempty"`
	VersionID          int               `json:"version_id"`
	PublishedVersionID int               `json:"published_version_id"`
	Published          bool              `json:"published"`
	Edited             bool              `json:"edited"`
	PublishedState     PublishedState    `json:"published_state"`
	VersionDate        time.Time         `json:"version_date"`
	CultureNames       map[string]string `json:"culture_names,omitempty"`
	Properties         []*Property       `json:"properties,omitempty"`

	// Member-only fields
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// NewContent returns an unsaved content item of the given kind and type.
func NewContent(objectType ObjectType, name string, parentID int, ct *ContentType) *Content {
	c := &Content{ObjectType: objectType}
	c.Name = name
	c.ParentID = parentID
	if ct != nil {
		c.ContentTypeID = ct.ID
		c.ContentTypeAlias = ct.Alias
	}
	return c
}

// IsPublishedVersion reports whether this instance was materialized from
// the published version row.
func (c *Content) IsPublishedVersion() bool {
	return c.PublishedVersionID != 0 && c.VersionID == c.PublishedVersionID
}

// Publish marks the item to be published on the next save.
func (c *Content) Publish() { c.PublishedState = StatePublishing }

// Unpublish marks the item to be unpublished on the next save.
func (c *Content) Unpublish() { c.PublishedState = StateUnpublishing }

// SetCultureName sets the name for a culture. An empty culture sets the invariant name.
func (c *Content) SetCultureName(culture, name string) {
	if culture == "" {
		c.Name = name
		return
	}
	if c.CultureNames == nil {
		c.CultureNames = make(map[string]string)
	}
	c.CultureNames[culture] = name
}

// GetCultureName returns the name for a culture, or the invariant name.
func (c *Content) GetCultureName(culture string) string {
	if culture == "" {
		return c.Name
	}
	return c.CultureNames[culture]
}

// Property returns the property with the given alias, or nil.
func (c *Content) Property(alias string) *Property {
	for _, p := range c.Properties {
		if p.Alias == alias {
			return p
		}
	}
	return nil
}

// SetValue sets a property value for a culture ("" for invariant).
func (c *Content) SetValue(alias string, value any, culture string) {
	p := c.Property(alias)
	if p == nil {
		p = &Property{Alias: alias}
		c.Properties = append(c.Properties, p)
	}
	p.SetValue(NewValue(value), culture)
}

// GetValue returns a property value for a culture, or nil.
func (c *Content) GetValue(alias, culture string) any {
	p := c.Property(alias)
	if p == nil {
		return nil
	}
	return p.GetValue(culture).Interface()
}

// Property holds the values of one property type on a content item.
type Property struct {
	PropertyTypeID int             `json:"property_type_id"`
	Alias          string          `json:"alias"`
	Values         []PropertyValue `json:"values,omitempty"`
}

// SetValue replaces the value for a culture.
func (p *Property) SetValue(v Value, culture string) {
	for i := range p.Values {
		if p.Values[i].Culture == culture {
			p.Values[i].Value = v
			return
		}
	}
	p.Values = append(p.Values, PropertyValue{Culture: culture, Value: v})
}

// GetValue returns the value for a culture.
func (p *Property) GetValue(culture string) Value {
	for _, v := range p.Values {
		if v.Culture == culture {
			return v.Value
		}
	}
	return Value{}
}

// PropertyValue is a value for one culture and segment.
type PropertyValue struct {
	Culture string `json:"culture,omitempty"`
	Segment string `json:"segment,omitempty"`
	Value   Value  `json:"value"`
}

// Value is a typed property value. At most one field is set.
type Value struct {
	Text    *string    `json:"text,omitempty"`
	Int     *int       `json:"int,omitempty"`
	Decimal *float64   `json:"decimal,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
}

// NewValue wraps a Go value. Unsupported kinds are stored as their string form.
func NewValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return Value{Text: &x}
	case int:
		return Value{Int: &x}
	case int64:
		n := int(x)
		return Value{Int: &n}
	case int32:
		n := int(x)
		return Value{Int: &n}
	case bool:
		n := 0
		if x {
			n = 1
		}
		return Value{Int: &n}
	case float64:
		return Value{Decimal: &x}
	case float32:
		f := float64(x)
		return Value{Decimal: &f}
	case time.Time:
		return Value{Date: &x}
	default:
		s := fmt.Sprint(x)
		return Value{Text: &s}
	}
}

// IsNull reports whether no value is set.
func (v Value) IsNull() bool {
	return v.Text == nil && v.Int == nil && v.Decimal == nil && v.Date == nil
}

// Interface returns the underlying Go value, or nil.
func (v Value) Interface() any {
	switch {
	case v.Text != nil:
		return *v.Text
	case v.Int != nil:
		return *v.Int
	case v.Decimal != nil:
		return *v.Decimal
	case v.Date != nil:
		return *v.Date
	default:
		return nil
	}
}
