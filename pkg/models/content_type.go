package models

import "github.com/google/uuid"

// ContentVariation flags how values vary.
type ContentVariation int

const (
	VariesByNothing ContentVariation = 0
	VariesByCulture ContentVariation = 1
	VariesBySegment ContentVariation = 2
)

// VariesByCulture reports whether the culture flag is set.
func (v ContentVariation) VariesByCulture() bool { return v&VariesByCulture != 0 }

// ValueStorage selects the typed column a property value is stored in.
type ValueStorage string

const (
	StorageNvarchar ValueStorage = "nvarchar"
	StorageNtext    ValueStorage = "ntext"
	StorageInteger  ValueStorage = "integer"
	StorageDecimal  ValueStorage = "decimal"
	StorageDate     ValueStorage = "date"
)

// ContentType describes the shape of documents, media or members.
type ContentType struct {
	TreeEntityBase
	ObjectType     ObjectType       `json:"object_type"`
	Alias          string           `json:"alias"`
	Icon           string           `json:"icon,omitempty"`
	Description    string           `json:"description,omitempty"`
	IsElement      bool             `json:"is_element"`
	AllowedAsRoot  bool             `json:"allowed_as_root"`
	Variations     ContentVariation `json:"variations"`
	PropertyGroups []*PropertyGroup `json:"property_groups,omitempty"`
	PropertyTypes  []*PropertyType  `json:"property_types,omitempty"`
}

// NewContentType returns an unsaved content type of the given kind at the root.
func NewContentType(objectType ObjectType, alias, name string) *ContentType {
	ct := &ContentType{ObjectType: objectType, Alias: alias}
	ct.Name = name
	ct.ParentID = RootID
	return ct
}

// PropertyGroup is a named tab or group of property types.
type PropertyGroup struct {
	ID        int       `json:"id"`
	Key       uuid.UUID `json:"key"`
	Alias     string    `json:"alias"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
}

// PropertyType is a single field of a content type.
type PropertyType struct {
	ID           int              `json:"id"`
	Key          uuid.UUID        `json:"key"`
	Alias        string           `json:"alias"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	DataTypeID   int              `json:"data_type_id"`
	ValueStorage ValueStorage     `json:"value_storage"`
	Mandatory    bool             `json:"mandatory"`
	SortOrder    int              `json:"sort_order"`
	Variations   ContentVariation `json:"variations"`
	// GroupAlias is empty for property types outside any group.
	GroupAlias string `json:"group_alias,omitempty"`
}

// AddPropertyGroup appends a group and returns it.
func (ct *ContentType) AddPropertyGroup(alias, name string) *PropertyGroup {
	g := &PropertyGroup{Alias: alias, Name: name, SortOrder: len(ct.PropertyGroups)}
	ct.PropertyGroups = append(ct.PropertyGroups, g)
	return g
}

// AddPropertyType appends a property type and returns it.
func (ct *ContentType) AddPropertyType(pt *PropertyType) *PropertyType {
	if pt.ValueStorage == "" {
		pt.ValueStorage = StorageNvarchar
	}
	ct.PropertyTypes = append(ct.PropertyTypes, pt)
	return pt
}

// RemovePropertyType drops the property type with the given alias.
// It reports whether a property type was removed.
func (ct *ContentType) RemovePropertyType(alias string) bool {
	for i, pt := range ct.PropertyTypes {
		if pt.Alias == alias {
			ct.PropertyTypes = append(ct.PropertyTypes[:i], ct.PropertyTypes[i+1:]...)
			return true
		}
	}
	return false
}

// PropertyType returns the property type with the given alias, or nil.
func (ct *ContentType) PropertyType(alias string) *PropertyType {
	for _, pt := range ct.PropertyTypes {
		if pt.Alias == alias {
			return pt
		}
	}
	return nil
}

// VariesByCulture reports whether names of instances vary by culture.
func (ct *ContentType) VariesByCulture() bool { return ct.Variations.VariesByCulture() }
