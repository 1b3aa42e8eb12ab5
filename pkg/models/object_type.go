package models

import "fmt"

// ObjectType discriminates the kinds of node stored in the shared node tree.
type ObjectType string

const (
	ObjectTypeUnknown               ObjectType = ""
	ObjectTypeDocument              ObjectType = "document"
	ObjectTypeElement               ObjectType = "element"
	ObjectTypeMedia                 ObjectType = "media"
	ObjectTypeMember                ObjectType = "member"
	ObjectTypeDocumentType          ObjectType = "document-type"
	ObjectTypeMediaType             ObjectType = "media-type"
	ObjectTypeMemberType            ObjectType = "member-type"
	ObjectTypeDataType              ObjectType = "data-type"
	ObjectTypeDocumentTypeContainer ObjectType = "document-type-container"
	ObjectTypeMediaTypeContainer    ObjectType = "media-type-container"
	ObjectTypeDataTypeContainer     ObjectType = "data-type-container"
)

// AllObjectTypes lists every known object type.
func AllObjectTypes() []ObjectType {
	return []ObjectType{
		ObjectTypeDocument, ObjectTypeElement, ObjectTypeMedia, ObjectTypeMember,
		ObjectTypeDocumentType, ObjectTypeMediaType, ObjectTypeMemberType, ObjectTypeDataType,
		ObjectTypeDocumentTypeContainer, ObjectTypeMediaTypeContainer, ObjectTypeDataTypeContainer,
	}
}

// ParseObjectType converts a stored discriminator back to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if !t.IsValid() {
		return ObjectTypeUnknown, fmt.Errorf("unknown object type %q", s)
	}
	return t, nil
}

// IsValid reports whether t is a known object type.
func (t ObjectType) IsValid() bool {
	switch t {
	case ObjectTypeDocument, ObjectTypeElement, ObjectTypeMedia, ObjectTypeMember,
		ObjectTypeDocumentType, ObjectTypeMediaType, ObjectTypeMemberType, ObjectTypeDataType,
		ObjectTypeDocumentTypeContainer, ObjectTypeMediaTypeContainer, ObjectTypeDataTypeContainer:
		return true
	default:
		return false
	}
}

// IsContainer reports whether t is a folder kind.
func (t ObjectType) IsContainer() bool {
	switch t {
	case ObjectTypeDocumentTypeContainer, ObjectTypeMediaTypeContainer, ObjectTypeDataTypeContainer:
		return true
	default:
		return false
	}
}

// IsContentType reports whether t is a content-type kind.
func (t ObjectType) IsContentType() bool {
	switch t {
	case ObjectTypeDocumentType, ObjectTypeMediaType, ObjectTypeMemberType:
		return true
	default:
		return false
	}
}

// IsContent reports whether t is a content instance kind.
func (t ObjectType) IsContent() bool {
	switch t {
	case ObjectTypeDocument, ObjectTypeElement, ObjectTypeMedia, ObjectTypeMember:
		return true
	default:
		return false
	}
}

// IsPublishable reports whether instances of t carry a published version.
func (t ObjectType) IsPublishable() bool {
	return t == ObjectTypeDocument || t == ObjectTypeElement
}

// ContainerType returns the container kind that holds items of type t.
func (t ObjectType) ContainerType() (ObjectType, bool) {
	switch t {
	case ObjectTypeDocumentType, ObjectTypeDocumentTypeContainer:
		return ObjectTypeDocumentTypeContainer, true
	case ObjectTypeMediaType, ObjectTypeMediaTypeContainer:
		return ObjectTypeMediaTypeContainer, true
	case ObjectTypeDataType, ObjectTypeDataTypeContainer:
		return ObjectTypeDataTypeContainer, true
	default:
		return ObjectTypeUnknown, false
	}
}

// ContainedType returns the item kind held by container type t.
func (t ObjectType) ContainedType() (ObjectType, bool) {
	switch t {
	case ObjectTypeDocumentTypeContainer:
		return ObjectTypeDocumentType, true
	case ObjectTypeMediaTypeContainer:
		return ObjectTypeMediaType, true
	case ObjectTypeDataTypeContainer:
		return ObjectTypeDataType, true
	default:
		return ObjectTypeUnknown, false
	}
}

// ContentTypeFor returns the content-type kind describing instances of t.
func (t ObjectType) ContentTypeFor() (ObjectType, bool) {
	switch t {
	case ObjectTypeDocument, ObjectTypeElement:
		return ObjectTypeDocumentType, true
	case ObjectTypeMedia:
		return ObjectTypeMediaType, true
	case ObjectTypeMember:
		return ObjectTypeMemberType, true
	default:
		return ObjectTypeUnknown, false
	}
}

// TaggableObjectType narrows tag queries to a family of object types.
type TaggableObjectType string

const (
	TaggableAll     TaggableObjectType = "all"
	TaggableContent TaggableObjectType = "content"
	TaggableMedia   TaggableObjectType = "media"
	TaggableMember  TaggableObjectType = "member"
)

// ObjectTypes returns the node object types covered by t. TaggableAll
// returns every taggable type.
func (t TaggableObjectType) ObjectTypes() []ObjectType {
	switch t {
	case TaggableContent:
		return []ObjectType{ObjectTypeDocument, ObjectTypeElement}
	case TaggableMedia:
		return []ObjectType{ObjectTypeMedia}
	case TaggableMember:
		return []ObjectType{ObjectTypeMember}
	default:
		return []ObjectType{ObjectTypeDocument, ObjectTypeElement, ObjectTypeMedia, ObjectTypeMember}
	}
}
