package models

// EntityContainer is a folder for document types, media types or data types.
type EntityContainer struct {
	TreeEntityBase
	// ContainerObjectType is the folder kind, e.g. ObjectTypeDocumentTypeContainer.
	ContainerObjectType ObjectType `json:"container_object_type"`
}

// NewEntityContainer returns an unsaved container of the given kind at the root.
func NewEntityContainer(containerType ObjectType, name string) *EntityContainer {
	c := &EntityContainer{ContainerObjectType: containerType}
	c.Name = name
	c.ParentID = RootID
	return c
}
