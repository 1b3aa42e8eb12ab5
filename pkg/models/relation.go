package models

import "time"

// RelationType describes a kind of directed edge between entities.
type RelationType struct {
	EntityBase
	Name             string     `json:"name"`
	Alias            string     `json:"alias"`
	IsBidirectional  bool       `json:"is_bidirectional"`
	IsDependency     bool       `json:"is_dependency"`
	ParentObjectType ObjectType `json:"parent_object_type,omitempty"`
	ChildObjectType  ObjectType `json:"child_object_type,omitempty"`
}

// NewRelationType returns an unsaved relation type.
func NewRelationType(name, alias string, bidirectional bool, parent, child ObjectType) *RelationType {
	return &RelationType{
		Name:             name,
		Alias:            alias,
		IsBidirectional:  bidirectional,
		ParentObjectType: parent,
		ChildObjectType:  child,
	}
}

// Relation is a typed directed edge from ParentID to ChildID.
type Relation struct {
	EntityBase
	ParentID       int       `json:"parent_id"`
	ChildID        int       `json:"child_id"`
	RelationTypeID int       `json:"relation_type_id"`
	Comment        string    `json:"comment,omitempty"`
	Datetime       time.Time `json:"datetime"`
}

// NewRelation returns an unsaved relation.
func NewRelation(parentID, childID int, rt *RelationType) *Relation {
	r := &Relation{ParentID: parentID, ChildID: childID}
	if rt != nil {
		r.RelationTypeID = rt.ID
	}
	return r
}

// EntitySlim is a lightweight projection of a tree node.
type EntitySlim struct {
	TreeEntityBase
	ObjectType ObjectType `json:"object_type"`
}
