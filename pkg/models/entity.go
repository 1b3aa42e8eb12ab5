// Package models contains the domain entities persisted by strata repositories.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RootID is the well-known parent id of every top-level tree node.
const RootID = -1

// Entity is implemented by every stored domain object.
//
// An entity is identified by an integer Id assigned by the database and by a
// GUID Key assigned at creation. Both resolve to the same cached record.
type Entity interface {
	GetID() int
	SetID(id int)
	GetKey() uuid.UUID
	SetKey(key uuid.UUID)
	HasIdentity() bool
	Touch(now time.Time)
}

// EntityBase carries the identity and audit dates shared by all entities.
type EntityBase struct {
	ID         int       `json:"id"`
	Key        uuid.UUID `json:"key"`
	CreateDate time.Time `json:"create_date"`
	UpdateDate time.Time `json:"update_date"`
}

func (e *EntityBase) GetID() int           { return e.ID }
func (e *EntityBase) SetID(id int)         { e.ID = id }
func (e *EntityBase) GetKey() uuid.UUID    { return e.Key }
func (e *EntityBase) SetKey(key uuid.UUID) { e.Key = key }

// HasIdentity reports whether the entity has been persisted.
func (e *EntityBase) HasIdentity() bool { return e.ID > 0 }

// Touch stamps UpdateDate, and CreateDate when it has not been set yet.
func (e *EntityBase) Touch(now time.Time) {
	if e.CreateDate.IsZero() {
		e.CreateDate = now
	}
	e.UpdateDate = now
}

// EnsureKey assigns a random key when none is set and returns the key.
func (e *EntityBase) EnsureKey() uuid.UUID {
	if e.Key == uuid.Nil {
		e.Key = uuid.New()
	}
	return e.Key
}

// TreeEntity is an entity positioned in the node tree.
type TreeEntity interface {
	Entity
	GetParentID() int
	GetPath() string
	GetLevel() int
}

// TreeEntityBase holds the tree position of a node.
//
// Path is the materialized chain of ancestor ids starting at the root
// ("-1,23,45"). Level is the depth; children of the root are at level 1.
type TreeEntityBase struct {
	EntityBase
	Name      string `json:"name"`
	ParentID  int    `json:"parent_id"`
	Path      string `json:"path"`
	Level     int    `json:"level"`
	SortOrder int    `json:"sort_order"`
	Trashed   bool   `json:"trashed"`
	CreatorID int    `json:"creator_id,omitempty"`
}

func (t *TreeEntityBase) GetParentID() int { return t.ParentID }
func (t *TreeEntityBase) GetPath() string  { return t.Path }
func (t *TreeEntityBase) GetLevel() int    { return t.Level }

// MoveEventInfo pairs an entity affected by a move with its path before the move.
type MoveEventInfo struct {
	ID           int       `json:"id"`
	Key          uuid.UUID `json:"key"`
	ObjectType   ObjectType
	OriginalPath string `json:"original_path"`
	NewPath      string `json:"new_path"`
	NewParentID  int    `json:"new_parent_id"`
}
