package dto

import "time"

// RelationTypeDTO describes a kind of relation.
type RelationTypeDTO struct {
	ID               int     `gorm:"primaryKey"`
	UniqueID         string  `gorm:"uniqueIndex;not null;size:36"`
	Dual             bool    `gorm:"not null;default:false"`
	ParentObjectType *string `gorm:"size:40"`
	ChildObjectType  *string `gorm:"size:40"`
	Name             string  `gorm:"uniqueIndex;not null;size:255"`
	Alias            string  `gorm:"uniqueIndex;not null;size:100"`
	IsDependency     bool    `gorm:"not null;default:false"`
}

// TableName returns the table name for RelationTypeDTO.
func (RelationTypeDTO) TableName() string { return "relation_types" }

// RelationDTO is a typed edge between two nodes.
type RelationDTO struct {
	ID           int       `gorm:"primaryKey"`
	UniqueID     string    `gorm:"uniqueIndex;not null;size:36"`
	ParentID     int       `gorm:"index;not null"`
	ChildID      int       `gorm:"index;not null"`
	RelationType int       `gorm:"index;not null"`
	Datetime     time.Time `gorm:"not null"`
	Comment      string    `gorm:"size:1000"`
}

// TableName returns the table name for RelationDTO.
func (RelationDTO) TableName() string { return "relations" }
