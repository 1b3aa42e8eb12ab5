package dto

import "time"

// TagDTO is a shared (group, text) tag row. Language-neutral tags have a
// NULL language and their own partial unique index, since NULLs never
// collide in idx_tags_group_text_language.
type TagDTO struct {
	ID         int       `gorm:"primaryKey"`
	UniqueID   string    `gorm:"uniqueIndex;not null;size:36"`
	Group      string    `gorm:"column:tag_group;uniqueIndex:idx_tags_group_text_language;uniqueIndex:idx_tags_group_text_neutral,where:language_id IS NULL;not null;size:100"`
	Text       string    `gorm:"column:tag;uniqueIndex:idx_tags_group_text_language;uniqueIndex:idx_tags_group_text_neutral,where:language_id IS NULL;not null;size:200"`
	LanguageID *int      `gorm:"uniqueIndex:idx_tags_group_text_language"`
	CreateDate time.Time `gorm:"not null"`
	UpdateDate time.Time `gorm:"not null"`
}

// TableName returns the table name for TagDTO.
func (TagDTO) TableName() string { return "tags" }

// TagRelationshipDTO associates a tag with a property of a node.
type TagRelationshipDTO struct {
	NodeID         int `gorm:"primaryKey;autoIncrement:false"`
	TagID          int `gorm:"primaryKey;autoIncrement:false;index"`
	PropertyTypeID int `gorm:"primaryKey;autoIncrement:false"`
}

// TableName returns the table name for TagRelationshipDTO.
func (TagRelationshipDTO) TableName() string { return "tag_relationships" }
