package dto

import "time"

// NodeDTO is a row of the shared node tree. Containers, content types and
// content items all own one node row.
type NodeDTO struct {
	ID             int    `gorm:"primaryKey"`
	UniqueID       string `gorm:"uniqueIndex;not null;size:36"`
	ParentID       int    `gorm:"index;not null"`
	Level          int    `gorm:"not null"`
	Path           string `gorm:"index;not null;size:1024"`
	SortOrder      int    `gorm:"not null;default:0"`
	Trashed        bool   `gorm:"not null;default:false"`
	UserID         *int
	Text           string    `gorm:"size:255"`
	NodeObjectType string    `gorm:"index;not null;size:40"`
	CreateDate     time.Time `gorm:"not null"`
	UpdateDate     time.Time `gorm:"not null"`
}

// TableName returns the table name for NodeDTO.
func (NodeDTO) TableName() string { return "nodes" }
