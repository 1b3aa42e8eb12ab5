package dto

// ContentTypeDTO extends a node with content-type attributes.
type ContentTypeDTO struct {
	NodeID      int    `gorm:"primaryKey;autoIncrement:false"`
	Alias       string `gorm:"index;not null;size:255"`
	Icon        string `gorm:"size:255"`
	Description string `gorm:"size:1500"`
	IsElement   bool   `gorm:"not null;default:false"`
	AllowAtRoot bool   `gorm:"not null;default:false"`
	Variations  int    `gorm:"not null;default:0"`
}

// TableName returns the table name for ContentTypeDTO.
func (ContentTypeDTO) TableName() string { return "content_types" }

// PropertyTypeGroupDTO is a group (tab) of property types.
type PropertyTypeGroupDTO struct {
	ID                int    `gorm:"primaryKey"`
	UniqueID          string `gorm:"uniqueIndex;not null;size:36"`
	ContentTypeNodeID int    `gorm:"index;not null"`
	Alias             string `gorm:"not null;size:255"`
	Text              string `gorm:"size:255"`
	SortOrder         int    `gorm:"not null;default:0"`
}

// TableName returns the table name for PropertyTypeGroupDTO.
func (PropertyTypeGroupDTO) TableName() string { return "property_type_groups" }

// PropertyTypeDTO is a field definition of a content type.
type PropertyTypeDTO struct {
	ID                  int    `gorm:"primaryKey"`
	UniqueID            string `gorm:"uniqueIndex;not null;size:36"`
	ContentTypeID       int    `gorm:"index;not null"`
	PropertyTypeGroupID *int   `gorm:"index"`
	Alias               string `gorm:"not null;size:255"`
	Name                string `gorm:"size:255"`
	Description         string `gorm:"size:2000"`
	DataTypeID          int    `gorm:"not null;default:0"`
	ValueStorage        string `gorm:"not null;size:20"`
	Mandatory           bool   `gorm:"not null;default:false"`
	SortOrder           int    `gorm:"not null;default:0"`
	Variations          int    `gorm:"not null;default:0"`
}

// TableName returns the table name for PropertyTypeDTO.
func (PropertyTypeDTO) TableName() string { return "property_types" }
