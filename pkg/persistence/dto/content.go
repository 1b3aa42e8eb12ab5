package dto

import "time"

// ContentDTO links a content node to its content type.
type ContentDTO struct {
	NodeID        int `gorm:"primaryKey;autoIncrement:false"`
	ContentTypeID int `gorm:"index;not null"`
}

// TableName returns the table name for ContentDTO.
func (ContentDTO) TableName() string { return "content" }

// DocumentDTO holds the publishing flags of documents and elements.
type DocumentDTO struct {
	NodeID    int  `gorm:"primaryKey;autoIncrement:false"`
	Published bool `gorm:"not null;default:false"`
	Edited    bool `gorm:"not null;default:false"`
}

// TableName returns the table name for DocumentDTO.
func (DocumentDTO) TableName() string { return "documents" }

// MemberDTO holds member login data.
type MemberDTO struct {
	NodeID    int    `gorm:"primaryKey;autoIncrement:false"`
	Email     string `gorm:"index;size:1000"`
	LoginName string `gorm:"index;size:1000"`
}

// TableName returns the table name for MemberDTO.
func (MemberDTO) TableName() string { return "members" }

// ContentVersionDTO is one version row of a content node. Exactly one row
// per node is current; at most one is published.
type ContentVersionDTO struct {
	ID          int       `gorm:"primaryKey"`
	NodeID      int       `gorm:"index;not null"`
	VersionDate time.Time `gorm:"not null"`
	UserID      *int
	Current     bool   `gorm:"not null;default:false"`
	Published   bool   `gorm:"not null;default:false"`
	Text        string `gorm:"size:255"`
}

// TableName returns the table name for ContentVersionDTO.
func (ContentVersionDTO) TableName() string { return "content_versions" }

// ContentVersionCultureVariationDTO is the name of a version in one culture.
type ContentVersionCultureVariationDTO struct {
	ID         int       `gorm:"primaryKey"`
	VersionID  int       `gorm:"uniqueIndex:idx_cvcv_version_language;not null"`
	LanguageID int       `gorm:"uniqueIndex:idx_cvcv_version_language;not null"`
	Name       string    `gorm:"size:255"`
	UpdateDate time.Time `gorm:"not null"`
}

// TableName returns the table name for ContentVersionCultureVariationDTO.
func (ContentVersionCultureVariationDTO) TableName() string {
	return "content_version_culture_variations"
}

// PropertyDataDTO is one typed property value of a version. Exactly one of
// the value columns is used, chosen by the property type's value storage.
type PropertyDataDTO struct {
	ID             int     `gorm:"primaryKey"`
	VersionID      int     `gorm:"index;not null"`
	PropertyTypeID int     `gorm:"index;not null"`
	LanguageID     *int    `gorm:"index"`
	Segment        *string `gorm:"size:256"`
	IntValue       *int
	DecimalValue   *float64
	DateValue      *time.Time
	VarcharValue   *string `gorm:"size:512"`
	TextValue      *string `gorm:"type:text"`
}

// TableName returns the table name for PropertyDataDTO.
func (PropertyDataDTO) TableName() string { return "property_data" }
