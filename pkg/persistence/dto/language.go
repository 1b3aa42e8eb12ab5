package dto

import "time"

// LanguageDTO is a configured culture.
type LanguageDTO struct {
	ID                 int       `gorm:"primaryKey"`
	UniqueID           string    `gorm:"uniqueIndex;not null;size:36"`
	IsoCode            string    `gorm:"uniqueIndex;not null;size:14"`
	CultureName        string    `gorm:"size:100"`
	IsDefault          bool      `gorm:"not null;default:false"`
	IsMandatory        bool      `gorm:"not null;default:false"`
	FallbackLanguageID *int      `gorm:"index"`
	CreateDate         time.Time `gorm:"not null"`
	UpdateDate         time.Time `gorm:"not null"`
}

// TableName returns the table name for LanguageDTO.
func (LanguageDTO) TableName() string { return "languages" }

// DomainDTO binds a host name to a content root.
type DomainDTO struct {
	ID            int       `gorm:"primaryKey"`
	UniqueID      string    `gorm:"uniqueIndex;not null;size:36"`
	DomainName    string    `gorm:"uniqueIndex;not null;size:255"`
	RootContentID *int      `gorm:"index"`
	LanguageID    *int      `gorm:"index"`
	SortOrder     int       `gorm:"not null;default:0"`
	CreateDate    time.Time `gorm:"not null"`
	UpdateDate    time.Time `gorm:"not null"`
}

// TableName returns the table name for DomainDTO.
func (DomainDTO) TableName() string { return "domains" }

// RedirectURLDTO records a former URL of a content item.
type RedirectURLDTO struct {
	ID            int       `gorm:"primaryKey"`
	UniqueID      string    `gorm:"uniqueIndex;not null;size:36"`
	ContentKey    string    `gorm:"index;not null;size:36"`
	URL           string    `gorm:"index;not null;size:2048"`
	Culture       *string   `gorm:"size:14"`
	CreateDateUTC time.Time `gorm:"column:create_date_utc;index;not null"`
}

// TableName returns the table name for RedirectURLDTO.
func (RedirectURLDTO) TableName() string { return "redirect_urls" }
