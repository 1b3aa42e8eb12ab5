package dto

import "time"

// MacroDTO is a reusable rendering snippet.
type MacroDTO struct {
	ID            int       `gorm:"primaryKey"`
	UniqueID      string    `gorm:"uniqueIndex;not null;size:36"`
	Alias         string    `gorm:"uniqueIndex;not null;size:255"`
	Name          string    `gorm:"size:255"`
	Source        string    `gorm:"size:255"`
	CacheDuration int       `gorm:"not null;default:0"`
	CacheByPage   bool      `gorm:"not null;default:false"`
	CacheByMember bool      `gorm:"not null;default:false"`
	UseInEditor   bool      `gorm:"not null;default:false"`
	DontRender    bool      `gorm:"not null;default:false"`
	CreateDate    time.Time `gorm:"not null"`
	UpdateDate    time.Time `gorm:"not null"`
}

// TableName returns the table name for MacroDTO.
func (MacroDTO) TableName() string { return "macros" }

// MacroPropertyDTO is a parameter of a macro.
type MacroPropertyDTO struct {
	ID          int    `gorm:"primaryKey"`
	UniqueID    string `gorm:"uniqueIndex;not null;size:36"`
	MacroID     int    `gorm:"uniqueIndex:idx_macro_property_alias;not null"`
	Alias       string `gorm:"uniqueIndex:idx_macro_property_alias;not null;size:50"`
	Name        string `gorm:"size:255"`
	SortOrder   int    `gorm:"not null;default:0"`
	EditorAlias string `gorm:"size:255"`
}

// TableName returns the table name for MacroPropertyDTO.
func (MacroPropertyDTO) TableName() string { return "macro_properties" }

// ServerRegistrationDTO records a server in the cluster.
type ServerRegistrationDTO struct {
	ID                    int       `gorm:"primaryKey"`
	UniqueID              string    `gorm:"uniqueIndex;not null;size:36"`
	Address               string    `gorm:"size:500"`
	ComputerName          string    `gorm:"uniqueIndex;not null;size:255"`
	RegisteredDate        time.Time `gorm:"not null"`
	AccessedDate          time.Time `gorm:"index;not null"`
	IsActive              bool      `gorm:"index;not null;default:false"`
	IsSchedulingPublisher bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for ServerRegistrationDTO.
func (ServerRegistrationDTO) TableName() string { return "server_registrations" }
