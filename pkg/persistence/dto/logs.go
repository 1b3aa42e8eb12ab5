package dto

import (
	"time"

	"gorm.io/datatypes"
)

// CacheInstructionDTO is a batch of cache refresher instructions.
type CacheInstructionDTO struct {
	ID               int            `gorm:"primaryKey"`
	UtcStamp         time.Time      `gorm:"index;not null"`
	JSONInstruction  datatypes.JSON `gorm:"column:json_instruction;not null"`
	OriginIdentity   string         `gorm:"not null;size:500"`
	InstructionCount int            `gorm:"not null;default:1"`
}

// TableName returns the table name for CacheInstructionDTO.
func (CacheInstructionDTO) TableName() string { return "cache_instructions" }

// AuditItemDTO is an audit log row.
type AuditItemDTO struct {
	ID         int       `gorm:"primaryKey"`
	UserID     int       `gorm:"index;not null"`
	NodeID     int       `gorm:"index;not null"`
	EntityType string    `gorm:"size:50"`
	Datestamp  time.Time `gorm:"index;not null"`
	LogHeader  string    `gorm:"index;not null;size:50"`
	LogComment string    `gorm:"size:4000"`
	Parameters datatypes.JSON
}

// TableName returns the table name for AuditItemDTO.
func (AuditItemDTO) TableName() string { return "audit_log" }

// LongRunningOperationDTO tracks a background task.
type LongRunningOperationDTO struct {
	ID             int    `gorm:"primaryKey"`
	UniqueID       string `gorm:"uniqueIndex;not null;size:36"`
	Type           string `gorm:"index;not null;size:255"`
	Status         string `gorm:"index;not null;size:50"`
	Result         datatypes.JSON
	CreateDate     time.Time `gorm:"not null"`
	UpdateDate     time.Time `gorm:"not null"`
	ExpirationDate time.Time `gorm:"index;not null"`
}

// TableName returns the table name for LongRunningOperationDTO.
func (LongRunningOperationDTO) TableName() string { return "long_running_operations" }
