package dto

import "time"

// UserGroupDTO is a back-office user group.
type UserGroupDTO struct {
	ID                 int    `gorm:"primaryKey"`
	UniqueID           string `gorm:"uniqueIndex;not null;size:36"`
	Alias              string `gorm:"uniqueIndex;not null;size:200"`
	Name               string `gorm:"uniqueIndex;not null;size:200"`
	Icon               string `gorm:"size:255"`
	StartContentID     *int
	StartMediaID       *int
	DefaultPermissions string    `gorm:"size:50"`
	CreateDate         time.Time `gorm:"not null"`
	UpdateDate         time.Time `gorm:"not null"`
}

// TableName returns the table name for UserGroupDTO.
func (UserGroupDTO) TableName() string { return "user_groups" }

// UserGroupSectionDTO grants a section to a user group.
type UserGroupSectionDTO struct {
	UserGroupID int    `gorm:"primaryKey;autoIncrement:false"`
	App         string `gorm:"primaryKey;size:50"`
}

// TableName returns the table name for UserGroupSectionDTO.
func (UserGroupSectionDTO) TableName() string { return "user_group_sections" }

// UserDTO is a back-office user.
type UserDTO struct {
	ID            int    `gorm:"primaryKey"`
	UniqueID      string `gorm:"uniqueIndex;not null;size:36"`
	Login         string `gorm:"uniqueIndex;not null;size:125"`
	Email         string `gorm:"size:255"`
	Name          string `gorm:"size:255"`
	PasswordHash  string `gorm:"size:255"`
	Language      string `gorm:"size:10"`
	Disabled      bool   `gorm:"not null;default:false"`
	LastLoginDate *time.Time
	CreateDate    time.Time `gorm:"not null"`
	UpdateDate    time.Time `gorm:"not null"`
}

// TableName returns the table name for UserDTO.
func (UserDTO) TableName() string { return "users" }

// UserGroupMemberDTO places a user in a group.
type UserGroupMemberDTO struct {
	UserID      int `gorm:"primaryKey;autoIncrement:false"`
	UserGroupID int `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for UserGroupMemberDTO.
func (UserGroupMemberDTO) TableName() string { return "user_group_members" }
