package dto

import "time"

// DictionaryDTO is a translatable label.
type DictionaryDTO struct {
	ID         int       `gorm:"primaryKey"`
	UniqueID   string    `gorm:"uniqueIndex;not null;size:36"`
	Parent     *string   `gorm:"index;size:36"`
	Key        string    `gorm:"column:item_key;uniqueIndex;not null;size:450"`
	CreateDate time.Time `gorm:"not null"`
	UpdateDate time.Time `gorm:"not null"`
}

// TableName returns the table name for DictionaryDTO.
func (DictionaryDTO) TableName() string { return "dictionary_items" }

// LanguageTextDTO is the value of a dictionary item in one language.
type LanguageTextDTO struct {
	ID         int    `gorm:"primaryKey"`
	UniqueID   string `gorm:"uniqueIndex:idx_language_text_item_language;not null;size:36"`
	LanguageID int    `gorm:"uniqueIndex:idx_language_text_item_language;not null"`
	Value      string `gorm:"type:text"`
}

// TableName returns the table name for LanguageTextDTO.
func (LanguageTextDTO) TableName() string { return "dictionary_translations" }
