package models

import "github.com/google/uuid"

// DictionaryItem is a translatable label.
type DictionaryItem struct {
	EntityBase
	ItemKey      string                   `json:"item_key"`
	ParentKey    uuid.UUID                `json:"parent_key,omitempty"`
	Translations []*DictionaryTranslation `json:"translations,omitempty"`
}

// NewDictionaryItem returns an unsaved dictionary item.
func NewDictionaryItem(itemKey string) *DictionaryItem {
	return &DictionaryItem{ItemKey: itemKey}
}

// DictionaryTranslation is the value of a dictionary item for one language.
type DictionaryTranslation struct {
	ID              int    `json:"id"`
	LanguageID      int    `json:"language_id"`
	LanguageIsoCode string `json:"language_iso_code,omitempty"`
	Value           string `json:"value"`
}

// SetTranslation sets the value for a language.
func (d *DictionaryItem) SetTranslation(languageID int, value string) {
	for _, t := range d.Translations {
		if t.LanguageID == languageID {
			t.Value = value
			return
		}
	}
	d.Translations = append(d.Translations, &DictionaryTranslation{LanguageID: languageID, Value: value})
}

// Translation returns the value for a language.
func (d *DictionaryItem) Translation(languageID int) (string, bool) {
	for _, t := range d.Translations {
		if t.LanguageID == languageID {
			return t.Value, true
		}
	}
	return "", false
}
