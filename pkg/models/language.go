package models

// Language is a culture content can be authored in.
type Language struct {
	EntityBase
	IsoCode     string `json:"iso_code"`
	CultureName string `json:"culture_name"`
	IsDefault   bool   `json:"is_default"`
	IsMandatory bool   `json:"is_mandatory"`
	// FallbackLanguageID is zero when the language has no fallback.
	FallbackLanguageID int `json:"fallback_language_id,omitempty"`
}

// NewLanguage returns an unsaved language.
func NewLanguage(isoCode, cultureName string) *Language {
	return &Language{IsoCode: isoCode, CultureName: cultureName}
}
