package models

import "github.com/google/uuid"

// Macro is a reusable rendering snippet with parameters.
type Macro struct {
	EntityBase
	Alias         string           `json:"alias"`
	Name          string           `json:"name"`
	Source        string           `json:"source"`
	CacheDuration int              `json:"cache_duration"`
	CacheByPage   bool             `json:"cache_by_page"`
	CacheByMember bool             `json:"cache_by_member"`
	UseInEditor   bool             `json:"use_in_editor"`
	DontRender    bool             `json:"dont_render"`
	Properties    []*MacroProperty `json:"properties,omitempty"`
}

// MacroProperty is a parameter of a macro.
type MacroProperty struct {
	ID          int       `json:"id"`
	Key         uuid.UUID `json:"key"`
	Alias       string    `json:"alias"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
	EditorAlias string    `json:"editor_alias"`
}

// AddProperty appends a parameter.
func (m *Macro) AddProperty(alias, name, editorAlias string) *MacroProperty {
	p := &MacroProperty{Alias: alias, Name: name, EditorAlias: editorAlias, SortOrder: len(m.Properties)}
	m.Properties = append(m.Properties, p)
	return p
}

// RemoveProperty drops the parameter with the given alias.
func (m *Macro) RemoveProperty(alias string) bool {
	for i, p := range m.Properties {
		if p.Alias == alias {
			m.Properties = append(m.Properties[:i], m.Properties[i+1:]...)
			return true
		}
	}
	return false
}
