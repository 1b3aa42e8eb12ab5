package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// MacroRepository stores macros with their parameters. Aliases are unique;
// a duplicate fails with the database's uniqueness error.
type MacroRepository struct {
	*Repository[*models.Macro]
}

// NewMacroRepository creates the macro repository.
func NewMacroRepository() *MacroRepository {
	r := &MacroRepository{}
	r.Repository = newRepository[*models.Macro](r, regionMacro, func() *models.Macro { return &models.Macro{} })
	return r
}

var macroFields = query.FieldMap{
	"id":     "macros.id",
	"key":    "macros.unique_id",
	"alias":  "macros.alias",
	"name":   "macros.name",
	"source": "macros.source",
}

func (r *MacroRepository) name() string           { return "macro" }
func (r *MacroRepository) fields() query.FieldMap { return macroFields }
func (r *MacroRepository) idColumn() string       { return "macros.id" }
func (r *MacroRepository) keyColumn() string      { return "macros.unique_id" }

func (r *MacroRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.MacroDTO{})
}

func (r *MacroRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Macro, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.MacroDTO
	if err := db.Order("macros.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.Macro, len(rows))
	byID := make(map[int]*models.Macro, len(rows))
	ids := make([]int, len(rows))
	for i, row := range rows {
		m := &models.Macro{
			Alias:         row.Alias,
			Name:          row.Name,
			Source:        row.Source,
			CacheDuration: row.CacheDuration,
			CacheByPage:   row.CacheByPage,
			CacheByMember: row.CacheByMember,
			UseInEditor:   row.UseInEditor,
			DontRender:    row.DontRender,
		}
		m.ID = row.ID
		m.Key = parseKey(row.UniqueID)
		m.CreateDate = row.CreateDate
		m.UpdateDate = row.UpdateDate
		out[i] = m
		byID[row.ID] = m
		ids[i] = row.ID
	}

	var props []dto.MacroPropertyDTO
	if err := s.DB().Where("macro_id IN ?", ids).Order("sort_order, id").Find(&props).Error; err != nil {
		return nil, err
	}
	for _, p := range props {
		m := byID[p.MacroID]
		m.Properties = append(m.Properties, &models.MacroProperty{
			ID:          p.ID,
			Key:         parseKey(p.UniqueID),
			Alias:       p.Alias,
			Name:        p.Name,
			SortOrder:   p.SortOrder,
			EditorAlias: p.EditorAlias,
		})
	}
	return out, nil
}

func macroRow(m *models.Macro) *dto.MacroDTO {
	return &dto.MacroDTO{
		ID:            m.ID,
		UniqueID:      keyString(m.Key),
		Alias:         m.Alias,
		Name:          m.Name,
		Source:        m.Source,
		CacheDuration: m.CacheDuration,
		CacheByPage:   m.CacheByPage,
		CacheByMember: m.CacheByMember,
		UseInEditor:   m.UseInEditor,
		DontRender:    m.DontRender,
		CreateDate:    m.CreateDate,
		UpdateDate:    m.UpdateDate,
	}
}

func macroPropertyRow(macroID int, p *models.MacroProperty) *dto.MacroPropertyDTO {
	p.Key = ensureKey(p.Key)
	return &dto.MacroPropertyDTO{
		ID:          p.ID,
		UniqueID:    keyString(p.Key),
		MacroID:     macroID,
		Alias:       p.Alias,
		Name:        p.Name,
		SortOrder:   p.SortOrder,
		EditorAlias: p.EditorAlias,
	}
}

func (r *MacroRepository) insert(s *scope.Scope, m *models.Macro) error {
	if m.Alias == "" {
		return invalid("macro alias is required")
	}
	row := macroRow(m)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	for _, p := range m.Properties {
		p.ID = 0
	}
	return r.reconcile(s, m)
}

func (r *MacroRepository) update(s *scope.Scope, m *models.Macro) error {
	if err := updateRow(s.DB(), macroRow(m)); err != nil {
		return err
	}
	return r.reconcile(s, m)
}

// reconcile diffs the stored parameters against m.Properties by id:
// stored ids missing from m are deleted, known ids are updated and
// parameters without an id are created.
func (r *MacroRepository) reconcile(s *scope.Scope, m *models.Macro) error {
	db := s.DB()
	var storedIDs []int
	if err := db.Model(&dto.MacroPropertyDTO{}).Where("macro_id = ?", m.ID).Pluck("id", &storedIDs).Error; err != nil {
		return err
	}
	stored := make(map[int]bool, len(storedIDs))
	for _, id := range storedIDs {
		stored[id] = true
	}

	kept := make(map[int]bool, len(m.Properties))
	for _, p := range m.Properties {
		if p.ID != 0 && stored[p.ID] {
			kept[p.ID] = true
		}
	}
	var removed []int
	for _, id := range storedIDs {
		if !kept[id] {
			removed = append(removed, id)
		}
	}
	// (macro_id, alias) is unique: delete before inserting.
	if len(removed) > 0 {
		if err := db.Delete(&dto.MacroPropertyDTO{}, removed).Error; err != nil {
			return err
		}
	}

	for _, p := range m.Properties {
		if p.ID != 0 && stored[p.ID] {
			if err := updateRow(db, macroPropertyRow(m.ID, p)); err != nil {
				return err
			}
			continue
		}
		p.ID = 0
		row := macroPropertyRow(m.ID, p)
		if err := db.Create(row).Error; err != nil {
			return err
		}
		p.ID = row.ID
	}
	return nil
}

func (r *MacroRepository) remove(s *scope.Scope, m *models.Macro) error {
	if err := s.DB().Where("macro_id = ?", m.ID).Delete(&dto.MacroPropertyDTO{}).Error; err != nil {
		return err
	}
	res := s.DB().Delete(&dto.MacroDTO{}, m.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByAlias returns the macro with the given alias, or nil.
func (r *MacroRepository) GetByAlias(s *scope.Scope, alias string) (*models.Macro, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("alias", alias)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}
