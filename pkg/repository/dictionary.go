package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// DictionaryRepository stores translatable labels. Items form a tree via
// their parent key and own one translation per language.
type DictionaryRepository struct {
	*Repository[*models.DictionaryItem]
}

// NewDictionaryRepository creates the dictionary repository.
func NewDictionaryRepository() *DictionaryRepository {
	r := &DictionaryRepository{}
	r.Repository = newRepository[*models.DictionaryItem](r, regionDictionary,
		func() *models.DictionaryItem { return &models.DictionaryItem{} })
	return r
}

var dictionaryFields = query.FieldMap{
	"id":        "dictionary_items.id",
	"key":       "dictionary_items.unique_id",
	"itemKey":   "dictionary_items.item_key",
	"parentKey": "dictionary_items.parent",
}

func (r *DictionaryRepository) name() string           { return "dictionary" }
func (r *DictionaryRepository) fields() query.FieldMap { return dictionaryFields }
func (r *DictionaryRepository) idColumn() string       { return "dictionary_items.id" }
func (r *DictionaryRepository) keyColumn() string      { return "dictionary_items.unique_id" }

func (r *DictionaryRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.DictionaryDTO{})
}

func (r *DictionaryRepository) load(s *scope.Scope, where clause.Expression) ([]*models.DictionaryItem, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.DictionaryDTO
	if err := db.Order("dictionary_items.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.DictionaryItem, len(rows))
	byKey := make(map[string]*models.DictionaryItem, len(rows))
	keys := make([]string, len(rows))
	for i, row := range rows {
		d := &models.DictionaryItem{ItemKey: row.Key}
		d.ID = row.ID
		d.Key = parseKey(row.UniqueID)
		d.ParentKey = parseKey(stringOrEmpty(row.Parent))
		d.CreateDate = row.CreateDate
		d.UpdateDate = row.UpdateDate
		out[i] = d
		byKey[row.UniqueID] = d
		keys[i] = row.UniqueID
	}

	var texts []struct {
		dto.LanguageTextDTO
		IsoCode string
	}
	if err := s.DB().Model(&dto.LanguageTextDTO{}).
		Select("dictionary_translations.*, languages.iso_code").
		Joins("JOIN languages ON languages.id = dictionary_translations.language_id").
		Where("dictionary_translations.unique_id IN ?", keys).
		Order("dictionary_translations.language_id").
		Scan(&texts).Error; err != nil {
		return nil, err
	}
	for _, t := range texts {
		d := byKey[t.UniqueID]
		d.Translations = append(d.Translations, &models.DictionaryTranslation{
			ID:              t.ID,
			LanguageID:      t.LanguageID,
			LanguageIsoCode: t.IsoCode,
			Value:           t.Value,
		})
	}
	return out, nil
}

func dictionaryRow(d *models.DictionaryItem) *dto.DictionaryDTO {
	var parent *string
	if d.ParentKey != uuid.Nil {
		p := keyString(d.ParentKey)
		parent = &p
	}
	return &dto.DictionaryDTO{
		ID:         d.ID,
		UniqueID:   keyString(d.Key),
		Parent:     parent,
		Key:        d.ItemKey,
		CreateDate: d.CreateDate,
		UpdateDate: d.UpdateDate,
	}
}

func (r *DictionaryRepository) insert(s *scope.Scope, d *models.DictionaryItem) error {
	if d.ItemKey == "" {
		return invalid("dictionary item key is required")
	}
	row := dictionaryRow(d)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	d.ID = row.ID
	return r.reconcile(s, d)
}

func (r *DictionaryRepository) update(s *scope.Scope, d *models.DictionaryItem) error {
	if err := updateRow(s.DB(), dictionaryRow(d)); err != nil {
		return err
	}
	return r.reconcile(s, d)
}

// reconcile makes the stored translations equal d.Translations, keyed by
// language.
func (r *DictionaryRepository) reconcile(s *scope.Scope, d *models.DictionaryItem) error {
	db := s.DB()
	key := keyString(d.Key)

	var stored []dto.LanguageTextDTO
	if err := db.Where("unique_id = ?", key).Find(&stored).Error; err != nil {
		return err
	}
	byLanguage := make(map[int]*dto.LanguageTextDTO, len(stored))
	for i := range stored {
		byLanguage[stored[i].LanguageID] = &stored[i]
	}

	isoCodes, err := languageIsoCodes(db)
	if err != nil {
		return err
	}
	wanted := make(map[int]bool, len(d.Translations))
	for _, t := range d.Translations {
		iso, ok := isoCodes[t.LanguageID]
		if !ok {
			return invalid("dictionary item %q: unknown language %d", d.ItemKey, t.LanguageID)
		}
		t.LanguageIsoCode = iso
		wanted[t.LanguageID] = true

		if row, ok := byLanguage[t.LanguageID]; ok {
			t.ID = row.ID
			if row.Value != t.Value {
				row.Value = t.Value
				if err := updateRow(db, row); err != nil {
					return err
				}
			}
			continue
		}
		row := &dto.LanguageTextDTO{UniqueID: key, LanguageID: t.LanguageID, Value: t.Value}
		if err := db.Create(row).Error; err != nil {
			return err
		}
		t.ID = row.ID
	}

	var removed []int
	for lang, row := range byLanguage {
		if !wanted[lang] {
			removed = append(removed, row.ID)
		}
	}
	if len(removed) > 0 {
		return db.Delete(&dto.LanguageTextDTO{}, removed).Error
	}
	return nil
}

// remove deletes the item with its descendants and their translations.
func (r *DictionaryRepository) remove(s *scope.Scope, d *models.DictionaryItem) error {
	db := s.DB()
	var root dto.DictionaryDTO
	if err := db.Select("id", "unique_id").First(&root, d.ID).Error; err != nil {
		return notFound(err)
	}

	items, err := r.descendantRows(s, []string{root.UniqueID})
	if err != nil {
		return err
	}
	items = append(items, root)

	keys := make([]string, len(items))
	ids := make([]int, len(items))
	for i, it := range items {
		keys[i] = it.UniqueID
		ids[i] = it.ID
	}
	if err := db.Where("unique_id IN ?", keys).Delete(&dto.LanguageTextDTO{}).Error; err != nil {
		return err
	}
	if err := db.Delete(&dto.DictionaryDTO{}, ids).Error; err != nil {
		return err
	}
	for _, it := range items {
		r.invalidate(s, it.ID, parseKey(it.UniqueID))
	}
	return nil
}

// descendantRows walks the tree below parents breadth first.
func (r *DictionaryRepository) descendantRows(s *scope.Scope, parents []string) ([]dto.DictionaryDTO, error) {
	var out []dto.DictionaryDTO
	for len(parents) > 0 {
		var level []dto.DictionaryDTO
		if err := s.DB().Select("id", "unique_id").Where("parent IN ?", parents).Order("id").Find(&level).Error; err != nil {
			return nil, err
		}
		parents = parents[:0]
		for _, row := range level {
			parents = append(parents, row.UniqueID)
		}
		out = append(out, level...)
	}
	return out, nil
}

// GetByItemKey returns the item with the given item key, or nil.
func (r *DictionaryRepository) GetByItemKey(s *scope.Scope, itemKey string) (*models.DictionaryItem, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("itemKey", itemKey)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetDescendants returns every item below parentKey, breadth first. The
// nil key returns every item.
func (r *DictionaryRepository) GetDescendants(s *scope.Scope, parentKey uuid.UUID) ([]*models.DictionaryItem, error) {
	if parentKey == uuid.Nil {
		return r.GetAll(s)
	}
	rows, err := r.descendantRows(s, []string{keyString(parentKey)})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return r.GetMany(s, ids...)
}

// GetChildren returns the items directly below parentKey. The nil key
// returns the top-level items.
func (r *DictionaryRepository) GetChildren(s *scope.Scope, parentKey uuid.UUID) ([]*models.DictionaryItem, error) {
	q := query.New()
	if parentKey == uuid.Nil {
		q.Where(query.IsNull("parentKey"))
	} else {
		q.Where(query.Eq("parentKey", keyString(parentKey)))
	}
	return r.Query(s, q)
}

// GetKeyMap maps every item key to its entity key.
func (r *DictionaryRepository) GetKeyMap(s *scope.Scope) (map[string]uuid.UUID, error) {
	var rows []dto.DictionaryDTO
	if err := s.DB().Select("unique_id", "item_key").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		out[row.Key] = parseKey(row.UniqueID)
	}
	return out, nil
}
