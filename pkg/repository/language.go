package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// LanguageRepository stores the configured cultures.
//
// Exactly one language is the default: saving a default language clears
// the flag on the others. Iso codes are unique ignoring case, and a
// collision is reported as models.ErrInvalidOperation before any write.
type LanguageRepository struct {
	*Repository[*models.Language]
}

// NewLanguageRepository creates the language repository.
func NewLanguageRepository() *LanguageRepository {
	r := &LanguageRepository{}
	r.Repository = newRepository[*models.Language](r, regionLanguage,
		func() *models.Language { return &models.Language{} })
	return r
}

var languageFields = query.FieldMap{
	"id":                 "languages.id",
	"key":                "languages.unique_id",
	"isoCode":            "languages.iso_code",
	"cultureName":        "languages.culture_name",
	"isDefault":          "languages.is_default",
	"isMandatory":        "languages.is_mandatory",
	"fallbackLanguageId": "languages.fallback_language_id",
}

func (r *LanguageRepository) name() string           { return "language" }
func (r *LanguageRepository) fields() query.FieldMap { return languageFields }
func (r *LanguageRepository) idColumn() string       { return "languages.id" }
func (r *LanguageRepository) keyColumn() string      { return "languages.unique_id" }

func (r *LanguageRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.LanguageDTO{})
}

func (r *LanguageRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Language, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.LanguageDTO
	if err := db.Order("languages.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Language, len(rows))
	for i, row := range rows {
		l := &models.Language{
			IsoCode:            row.IsoCode,
			CultureName:        row.CultureName,
			IsDefault:          row.IsDefault,
			IsMandatory:        row.IsMandatory,
			FallbackLanguageID: intOrZero(row.FallbackLanguageID),
		}
		l.ID = row.ID
		l.Key = parseKey(row.UniqueID)
		l.CreateDate = row.CreateDate
		l.UpdateDate = row.UpdateDate
		out[i] = l
	}
	return out, nil
}

func languageRow(l *models.Language) *dto.LanguageDTO {
	return &dto.LanguageDTO{
		ID:                 l.ID,
		UniqueID:           keyString(l.Key),
		IsoCode:            l.IsoCode,
		CultureName:        l.CultureName,
		IsDefault:          l.IsDefault,
		IsMandatory:        l.IsMandatory,
		FallbackLanguageID: nullInt(l.FallbackLanguageID),
		CreateDate:         l.CreateDate,
		UpdateDate:         l.UpdateDate,
	}
}

// validate runs the pre-write checks shared by insert and update.
func (r *LanguageRepository) validate(s *scope.Scope, l *models.Language) error {
	if strings.TrimSpace(l.IsoCode) == "" {
		return invalid("language iso code is required")
	}
	var clash int64
	if err := s.DB().Model(&dto.LanguageDTO{}).
		Where("LOWER(iso_code) = ? AND id <> ?", strings.ToLower(l.IsoCode), l.ID).
		Count(&clash).Error; err != nil {
		return err
	}
	if clash > 0 {
		return invalid("iso code %q is already used by another language", l.IsoCode)
	}
	return r.checkFallback(s, l)
}

// checkFallback rejects fallback chains that loop back to l.
func (r *LanguageRepository) checkFallback(s *scope.Scope, l *models.Language) error {
	next := l.FallbackLanguageID
	seen := map[int]bool{}
	for next != 0 {
		if l.ID != 0 && next == l.ID {
			return invalid("language %q cannot fall back to itself", l.IsoCode)
		}
		if seen[next] {
			return nil
		}
		seen[next] = true

		var rows []dto.LanguageDTO
		if err := s.DB().Select("id", "fallback_language_id").Where("id = ?", next).Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("fallback language %d: %w", next, models.ErrNotFound)
		}
		next = intOrZero(rows[0].FallbackLanguageID)
	}
	return nil
}

// claimDefault clears the default flag of every other language.
func (r *LanguageRepository) claimDefault(s *scope.Scope, l *models.Language) error {
	if !l.IsDefault {
		return nil
	}
	res := s.DB().Model(&dto.LanguageDTO{}).Where("is_default = ? AND id <> ?", true, l.ID).Update("is_default", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		r.ClearCache(s)
	}
	return nil
}

func (r *LanguageRepository) insert(s *scope.Scope, l *models.Language) error {
	if err := r.validate(s, l); err != nil {
		return err
	}
	if !l.IsDefault {
		var n int64
		if err := s.DB().Model(&dto.LanguageDTO{}).Count(&n).Error; err != nil {
			return err
		}
		l.IsDefault = n == 0
	}
	row := languageRow(l)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	l.ID = row.ID
	return r.claimDefault(s, l)
}

func (r *LanguageRepository) update(s *scope.Scope, l *models.Language) error {
	if err := r.validate(s, l); err != nil {
		return err
	}
	wasDefault, ok, err := pluckFirst[bool](s.DB().Model(&dto.LanguageDTO{}).Where("id = ?", l.ID), "is_default")
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotFound
	}
	if wasDefault && !l.IsDefault {
		return invalid("language %q is the default; make another language the default instead", l.IsoCode)
	}
	if err := updateRow(s.DB(), languageRow(l)); err != nil {
		return err
	}
	return r.claimDefault(s, l)
}

// remove deletes the language and every value stored for it. Languages
// falling back to it lose their fallback and domains bound to it lose
// their culture.
func (r *LanguageRepository) remove(s *scope.Scope, l *models.Language) error {
	db := s.DB()
	var row dto.LanguageDTO
	if err := db.First(&row, l.ID).Error; err != nil {
		return notFound(err)
	}
	if row.IsDefault {
		return invalid("language %q is the default and cannot be deleted", row.IsoCode)
	}

	if err := db.Model(&dto.LanguageDTO{}).Where("fallback_language_id = ?", l.ID).
		Update("fallback_language_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&dto.DomainDTO{}).Where("language_id = ?", l.ID).
		Update("language_id", nil).Error; err != nil {
		return err
	}

	tags := db.Model(&dto.TagDTO{}).Select("id").Where("language_id = ?", l.ID)
	steps := []struct {
		model any
		where string
		arg   any
	}{
		{&dto.ContentVersionCultureVariationDTO{}, "language_id = ?", l.ID},
		{&dto.PropertyDataDTO{}, "language_id = ?", l.ID},
		{&dto.TagRelationshipDTO{}, "tag_id IN (?)", tags},
		{&dto.TagDTO{}, "language_id = ?", l.ID},
		{&dto.LanguageTextDTO{}, "language_id = ?", l.ID},
	}
	for _, step := range steps {
		if err := db.Where(step.where, step.arg).Delete(step.model).Error; err != nil {
			return err
		}
	}
	if err := db.Delete(&dto.LanguageDTO{}, l.ID).Error; err != nil {
		return err
	}

	ctx, b := s.Context(), s.Cache()
	r.ClearCache(s)
	for _, region := range []string{regionDomain, regionDictionary, regionTag} {
		cache.ClearRegion(ctx, b, region)
	}
	for _, t := range models.AllObjectTypes() {
		if t.IsContent() {
			cache.ClearRegion(ctx, b, nodeRegion(t))
		}
	}
	return nil
}

// GetByIsoCode returns the language with the given iso code, ignoring
// case, or nil.
func (r *LanguageRepository) GetByIsoCode(s *scope.Scope, isoCode string) (*models.Language, error) {
	id, ok, err := pluckFirst[int](s.DB().Model(&dto.LanguageDTO{}).
		Where("LOWER(iso_code) = ?", strings.ToLower(isoCode)), "id")
	if err != nil || !ok {
		return nil, err
	}
	return r.Get(s, id)
}

// GetIsoCodeByID returns the iso code of a language, or "".
func (r *LanguageRepository) GetIsoCodeByID(s *scope.Scope, id int) (string, error) {
	l, err := r.Get(s, id)
	if err != nil || l == nil {
		return "", err
	}
	return l.IsoCode, nil
}

// GetIDByIsoCode returns the id of a language, or 0.
func (r *LanguageRepository) GetIDByIsoCode(s *scope.Scope, isoCode string) (int, error) {
	l, err := r.GetByIsoCode(s, isoCode)
	if err != nil || l == nil {
		return 0, err
	}
	return l.ID, nil
}

// GetDefault returns the default language. When no language is flagged as
// default the first created one is returned. Nil means no languages.
func (r *LanguageRepository) GetDefault(s *scope.Scope) (l *models.Language, err error) {
	defer observe(s, r.name(), "get_default", time.Now(), &err)

	var ids []int
	if err := s.DB().Model(&dto.LanguageDTO{}).Order("is_default DESC, id").Limit(1).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Get(s, ids[0])
}

// GetDefaultID returns the id of the default language, or 0.
func (r *LanguageRepository) GetDefaultID(s *scope.Scope) (int, error) {
	l, err := r.GetDefault(s)
	if err != nil || l == nil {
		return 0, err
	}
	return l.ID, nil
}

// GetDefaultIsoCode returns the iso code of the default language, or "".
func (r *LanguageRepository) GetDefaultIsoCode(s *scope.Scope) (string, error) {
	l, err := r.GetDefault(s)
	if err != nil || l == nil {
		return "", err
	}
	return l.IsoCode, nil
}
