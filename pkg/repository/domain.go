package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// DomainRepository stores host name bindings. Domain names are unique;
// a duplicate fails with the database's uniqueness error.
type DomainRepository struct {
	*Repository[*models.Domain]
}

// NewDomainRepository creates the domain repository.
func NewDomainRepository() *DomainRepository {
	r := &DomainRepository{}
	r.Repository = newRepository[*models.Domain](r, regionDomain, func() *models.Domain { return &models.Domain{} })
	return r
}

var domainFields = query.FieldMap{
	"id":            "domains.id",
	"key":           "domains.unique_id",
	"domainName":    "domains.domain_name",
	"rootContentId": "domains.root_content_id",
	"languageId":    "domains.language_id",
	"sortOrder":     "domains.sort_order",
}

func (r *DomainRepository) name() string           { return "domain" }
func (r *DomainRepository) fields() query.FieldMap { return domainFields }
func (r *DomainRepository) idColumn() string       { return "domains.id" }
func (r *DomainRepository) keyColumn() string      { return "domains.unique_id" }

func (r *DomainRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.DomainDTO{})
}

func (r *DomainRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Domain, error) {
	db := r.baseQuery(s).
		Select("domains.*, languages.iso_code").
		Joins("LEFT JOIN languages ON languages.id = domains.language_id")
	if where != nil {
		db = db.Where(where)
	}
	var rows []struct {
		dto.DomainDTO
		IsoCode *string
	}
	if err := db.Order("domains.sort_order, domains.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Domain, len(rows))
	for i, row := range rows {
		d := &models.Domain{
			DomainName:      row.DomainName,
			RootContentID:   intOrZero(row.RootContentID),
			LanguageID:      intOrZero(row.LanguageID),
			LanguageIsoCode: stringOrEmpty(row.IsoCode),
			SortOrder:       row.SortOrder,
		}
		d.ID = row.ID
		d.Key = parseKey(row.UniqueID)
		d.CreateDate = row.CreateDate
		d.UpdateDate = row.UpdateDate
		out[i] = d
	}
	return out, nil
}

func domainRow(d *models.Domain) *dto.DomainDTO {
	return &dto.DomainDTO{
		ID:            d.ID,
		UniqueID:      keyString(d.Key),
		DomainName:    d.DomainName,
		RootContentID: nullInt(d.RootContentID),
		LanguageID:    nullInt(d.LanguageID),
		SortOrder:     d.SortOrder,
		CreateDate:    d.CreateDate,
		UpdateDate:    d.UpdateDate,
	}
}

func (r *DomainRepository) insert(s *scope.Scope, d *models.Domain) error {
	row := domainRow(d)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	d.ID = row.ID
	return r.resolveIsoCode(s, d)
}

func (r *DomainRepository) update(s *scope.Scope, d *models.Domain) error {
	if err := updateRow(s.DB(), domainRow(d)); err != nil {
		return err
	}
	return r.resolveIsoCode(s, d)
}

func (r *DomainRepository) resolveIsoCode(s *scope.Scope, d *models.Domain) error {
	d.LanguageIsoCode = ""
	if d.LanguageID == 0 {
		return nil
	}
	iso, _, err := pluckFirst[string](s.DB().Model(&dto.LanguageDTO{}).Where("id = ?", d.LanguageID), "iso_code")
	d.LanguageIsoCode = iso
	return err
}

func (r *DomainRepository) remove(s *scope.Scope, d *models.Domain) error {
	res := s.DB().Delete(&dto.DomainDTO{}, d.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// idByName finds a domain by name ignoring case and surrounding blanks.
func (r *DomainRepository) idByName(s *scope.Scope, name string) (int, error) {
	id, _, err := pluckFirst[int](s.DB().Model(&dto.DomainDTO{}).
		Where("LOWER(domain_name) = ?", normalizeDomainName(name)), "id")
	return id, err
}

// GetByName returns the domain with the given name, or nil.
func (r *DomainRepository) GetByName(s *scope.Scope, name string) (*models.Domain, error) {
	id, err := r.idByName(s, name)
	if err != nil || id == 0 {
		return nil, err
	}
	return r.Get(s, id)
}

// ExistsByName reports whether a domain with the given name exists.
func (r *DomainRepository) ExistsByName(s *scope.Scope, name string) (bool, error) {
	id, err := r.idByName(s, name)
	return id != 0, err
}

// GetAllDomains returns every domain, leaving out wildcard bindings unless
// includeWildcards is set.
func (r *DomainRepository) GetAllDomains(s *scope.Scope, includeWildcards bool) ([]*models.Domain, error) {
	items, err := r.GetAll(s)
	if err != nil {
		return nil, err
	}
	return filterWildcards(items, includeWildcards), nil
}

// GetAssignedDomains returns the domains bound to a content node ordered by
// sort order.
func (r *DomainRepository) GetAssignedDomains(s *scope.Scope, contentID int, includeWildcards bool) ([]*models.Domain, error) {
	items, err := r.QueryOrdered(s, query.New().Where(query.Eq("rootContentId", contentID)), query.OrderBy("sortOrder"))
	if err != nil {
		return nil, err
	}
	return filterWildcards(items, includeWildcards), nil
}

func filterWildcards(items []*models.Domain, include bool) []*models.Domain {
	if include {
		return items
	}
	out := items[:0:0]
	for _, d := range items {
		if !d.IsWildcard() {
			out = append(out, d)
		}
	}
	return out
}

// normalizeDomainName lowercases host names for comparison.
func normalizeDomainName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
