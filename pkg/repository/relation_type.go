package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// RelationTypeRepository stores relation types. Aliases and names are
// unique; duplicates fail with the database's uniqueness error.
type RelationTypeRepository struct {
	*Repository[*models.RelationType]
}

// NewRelationTypeRepository creates the relation type repository.
func NewRelationTypeRepository() *RelationTypeRepository {
	r := &RelationTypeRepository{}
	r.Repository = newRepository[*models.RelationType](r, regionRelationType,
		func() *models.RelationType { return &models.RelationType{} })
	return r
}

var relationTypeFields = query.FieldMap{
	"id":               "relation_types.id",
	"key":              "relation_types.unique_id",
	"name":             "relation_types.name",
	"alias":            "relation_types.alias",
	"isBidirectional":  "relation_types.dual",
	"isDependency":     "relation_types.is_dependency",
	"parentObjectType": "relation_types.parent_object_type",
	"childObjectType":  "relation_types.child_object_type",
}

func (r *RelationTypeRepository) name() string           { return "relation-type" }
func (r *RelationTypeRepository) fields() query.FieldMap { return relationTypeFields }
func (r *RelationTypeRepository) idColumn() string       { return "relation_types.id" }
func (r *RelationTypeRepository) keyColumn() string      { return "relation_types.unique_id" }

func (r *RelationTypeRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.RelationTypeDTO{})
}

func (r *RelationTypeRepository) load(s *scope.Scope, where clause.Expression) ([]*models.RelationType, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.RelationTypeDTO
	if err := db.Order("relation_types.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.RelationType, len(rows))
	for i, row := range rows {
		rt := &models.RelationType{
			Name:             row.Name,
			Alias:            row.Alias,
			IsBidirectional:  row.Dual,
			IsDependency:     row.IsDependency,
			ParentObjectType: models.ObjectType(stringOrEmpty(row.ParentObjectType)),
			ChildObjectType:  models.ObjectType(stringOrEmpty(row.ChildObjectType)),
		}
		rt.ID = row.ID
		rt.Key = parseKey(row.UniqueID)
		out[i] = rt
	}
	return out, nil
}

func relationTypeRow(rt *models.RelationType) *dto.RelationTypeDTO {
	return &dto.RelationTypeDTO{
		ID:               rt.ID,
		UniqueID:         keyString(rt.Key),
		Dual:             rt.IsBidirectional,
		ParentObjectType: nullString(string(rt.ParentObjectType)),
		ChildObjectType:  nullString(string(rt.ChildObjectType)),
		Name:             rt.Name,
		Alias:            rt.Alias,
		IsDependency:     rt.IsDependency,
	}
}

func (r *RelationTypeRepository) insert(s *scope.Scope, rt *models.RelationType) error {
	if rt.Alias == "" {
		return invalid("relation type alias is required")
	}
	if rt.Name == "" {
		rt.Name = rt.Alias
	}
	row := relationTypeRow(rt)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	rt.ID = row.ID
	return nil
}

func (r *RelationTypeRepository) update(s *scope.Scope, rt *models.RelationType) error {
	return updateRow(s.DB(), relationTypeRow(rt))
}

func (r *RelationTypeRepository) remove(s *scope.Scope, rt *models.RelationType) error {
	res := s.DB().Where("relation_type = ?", rt.ID).Delete(&dto.RelationDTO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		cache.ClearRegion(s.Context(), s.Cache(), regionRelation)
	}
	res = s.DB().Delete(&dto.RelationTypeDTO{}, rt.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByAlias returns the relation type with the given alias, or nil.
func (r *RelationTypeRepository) GetByAlias(s *scope.Scope, alias string) (*models.RelationType, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("alias", alias)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}
