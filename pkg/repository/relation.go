package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// RelationRepository stores typed edges between nodes.
type RelationRepository struct {
	*Repository[*models.Relation]
}

// NewRelationRepository creates the relation repository.
func NewRelationRepository() *RelationRepository {
	r := &RelationRepository{}
	r.Repository = newRepository[*models.Relation](r, regionRelation,
		func() *models.Relation { return &models.Relation{} })
	return r
}

var relationFields = query.FieldMap{
	"id":                "relations.id",
	"key":               "relations.unique_id",
	"parentId":          "relations.parent_id",
	"childId":           "relations.child_id",
	"relationTypeId":    "relations.relation_type",
	"relationTypeAlias": "relation_types.alias",
	"datetime":          "relations.datetime",
	"comment":           "relations.comment",
}

func (r *RelationRepository) name() string           { return "relation" }
func (r *RelationRepository) fields() query.FieldMap { return relationFields }
func (r *RelationRepository) idColumn() string       { return "relations.id" }
func (r *RelationRepository) keyColumn() string      { return "relations.unique_id" }

func (r *RelationRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.RelationDTO{}).
		Joins("JOIN relation_types ON relation_types.id = relations.relation_type")
}

func (r *RelationRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Relation, error) {
	db := r.baseQuery(s).Select("relations.*")
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.RelationDTO
	if err := db.Order("relations.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Relation, len(rows))
	for i, row := range rows {
		rel := &models.Relation{
			ParentID:       row.ParentID,
			ChildID:        row.ChildID,
			RelationTypeID: row.RelationType,
			Comment:        row.Comment,
			Datetime:       row.Datetime,
		}
		rel.ID = row.ID
		rel.Key = parseKey(row.UniqueID)
		rel.CreateDate = row.Datetime
		rel.UpdateDate = row.Datetime
		out[i] = rel
	}
	return out, nil
}

func relationRow(rel *models.Relation) *dto.RelationDTO {
	return &dto.RelationDTO{
		ID:           rel.ID,
		UniqueID:     keyString(rel.Key),
		ParentID:     rel.ParentID,
		ChildID:      rel.ChildID,
		RelationType: rel.RelationTypeID,
		Datetime:     rel.Datetime,
		Comment:      rel.Comment,
	}
}

func (r *RelationRepository) insert(s *scope.Scope, rel *models.Relation) error {
	if rel.RelationTypeID == 0 {
		return invalid("relation type is required")
	}
	if rel.Datetime.IsZero() {
		rel.Datetime = rel.CreateDate
	}
	row := relationRow(rel)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	rel.ID = row.ID
	return nil
}

func (r *RelationRepository) update(s *scope.Scope, rel *models.Relation) error {
	return updateRow(s.DB(), relationRow(rel))
}

func (r *RelationRepository) remove(s *scope.Scope, rel *models.Relation) error {
	res := s.DB().Delete(&dto.RelationDTO{}, rel.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByParentID returns the relations from parentID, optionally restricted
// to relation types with the given aliases.
func (r *RelationRepository) GetByParentID(s *scope.Scope, parentID int, relationTypeAliases ...string) ([]*models.Relation, error) {
	return r.Query(s, byEndpoint("parentId", parentID, relationTypeAliases))
}

// GetByChildID returns the relations to childID, optionally restricted to
// relation types with the given aliases.
func (r *RelationRepository) GetByChildID(s *scope.Scope, childID int, relationTypeAliases ...string) ([]*models.Relation, error) {
	return r.Query(s, byEndpoint("childId", childID, relationTypeAliases))
}

func byEndpoint(field string, id int, aliases []string) *query.Query {
	q := query.New().Where(query.Eq(field, id))
	if len(aliases) > 0 {
		q.Where(query.In("relationTypeAlias", aliases))
	}
	return q
}

// DeleteByParent deletes the relations from parentID, optionally restricted
// to relation types with the given aliases.
func (r *RelationRepository) DeleteByParent(s *scope.Scope, parentID int, relationTypeAliases ...string) (deleted int64, err error) {
	defer observe(s, r.name(), "delete_by_parent", time.Now(), &err)

	db := s.DB().Where("parent_id = ?", parentID)
	if len(relationTypeAliases) > 0 {
		db = db.Where("relation_type IN (?)",
			s.DB().Model(&dto.RelationTypeDTO{}).Select("id").Where("alias IN ?", relationTypeAliases))
	}
	res := db.Delete(&dto.RelationDTO{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.ClearCache(s)
	}
	return res.RowsAffected, nil
}

// GetPagedParentEntitiesByChildID returns one page of the distinct nodes
// related to childID as parents, across every relation type unless
// relationTypeIDs narrows them and of any kind unless objectTypes does.
func (r *RelationRepository) GetPagedParentEntitiesByChildID(s *scope.Scope, childID, pageIndex, pageSize int, relationTypeIDs []int, objectTypes ...models.ObjectType) ([]*models.EntitySlim, int64, error) {
	return r.pagedEntities(s, "parent_id", "child_id", childID, pageIndex, pageSize, relationTypeIDs, objectTypes)
}

// GetPagedChildEntitiesByParentID returns one page of the distinct nodes
// related to parentID as children.
func (r *RelationRepository) GetPagedChildEntitiesByParentID(s *scope.Scope, parentID, pageIndex, pageSize int, relationTypeIDs []int, objectTypes ...models.ObjectType) ([]*models.EntitySlim, int64, error) {
	return r.pagedEntities(s, "child_id", "parent_id", parentID, pageIndex, pageSize, relationTypeIDs, objectTypes)
}

func (r *RelationRepository) pagedEntities(s *scope.Scope, selectCol, matchCol string, id, pageIndex, pageSize int, relationTypeIDs []int, objectTypes []models.ObjectType) (items []*models.EntitySlim, total int64, err error) {
	defer observe(s, r.name(), "paged_entities", time.Now(), &err)

	if pageIndex < 0 || pageSize <= 0 {
		return nil, 0, invalid("page %d of size %d", pageIndex, pageSize)
	}
	build := func() *gorm.DB {
		related := s.DB().Model(&dto.RelationDTO{}).Select(selectCol).Where(matchCol+" = ?", id)
		if len(relationTypeIDs) > 0 {
			related = related.Where("relation_type IN ?", relationTypeIDs)
		}
		db := s.DB().Model(&dto.NodeDTO{}).Where("nodes.id IN (?)", related)
		if len(objectTypes) > 0 {
			db = db.Where("nodes.node_object_type IN ?", objectTypeStrings(objectTypes))
		}
		return db
	}

	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(pageIndex*pageSize) >= total {
		return []*models.EntitySlim{}, total, nil
	}

	var rows []dto.NodeDTO
	if err := build().Order("nodes.id").Offset(pageIndex * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items = make([]*models.EntitySlim, len(rows))
	for i := range rows {
		e := &models.EntitySlim{ObjectType: models.ObjectType(rows[i].NodeObjectType)}
		applyNode(&e.TreeEntityBase, &rows[i])
		items[i] = e
	}
	return items, total, nil
}
