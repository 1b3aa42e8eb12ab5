package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// TagRepository stores tags and their assignments to entity properties.
//
// A tag is identified by (group, text, language) and shared by every
// property that references it. Assignments are plain rows of
// (node, property type, tag).
type TagRepository struct {
	*Repository[*models.Tag]
}

// NewTagRepository creates the tag repository.
func NewTagRepository() *TagRepository {
	r := &TagRepository{}
	r.Repository = newRepository[*models.Tag](r, regionTag, func() *models.Tag { return &models.Tag{} })
	return r
}

var tagFields = query.FieldMap{
	"id":         "tags.id",
	"key":        "tags.unique_id",
	"group":      "tags.tag_group",
	"text":       "tags.tag",
	"languageId": "tags.language_id",
}

func (r *TagRepository) name() string           { return "tag" }
func (r *TagRepository) fields() query.FieldMap { return tagFields }
func (r *TagRepository) idColumn() string       { return "tags.id" }
func (r *TagRepository) keyColumn() string      { return "tags.unique_id" }

func (r *TagRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.TagDTO{})
}

func (r *TagRepository) load(s *scope.Scope, where clause.Expression) ([]*models.Tag, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.TagDTO
	if err := db.Order("tags.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return tagsFromRows(rows), nil
}

func tagFromRow(row *dto.TagDTO) *models.Tag {
	t := &models.Tag{Group: row.Group, Text: row.Text, LanguageID: intOrZero(row.LanguageID)}
	t.ID = row.ID
	t.Key = parseKey(row.UniqueID)
	t.CreateDate = row.CreateDate
	t.UpdateDate = row.UpdateDate
	return t
}

func tagsFromRows(rows []dto.TagDTO) []*models.Tag {
	out := make([]*models.Tag, len(rows))
	for i := range rows {
		out[i] = tagFromRow(&rows[i])
	}
	return out
}

func tagRow(t *models.Tag) *dto.TagDTO {
	return &dto.TagDTO{
		ID:         t.ID,
		UniqueID:   keyString(t.Key),
		Group:      t.Group,
		Text:       t.Text,
		LanguageID: nullInt(t.LanguageID),
		CreateDate: t.CreateDate,
		UpdateDate: t.UpdateDate,
	}
}

func (r *TagRepository) insert(s *scope.Scope, t *models.Tag) error {
	if t.Group == "" || t.Text == "" {
		return invalid("tag group and text are required")
	}
	row := tagRow(t)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

func (r *TagRepository) update(s *scope.Scope, t *models.Tag) error {
	return updateRow(s.DB(), tagRow(t))
}

func (r *TagRepository) remove(s *scope.Scope, t *models.Tag) error {
	if err := s.DB().Where("tag_id = ?", t.ID).Delete(&dto.TagRelationshipDTO{}).Error; err != nil {
		return err
	}
	res := s.DB().Delete(&dto.TagDTO{}, t.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// resolve returns the stored id of every tag, creating missing tags.
// Duplicates in tags resolve to the same id.
func (r *TagRepository) resolve(s *scope.Scope, tags []*models.Tag) ([]int, error) {
	db := s.DB()
	ids := make([]int, 0, len(tags))
	for _, t := range tags {
		if t.Group == "" || t.Text == "" {
			return nil, invalid("tag group and text are required")
		}
		var row dto.TagDTO
		res := db.Where(clause.Eq{Column: "tag_group", Value: t.Group}).
			Where(clause.Eq{Column: "tag", Value: t.Text}).
			Where(languageCond(t.LanguageID)).
			Limit(1).Find(&row)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			ts := now()
			row = dto.TagDTO{
				UniqueID:   keyString(ensureKey(t.Key)),
				Group:      t.Group,
				Text:       t.Text,
				LanguageID: nullInt(t.LanguageID),
				CreateDate: ts,
				UpdateDate: ts,
			}
			if err := db.Create(&row).Error; err != nil {
				return nil, err
			}
			debug(s, "tag created", logger.KeyEntityID, row.ID, "group", row.Group, "text", row.Text)
		}
		t.ID = row.ID
		t.Key = parseKey(row.UniqueID)
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Assign associates tags with the property of an entity. With replace the
// property ends up tagged with exactly tags; associations that are kept
// are not rewritten. Without replace tags are added to the existing set.
func (r *TagRepository) Assign(s *scope.Scope, entityID, propertyTypeID int, tags []*models.Tag, replace bool) (err error) {
	defer observe(s, r.name(), "assign", time.Now(), &err)

	return s.DB().Transaction(func(*gorm.DB) error {
		db := s.DB()
		ids, err := r.resolve(s, tags)
		if err != nil {
			return err
		}

		scoped := db.Where("node_id = ? AND property_type_id = ?", entityID, propertyTypeID)
		if replace {
			if len(ids) == 0 {
				return scoped.Delete(&dto.TagRelationshipDTO{}).Error
			}
			if err := scoped.Where("tag_id NOT IN ?", ids).Delete(&dto.TagRelationshipDTO{}).Error; err != nil {
				return err
			}
		}
		if len(ids) == 0 {
			return nil
		}

		seen := make(map[int]bool, len(ids))
		rows := make([]dto.TagRelationshipDTO, 0, len(ids))
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				rows = append(rows, dto.TagRelationshipDTO{NodeID: entityID, TagID: id, PropertyTypeID: propertyTypeID})
			}
		}
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// Remove disassociates tags from the property of an entity. Tags that are
// not stored or not assigned are ignored.
func (r *TagRepository) Remove(s *scope.Scope, entityID, propertyTypeID int, tags []*models.Tag) (err error) {
	defer observe(s, r.name(), "remove", time.Now(), &err)

	db := s.DB()
	for _, t := range tags {
		sub := db.Model(&dto.TagDTO{}).Select("id").
			Where(clause.Eq{Column: "tag_group", Value: t.Group}).
			Where(clause.Eq{Column: "tag", Value: t.Text}).
			Where(languageCond(t.LanguageID))
		if err := db.Where("node_id = ? AND property_type_id = ? AND tag_id IN (?)", entityID, propertyTypeID, sub).
			Delete(&dto.TagRelationshipDTO{}).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveAll disassociates every tag from the property of an entity. A zero
// propertyTypeID clears every property of the entity.
func (r *TagRepository) RemoveAll(s *scope.Scope, entityID, propertyTypeID int) error {
	db := s.DB().Where("node_id = ?", entityID)
	if propertyTypeID != 0 {
		db = db.Where("property_type_id = ?", propertyTypeID)
	}
	return db.Delete(&dto.TagRelationshipDTO{}).Error
}

// assigned selects the distinct tags of tag_relationships rows.
func (r *TagRepository) assigned(s *scope.Scope, group string) *gorm.DB {
	db := s.DB().Model(&dto.TagDTO{}).Distinct("tags.*").
		Joins("JOIN tag_relationships ON tag_relationships.tag_id = tags.id")
	if group != "" {
		db = db.Where("tags.tag_group = ?", group)
	}
	return db
}

func (r *TagRepository) find(db *gorm.DB) ([]*models.Tag, error) {
	var rows []dto.TagDTO
	if err := db.Order("tags.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return tagsFromRows(rows), nil
}

// GetTagsForEntity returns the tags assigned to any property of the entity,
// optionally restricted to one group.
func (r *TagRepository) GetTagsForEntity(s *scope.Scope, entityID int, group string) ([]*models.Tag, error) {
	return r.find(r.assigned(s, group).Where("tag_relationships.node_id = ?", entityID))
}

// GetTagsForEntityByKey is GetTagsForEntity by entity key.
func (r *TagRepository) GetTagsForEntityByKey(s *scope.Scope, key uuid.UUID, group string) ([]*models.Tag, error) {
	return r.find(r.assigned(s, group).
		Joins("JOIN nodes ON nodes.id = tag_relationships.node_id").
		Where("nodes.unique_id = ?", keyString(key)))
}

// GetTagsForProperty returns the tags assigned to one property of the
// entity, optionally restricted to one group.
func (r *TagRepository) GetTagsForProperty(s *scope.Scope, entityID int, propertyAlias, group string) ([]*models.Tag, error) {
	return r.find(r.assigned(s, group).
		Joins("JOIN property_types ON property_types.id = tag_relationships.property_type_id").
		Where("tag_relationships.node_id = ? AND property_types.alias = ?", entityID, propertyAlias))
}

// GetTagsForPropertyByKey is GetTagsForProperty by entity key.
func (r *TagRepository) GetTagsForPropertyByKey(s *scope.Scope, key uuid.UUID, propertyAlias, group string) ([]*models.Tag, error) {
	return r.find(r.assigned(s, group).
		Joins("JOIN property_types ON property_types.id = tag_relationships.property_type_id").
		Joins("JOIN nodes ON nodes.id = tag_relationships.node_id").
		Where("nodes.unique_id = ? AND property_types.alias = ?", keyString(key), propertyAlias))
}

// GetTagsForEntityType returns every tag used by entities of the given
// family, each with the number of distinct entities of that family using it.
func (r *TagRepository) GetTagsForEntityType(s *scope.Scope, objectType models.TaggableObjectType, group string) (tags []*models.Tag, err error) {
	defer observe(s, r.name(), "tags_for_type", time.Now(), &err)

	db := s.DB().Model(&dto.TagDTO{}).
		Select("tags.*, COUNT(DISTINCT tag_relationships.node_id) AS node_count").
		Joins("JOIN tag_relationships ON tag_relationships.tag_id = tags.id").
		Joins("JOIN nodes ON nodes.id = tag_relationships.node_id").
		Where("nodes.node_object_type IN ?", objectTypeStrings(objectType.ObjectTypes()))
	if group != "" {
		db = db.Where("tags.tag_group = ?", group)
	}

	var rows []struct {
		dto.TagDTO
		NodeCount int
	}
	if err := db.Group("tags.id").Order("tags.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	tags = make([]*models.Tag, len(rows))
	for i := range rows {
		tags[i] = tagFromRow(&rows[i].TagDTO)
		tags[i].NodeCount = rows[i].NodeCount
	}
	return tags, nil
}

// languageCond matches a nullable language_id column; zero matches NULL.
func languageCond(languageID int) clause.Expression {
	if languageID == 0 {
		return clause.Expr{SQL: "language_id IS NULL"}
	}
	return clause.Eq{Column: "language_id", Value: languageID}
}

func objectTypeStrings(types []models.ObjectType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

type taggedRow struct {
	dto.TagDTO
	NodeID         int
	PropertyTypeID int
	PropertyAlias  string
}

func (r *TagRepository) tagged(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.TagRelationshipDTO{}).
		Select("tags.*, tag_relationships.node_id, tag_relationships.property_type_id, property_types.alias AS property_alias").
		Joins("JOIN tags ON tags.id = tag_relationships.tag_id").
		Joins("JOIN property_types ON property_types.id = tag_relationships.property_type_id").
		Joins("JOIN nodes ON nodes.id = tag_relationships.node_id")
}

func (r *TagRepository) scanTagged(db *gorm.DB) ([]taggedRow, error) {
	var rows []taggedRow
	err := db.Order("tag_relationships.node_id, property_types.sort_order, tag_relationships.property_type_id, tags.id").
		Scan(&rows).Error
	return rows, err
}

// groupTagged folds rows ordered by node and property into entities.
func groupTagged(rows []taggedRow) []*models.TaggedEntity {
	var out []*models.TaggedEntity
	var entity *models.TaggedEntity
	var prop *models.TaggedProperty
	for i := range rows {
		row := &rows[i]
		if entity == nil || entity.EntityID != row.NodeID {
			entity = &models.TaggedEntity{EntityID: row.NodeID}
			out = append(out, entity)
			prop = nil
		}
		if prop == nil || prop.PropertyTypeID != row.PropertyTypeID {
			prop = &models.TaggedProperty{PropertyTypeID: row.PropertyTypeID, PropertyTypeAlias: row.PropertyAlias}
			entity.TaggedProperties = append(entity.TaggedProperties, prop)
		}
		prop.Tags = append(prop.Tags, tagFromRow(&row.TagDTO))
	}
	return out
}

// GetTaggedEntitiesByTagGroup returns the entities of the given family that
// carry tags of group, each with the properties and tags that matched.
func (r *TagRepository) GetTaggedEntitiesByTagGroup(s *scope.Scope, objectType models.TaggableObjectType, group string) ([]*models.TaggedEntity, error) {
	rows, err := r.scanTagged(r.tagged(s).
		Where("nodes.node_object_type IN ?", objectTypeStrings(objectType.ObjectTypes())).
		Where("tags.tag_group = ?", group))
	if err != nil {
		return nil, err
	}
	return groupTagged(rows), nil
}

// GetTaggedEntitiesByTag returns the entities of the given family tagged
// with text, optionally restricted to one group.
func (r *TagRepository) GetTaggedEntitiesByTag(s *scope.Scope, objectType models.TaggableObjectType, text, group string) ([]*models.TaggedEntity, error) {
	db := r.tagged(s).
		Where("nodes.node_object_type IN ?", objectTypeStrings(objectType.ObjectTypes())).
		Where("tags.tag = ?", text)
	if group != "" {
		db = db.Where("tags.tag_group = ?", group)
	}
	rows, err := r.scanTagged(db)
	if err != nil {
		return nil, err
	}
	return groupTagged(rows), nil
}

// GetTaggedProperties returns the tagged properties of one entity.
func (r *TagRepository) GetTaggedProperties(s *scope.Scope, entityID int) ([]*models.TaggedProperty, error) {
	rows, err := r.scanTagged(r.tagged(s).Where("tag_relationships.node_id = ?", entityID))
	if err != nil {
		return nil, err
	}
	entities := groupTagged(rows)
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0].TaggedProperties, nil
}
