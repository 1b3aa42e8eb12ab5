package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// ContentTypeRepository stores document, media or member types together with
// their property groups and property types.
type ContentTypeRepository struct {
	*Repository[*models.ContentType]
	objectType models.ObjectType
}

// NewContentTypeRepository creates the repository for one content-type kind.
func NewContentTypeRepository(objectType models.ObjectType) *ContentTypeRepository {
	r := &ContentTypeRepository{objectType: objectType}
	r.Repository = newRepository[*models.ContentType](r, nodeRegion(objectType),
		func() *models.ContentType { return &models.ContentType{} })
	return r
}

var contentTypeFields = query.FieldMap(withNodeFields(map[string]string{
	"alias":         "content_types.alias",
	"isElement":     "content_types.is_element",
	"allowedAsRoot": "content_types.allow_at_root",
	"variations":    "content_types.variations",
}))

func (r *ContentTypeRepository) name() string           { return string(r.objectType) }
func (r *ContentTypeRepository) fields() query.FieldMap { return contentTypeFields }
func (r *ContentTypeRepository) idColumn() string       { return "nodes.id" }
func (r *ContentTypeRepository) keyColumn() string      { return "nodes.unique_id" }

func (r *ContentTypeRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.NodeDTO{}).
		Joins("JOIN content_types ON content_types.node_id = nodes.id").
		Where("nodes.node_object_type = ?", string(r.objectType))
}

type contentTypeRow struct {
	dto.NodeDTO
	Alias       string
	Icon        string
	Description string
	IsElement   bool
	AllowAtRoot bool
	Variations  int
}

func (r *ContentTypeRepository) load(s *scope.Scope, where clause.Expression) ([]*models.ContentType, error) {
	db := r.baseQuery(s).Select("nodes.*, content_types.alias, content_types.icon, content_types.description, " +
		"content_types.is_element, content_types.allow_at_root, content_types.variations")
	if where != nil {
		db = db.Where(where)
	}
	var rows []contentTypeRow
	if err := db.Order("nodes.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int, len(rows))
	byID := make(map[int]*models.ContentType, len(rows))
	out := make([]*models.ContentType, len(rows))
	for i := range rows {
		row := &rows[i]
		ct := &models.ContentType{
			ObjectType:    r.objectType,
			Alias:         row.Alias,
			Icon:          row.Icon,
			Description:   row.Description,
			IsElement:     row.IsElement,
			AllowedAsRoot: row.AllowAtRoot,
			Variations:    models.ContentVariation(row.Variations),
		}
		applyNode(&ct.TreeEntityBase, &row.NodeDTO)
		ids[i] = row.ID
		byID[row.ID] = ct
		out[i] = ct
	}

	var groups []dto.PropertyTypeGroupDTO
	if err := s.DB().Where("content_type_node_id IN ?", ids).Order("sort_order, id").Find(&groups).Error; err != nil {
		return nil, err
	}
	groupAlias := make(map[int]string, len(groups))
	for _, g := range groups {
		groupAlias[g.ID] = g.Alias
		ct := byID[g.ContentTypeNodeID]
		ct.PropertyGroups = append(ct.PropertyGroups, &models.PropertyGroup{
			ID:        g.ID,
			Key:       parseKey(g.UniqueID),
			Alias:     g.Alias,
			Name:      g.Text,
			SortOrder: g.SortOrder,
		})
	}

	var types []dto.PropertyTypeDTO
	if err := s.DB().Where("content_type_id IN ?", ids).Order("sort_order, id").Find(&types).Error; err != nil {
		return nil, err
	}
	for i := range types {
		pt := &types[i]
		ct := byID[pt.ContentTypeID]
		ct.PropertyTypes = append(ct.PropertyTypes, propertyTypeFromRow(pt, groupAlias))
	}
	return out, nil
}

func propertyTypeFromRow(pt *dto.PropertyTypeDTO, groupAlias map[int]string) *models.PropertyType {
	m := &models.PropertyType{
		ID:           pt.ID,
		Key:          parseKey(pt.UniqueID),
		Alias:        pt.Alias,
		Name:         pt.Name,
		Description:  pt.Description,
		DataTypeID:   pt.DataTypeID,
		ValueStorage: models.ValueStorage(pt.ValueStorage),
		Mandatory:    pt.Mandatory,
		SortOrder:    pt.SortOrder,
		Variations:   models.ContentVariation(pt.Variations),
	}
	if pt.PropertyTypeGroupID != nil {
		m.GroupAlias = groupAlias[*pt.PropertyTypeGroupID]
	}
	return m
}

func (r *ContentTypeRepository) validate(ct *models.ContentType) error {
	if ct.ObjectType == "" {
		ct.ObjectType = r.objectType
	}
	if ct.ObjectType != r.objectType {
		return invalid("%s saved in %s repository", ct.ObjectType, r.objectType)
	}
	if ct.Alias == "" {
		return invalid("content type alias is required")
	}
	seen := make(map[string]bool, len(ct.PropertyTypes))
	for _, pt := range ct.PropertyTypes {
		if pt.Alias == "" {
			return invalid("property type alias is required")
		}
		if seen[pt.Alias] {
			return invalid("duplicate property type alias %q", pt.Alias)
		}
		seen[pt.Alias] = true
	}
	return nil
}

func (r *ContentTypeRepository) contentTypeRow(ct *models.ContentType) *dto.ContentTypeDTO {
	return &dto.ContentTypeDTO{
		NodeID:      ct.ID,
		Alias:       ct.Alias,
		Icon:        ct.Icon,
		Description: ct.Description,
		IsElement:   ct.IsElement,
		AllowAtRoot: ct.AllowedAsRoot,
		Variations:  int(ct.Variations),
	}
}

func (r *ContentTypeRepository) insert(s *scope.Scope, ct *models.ContentType) error {
	if err := r.validate(ct); err != nil {
		return err
	}
	if err := insertNode(s, &ct.TreeEntityBase, r.objectType); err != nil {
		return err
	}
	if err := s.DB().Create(r.contentTypeRow(ct)).Error; err != nil {
		return err
	}
	return r.reconcile(s, ct)
}

func (r *ContentTypeRepository) update(s *scope.Scope, ct *models.ContentType) error {
	if err := r.validate(ct); err != nil {
		return err
	}
	if _, err := updateNode(s, &ct.TreeEntityBase); err != nil {
		return err
	}
	if err := updateRow(s.DB(), r.contentTypeRow(ct)); err != nil {
		return err
	}
	if err := r.reconcile(s, ct); err != nil {
		return err
	}
	// Instances cache their content type alias and property shape.
	r.clearInstanceRegions(s)
	return nil
}

// reconcile diffs the stored property groups and types against ct and
// applies the added, updated and removed sets.
func (r *ContentTypeRepository) reconcile(s *scope.Scope, ct *models.ContentType) error {
	db := s.DB()

	var storedGroups []dto.PropertyTypeGroupDTO
	if err := db.Where("content_type_node_id = ?", ct.ID).Find(&storedGroups).Error; err != nil {
		return err
	}
	keepGroups := make(map[int]bool, len(ct.PropertyGroups))
	groupIDs := make(map[string]int, len(ct.PropertyGroups))
	for _, g := range ct.PropertyGroups {
		g.Key = ensureKey(g.Key)
		row := &dto.PropertyTypeGroupDTO{
			ID:                g.ID,
			UniqueID:          keyString(g.Key),
			ContentTypeNodeID: ct.ID,
			Alias:             g.Alias,
			Text:              g.Name,
			SortOrder:         g.SortOrder,
		}
		if g.ID == 0 || !containsGroup(storedGroups, g.ID) {
			row.ID = 0
			if err := db.Create(row).Error; err != nil {
				return err
			}
			g.ID = row.ID
		} else if err := updateRow(db, row); err != nil {
			return err
		}
		keepGroups[g.ID] = true
		groupIDs[g.Alias] = g.ID
	}
	var removedGroups []int
	for _, g := range storedGroups {
		if !keepGroups[g.ID] {
			removedGroups = append(removedGroups, g.ID)
		}
	}

	var storedTypes []dto.PropertyTypeDTO
	if err := db.Where("content_type_id = ?", ct.ID).Find(&storedTypes).Error; err != nil {
		return err
	}
	stored := make(map[int]bool, len(storedTypes))
	for _, pt := range storedTypes {
		stored[pt.ID] = true
	}

	keepTypes := make(map[int]bool, len(ct.PropertyTypes))
	for _, pt := range ct.PropertyTypes {
		pt.Key = ensureKey(pt.Key)
		if pt.ValueStorage == "" {
			pt.ValueStorage = models.StorageNvarchar
		}
		var groupID *int
		if pt.GroupAlias != "" {
			id, ok := groupIDs[pt.GroupAlias]
			if !ok {
				return invalid("property type %q references unknown group %q", pt.Alias, pt.GroupAlias)
			}
			groupID = &id
		}
		row := &dto.PropertyTypeDTO{
			ID:                  pt.ID,
			UniqueID:            keyString(pt.Key),
			ContentTypeID:       ct.ID,
			PropertyTypeGroupID: groupID,
			Alias:               pt.Alias,
			Name:                pt.Name,
			Description:         pt.Description,
			DataTypeID:          pt.DataTypeID,
			ValueStorage:        string(pt.ValueStorage),
			Mandatory:           pt.Mandatory,
			SortOrder:           pt.SortOrder,
			Variations:          int(pt.Variations),
		}
		if pt.ID == 0 || !stored[pt.ID] {
			row.ID = 0
			if err := db.Create(row).Error; err != nil {
				return err
			}
			pt.ID = row.ID
		} else if err := updateRow(db, row); err != nil {
			return err
		}
		keepTypes[pt.ID] = true
	}

	var removedTypes []int
	for _, pt := range storedTypes {
		if !keepTypes[pt.ID] {
			removedTypes = append(removedTypes, pt.ID)
		}
	}
	if len(removedTypes) > 0 {
		if err := deletePropertyTypes(db, removedTypes); err != nil {
			return err
		}
	}
	if len(removedGroups) > 0 {
		if err := db.Where("id IN ?", removedGroups).Delete(&dto.PropertyTypeGroupDTO{}).Error; err != nil {
			return err
		}
	}

	if len(removedTypes)+len(removedGroups) > 0 {
		debug(s, "content type reconciled", logger.KeyRepository, r.name(), logger.KeyEntityID, ct.ID,
			"removed_property_types", len(removedTypes), "removed_groups", len(removedGroups))
	}
	return nil
}

func containsGroup(groups []dto.PropertyTypeGroupDTO, id int) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// deletePropertyTypes removes property types with their values and tags.
func deletePropertyTypes(db *gorm.DB, ids []int) error {
	if err := db.Where("property_type_id IN ?", ids).Delete(&dto.PropertyDataDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("property_type_id IN ?", ids).Delete(&dto.TagRelationshipDTO{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&dto.PropertyTypeDTO{}).Error
}

func (r *ContentTypeRepository) remove(s *scope.Scope, ct *models.ContentType) error {
	db := s.DB()

	var contentIDs []int
	if err := db.Model(&dto.ContentDTO{}).Where("content_type_id = ?", ct.ID).Pluck("node_id", &contentIDs).Error; err != nil {
		return err
	}
	if len(contentIDs) > 0 {
		if err := deleteContentNodes(s, contentIDs); err != nil {
			return err
		}
	}

	var typeIDs []int
	if err := db.Model(&dto.PropertyTypeDTO{}).Where("content_type_id = ?", ct.ID).Pluck("id", &typeIDs).Error; err != nil {
		return err
	}
	if len(typeIDs) > 0 {
		if err := deletePropertyTypes(db, typeIDs); err != nil {
			return err
		}
	}
	if err := db.Where("content_type_node_id = ?", ct.ID).Delete(&dto.PropertyTypeGroupDTO{}).Error; err != nil {
		return err
	}
	if err := reparentChildrenToRoot(s, ct.ID); err != nil {
		return err
	}
	if err := db.Where("node_id = ?", ct.ID).Delete(&dto.ContentTypeDTO{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", ct.ID).Delete(&dto.NodeDTO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}

	debug(s, "content type deleted", logger.KeyRepository, r.name(), logger.KeyEntityID, ct.ID,
		logger.KeyCount, len(contentIDs))
	r.clearInstanceRegions(s)
	return nil
}

// clearInstanceRegions drops the cached instances of every content kind
// this content type can describe.
func (r *ContentTypeRepository) clearInstanceRegions(s *scope.Scope) {
	for _, t := range []models.ObjectType{models.ObjectTypeDocument, models.ObjectTypeElement, models.ObjectTypeMedia, models.ObjectTypeMember} {
		if ctType, _ := t.ContentTypeFor(); ctType == r.objectType {
			cache.ClearRegion(s.Context(), s.Cache(), nodeRegion(t))
		}
	}
}

// GetByAlias returns the content type with the given alias, or nil.
func (r *ContentTypeRepository) GetByAlias(s *scope.Scope, alias string) (*models.ContentType, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("alias", alias)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// ExistsByAlias reports whether a content type with the given alias exists.
func (r *ContentTypeRepository) ExistsByAlias(s *scope.Scope, alias string) (bool, error) {
	n, err := r.Count(s, query.New().Where(query.Eq("alias", alias)))
	return n > 0, err
}

// GetPropertyTypeAliases returns the distinct property type aliases used by
// content types of this kind, sorted.
func (r *ContentTypeRepository) GetPropertyTypeAliases(s *scope.Scope) ([]string, error) {
	var aliases []string
	err := s.DB().Model(&dto.PropertyTypeDTO{}).
		Joins("JOIN nodes ON nodes.id = property_types.content_type_id").
		Where("nodes.node_object_type = ?", string(r.objectType)).
		Distinct("property_types.alias").Order("property_types.alias").
		Pluck("property_types.alias", &aliases).Error
	return aliases, err
}

// Move places ct in the container containerID (models.RootID for the root).
func (r *ContentTypeRepository) Move(s *scope.Scope, ct *models.ContentType, containerID int) ([]models.MoveEventInfo, error) {
	if !ct.HasIdentity() {
		return nil, models.ErrNotSaved
	}
	if containerID != models.RootID {
		containerType, _ := r.objectType.ContainerType()
		var n int64
		if err := s.DB().Model(&dto.NodeDTO{}).
			Where("id = ? AND node_object_type IN ?", containerID, []string{string(containerType), string(r.objectType)}).
			Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("container %d: %w", containerID, models.ErrNotFound)
		}
	}
	moved, err := moveNode(s, ct.ID, containerID)
	if err != nil {
		return nil, err
	}
	applyMove(&ct.TreeEntityBase, moved)
	return moved, nil
}
