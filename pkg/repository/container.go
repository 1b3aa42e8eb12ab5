package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// EntityContainerRepository stores the folders of one container kind.
//
// Deleting a folder never deletes what it holds: children move to the root.
type EntityContainerRepository struct {
	*Repository[*models.EntityContainer]
	containerType models.ObjectType
}

// NewEntityContainerRepository creates the repository for containerType,
// e.g. models.ObjectTypeDocumentTypeContainer.
func NewEntityContainerRepository(containerType models.ObjectType) *EntityContainerRepository {
	r := &EntityContainerRepository{containerType: containerType}
	r.Repository = newRepository[*models.EntityContainer](r, nodeRegion(containerType),
		func() *models.EntityContainer { return &models.EntityContainer{} })
	return r
}

// ContainerType returns the container kind served by the repository.
func (r *EntityContainerRepository) ContainerType() models.ObjectType { return r.containerType }

// GetUniqueName returns a folder name that does not collide with the other
// folders under parentID.
func (r *EntityContainerRepository) GetUniqueName(s *scope.Scope, parentID, ownID int, candidate string) (string, error) {
	return uniqueNodeName(s, r.containerType, parentID, ownID, candidate)
}

func (r *EntityContainerRepository) name() string { return string(r.containerType) }

func (r *EntityContainerRepository) fields() query.FieldMap {
	return query.FieldMap(nodeFields)
}

func (r *EntityContainerRepository) idColumn() string  { return "nodes.id" }
func (r *EntityContainerRepository) keyColumn() string { return "nodes.unique_id" }

func (r *EntityContainerRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.NodeDTO{}).Where("nodes.node_object_type = ?", string(r.containerType))
}

func (r *EntityContainerRepository) load(s *scope.Scope, where clause.Expression) ([]*models.EntityContainer, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.NodeDTO
	if err := db.Order("nodes.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.EntityContainer, len(rows))
	for i := range rows {
		c := &models.EntityContainer{ContainerObjectType: r.containerType}
		applyNode(&c.TreeEntityBase, &rows[i])
		out[i] = c
	}
	return out, nil
}

func (r *EntityContainerRepository) insert(s *scope.Scope, c *models.EntityContainer) error {
	if c.ContainerObjectType == "" {
		c.ContainerObjectType = r.containerType
	}
	if c.ContainerObjectType != r.containerType {
		return invalid("container kind %s saved in %s repository", c.ContainerObjectType, r.containerType)
	}
	if c.Name == "" {
		return invalid("container name is required")
	}
	return insertNode(s, &c.TreeEntityBase, r.containerType)
}

func (r *EntityContainerRepository) update(s *scope.Scope, c *models.EntityContainer) error {
	_, err := updateNode(s, &c.TreeEntityBase)
	return err
}

func (r *EntityContainerRepository) remove(s *scope.Scope, c *models.EntityContainer) error {
	if err := reparentChildrenToRoot(s, c.ID); err != nil {
		return err
	}
	res := s.DB().Where("id = ? AND node_object_type = ?", c.ID, string(r.containerType)).Delete(&dto.NodeDTO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByName returns the container with the given name at the given level,
// or nil. A level of zero matches any level.
func (r *EntityContainerRepository) GetByName(s *scope.Scope, name string, level int) (*models.EntityContainer, error) {
	q := query.New().Where(query.Eq("name", name))
	if level > 0 {
		q.Where(query.Eq("level", level))
	}
	items, err := r.Query(s, q)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetChildren returns the direct children containers of parentID.
func (r *EntityContainerRepository) GetChildren(s *scope.Scope, parentID int) ([]*models.EntityContainer, error) {
	return r.Query(s, query.New().Where(query.Eq("parentId", parentID)))
}

// Move reparents c under the container parentID (models.RootID for the root)
// and returns every affected node with its original path.
func (r *EntityContainerRepository) Move(s *scope.Scope, c *models.EntityContainer, parentID int) ([]models.MoveEventInfo, error) {
	if !c.HasIdentity() {
		return nil, models.ErrNotSaved
	}
	if err := r.checkParent(s, parentID); err != nil {
		return nil, err
	}
	moved, err := moveNode(s, c.ID, parentID)
	if err != nil {
		return nil, err
	}
	applyMove(&c.TreeEntityBase, moved)
	return moved, nil
}

func (r *EntityContainerRepository) checkParent(s *scope.Scope, parentID int) error {
	if parentID == models.RootID || parentID == 0 {
		return nil
	}
	ok, err := r.Exists(s, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("container %d: %w", parentID, models.ErrNotFound)
	}
	return nil
}
