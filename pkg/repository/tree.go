package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/naming"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/scope"
)

// nodeFields are the query fields every node-backed entity supports.
var nodeFields = map[string]string{
	"id":         "nodes.id",
	"key":        "nodes.unique_id",
	"name":       "nodes.text",
	"parentId":   "nodes.parent_id",
	"path":       "nodes.path",
	"level":      "nodes.level",
	"sortOrder":  "nodes.sort_order",
	"trashed":    "nodes.trashed",
	"creatorId":  "nodes.user_id",
	"createDate": "nodes.create_date",
	"updateDate": "nodes.update_date",
}

func withNodeFields(extra map[string]string) map[string]string {
	out := make(map[string]string, len(nodeFields)+len(extra))
	for k, v := range nodeFields {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// applyNode copies a node row onto a tree entity.
func applyNode(t *models.TreeEntityBase, n *dto.NodeDTO) {
	t.ID = n.ID
	t.Key = parseKey(n.UniqueID)
	t.Name = n.Text
	t.ParentID = n.ParentID
	t.Path = n.Path
	t.Level = n.Level
	t.SortOrder = n.SortOrder
	t.Trashed = n.Trashed
	t.CreatorID = intOrZero(n.UserID)
	t.CreateDate = n.CreateDate
	t.UpdateDate = n.UpdateDate
}

// insertNode writes a new node row for t, computing its path, level and
// sort order from the parent. A zero ParentID means the root.
func insertNode(s *scope.Scope, t *models.TreeEntityBase, objectType models.ObjectType) error {
	db := s.DB()
	if t.ParentID == 0 {
		t.ParentID = models.RootID
	}

	parentPath, parentLevel := strconv.Itoa(models.RootID), 0
	if t.ParentID != models.RootID {
		var parent dto.NodeDTO
		if err := db.Select("id", "path", "level").First(&parent, t.ParentID).Error; err != nil {
			return fmt.Errorf("parent %d: %w", t.ParentID, notFound(err))
		}
		parentPath, parentLevel = parent.Path, parent.Level
	}

	var maxSort sql.NullInt64
	if err := db.Model(&dto.NodeDTO{}).Where("parent_id = ?", t.ParentID).
		Select("MAX(sort_order)").Scan(&maxSort).Error; err != nil {
		return err
	}
	t.SortOrder = 0
	if maxSort.Valid {
		t.SortOrder = int(maxSort.Int64) + 1
	}

	row := &dto.NodeDTO{
		UniqueID:       keyString(t.Key),
		ParentID:       t.ParentID,
		Level:          parentLevel + 1,
		Path:           parentPath,
		SortOrder:      t.SortOrder,
		Trashed:        t.Trashed,
		UserID:         nullInt(t.CreatorID),
		Text:           t.Name,
		NodeObjectType: string(objectType),
		CreateDate:     t.CreateDate,
		UpdateDate:     t.UpdateDate,
	}
	if err := db.Create(row).Error; err != nil {
		return err
	}

	row.Path = parentPath + "," + strconv.Itoa(row.ID)
	if err := db.Model(row).Update("path", row.Path).Error; err != nil {
		return err
	}
	t.ID = row.ID
	t.Path = row.Path
	t.Level = row.Level
	return nil
}

// updateNode writes the mutable node columns of t. A changed ParentID moves
// the node and its descendants.
func updateNode(s *scope.Scope, t *models.TreeEntityBase) ([]models.MoveEventInfo, error) {
	db := s.DB()
	var stored dto.NodeDTO
	if err := db.First(&stored, t.ID).Error; err != nil {
		return nil, notFound(err)
	}

	res := db.Model(&dto.NodeDTO{}).Where("id = ?", t.ID).Updates(map[string]any{
		"text":        t.Name,
		"sort_order":  t.SortOrder,
		"trashed":     t.Trashed,
		"user_id":     nullInt(t.CreatorID),
		"update_date": t.UpdateDate,
	})
	if res.Error != nil {
		return nil, res.Error
	}

	if t.ParentID == 0 {
		t.ParentID = models.RootID
	}
	if t.ParentID == stored.ParentID {
		t.Path, t.Level = stored.Path, stored.Level
		return nil, nil
	}

	moved, err := moveNode(s, t.ID, t.ParentID)
	if err != nil {
		return nil, err
	}
	t.Path, t.Level = moved[0].NewPath, strings.Count(moved[0].NewPath, ",")
	return moved, nil
}

// moveNode reparents a node and recomputes path and level for it and all of
// its descendants. The first element of the result is the moved node.
func moveNode(s *scope.Scope, id, newParentID int) ([]models.MoveEventInfo, error) {
	if newParentID == 0 {
		newParentID = models.RootID
	}
	if newParentID == id {
		return nil, invalid("cannot move node %d under itself", id)
	}

	var moved []models.MoveEventInfo
	err := s.DB().Transaction(func(tx *gorm.DB) error {
		var node dto.NodeDTO
		if err := tx.First(&node, id).Error; err != nil {
			return notFound(err)
		}

		parentPath, parentLevel := strconv.Itoa(models.RootID), 0
		if newParentID != models.RootID {
			var parent dto.NodeDTO
			if err := tx.First(&parent, newParentID).Error; err != nil {
				return fmt.Errorf("parent %d: %w", newParentID, notFound(err))
			}
			if parent.Path == node.Path || strings.HasPrefix(parent.Path, node.Path+",") {
				return invalid("cannot move node %d under its descendant %d", id, newParentID)
			}
			parentPath, parentLevel = parent.Path, parent.Level
		}

		var descendants []dto.NodeDTO
		if err := tx.Where("path LIKE ?", node.Path+",%").Order("level, id").Find(&descendants).Error; err != nil {
			return err
		}

		newPath := parentPath + "," + strconv.Itoa(id)
		delta := parentLevel + 1 - node.Level
		if err := tx.Model(&dto.NodeDTO{}).Where("id = ?", id).Updates(map[string]any{
			"parent_id": newParentID,
			"path":      newPath,
			"level":     node.Level + delta,
		}).Error; err != nil {
			return err
		}
		moved = append(moved, moveInfo(&node, newPath, newParentID))

		for i := range descendants {
			d := &descendants[i]
			p := newPath + strings.TrimPrefix(d.Path, node.Path)
			if err := tx.Model(&dto.NodeDTO{}).Where("id = ?", d.ID).Updates(map[string]any{
				"path":  p,
				"level": d.Level + delta,
			}).Error; err != nil {
				return err
			}
			moved = append(moved, moveInfo(d, p, d.ParentID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateMoved(s, moved)
	debug(s, "node moved", logger.KeyEntityID, id, logger.KeyParentID, newParentID,
		logger.KeyOldPath, moved[0].OriginalPath, logger.KeyNewPath, moved[0].NewPath,
		logger.KeyCount, len(moved))
	return moved, nil
}

func moveInfo(n *dto.NodeDTO, newPath string, newParentID int) models.MoveEventInfo {
	return models.MoveEventInfo{
		ID:           n.ID,
		Key:          parseKey(n.UniqueID),
		ObjectType:   models.ObjectType(n.NodeObjectType),
		OriginalPath: n.Path,
		NewPath:      newPath,
		NewParentID:  newParentID,
	}
}

// invalidateMoved drops cached copies of moved nodes, whatever their type.
func invalidateMoved(s *scope.Scope, moved []models.MoveEventInfo) {
	for _, m := range moved {
		cache.Invalidate(s.Context(), s.Cache(), nodeRegion(m.ObjectType), m.ID, m.Key)
	}
}

// reparentChildrenToRoot moves every direct child of id to the root.
func reparentChildrenToRoot(s *scope.Scope, id int) error {
	var children []int
	if err := s.DB().Model(&dto.NodeDTO{}).Where("parent_id = ?", id).Order("id").Pluck("id", &children).Error; err != nil {
		return err
	}
	for _, child := range children {
		if _, err := moveNode(s, child, models.RootID); err != nil {
			return err
		}
	}
	return nil
}

// applyMove updates t from the first move record.
func applyMove(t *models.TreeEntityBase, moved []models.MoveEventInfo) {
	if len(moved) == 0 {
		return
	}
	t.ParentID = moved[0].NewParentID
	t.Path = moved[0].NewPath
	t.Level = strings.Count(moved[0].NewPath, ",")
}

// uniqueNodeName resolves candidate against the names of the other nodes of
// objectType under parentID.
func uniqueNodeName(s *scope.Scope, objectType models.ObjectType, parentID, ownID int, candidate string) (string, error) {
	var siblings []dto.NodeDTO
	err := s.DB().Select("id", "text").
		Where("parent_id = ? AND node_object_type = ?", parentID, string(objectType)).
		Find(&siblings).Error
	if err != nil {
		return "", fmt.Errorf("load sibling names: %w", err)
	}
	names := make([]naming.SimilarNodeName, len(siblings))
	for i, n := range siblings {
		names[i] = naming.SimilarNodeName{ID: n.ID, Name: n.Text}
	}
	return naming.GetUniqueName(names, ownID, candidate), nil
}
