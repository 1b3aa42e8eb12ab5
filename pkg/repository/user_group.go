package repository

import (
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// UserGroupRepository stores back-office user groups with their allowed
// sections.
type UserGroupRepository struct {
	*Repository[*models.UserGroup]
}

// NewUserGroupRepository creates the user group repository.
func NewUserGroupRepository() *UserGroupRepository {
	r := &UserGroupRepository{}
	r.Repository = newRepository[*models.UserGroup](r, regionUserGroup,
		func() *models.UserGroup { return &models.UserGroup{} })
	return r
}

var userGroupFields = query.FieldMap{
	"id":    "user_groups.id",
	"key":   "user_groups.unique_id",
	"alias": "user_groups.alias",
	"name":  "user_groups.name",
}

func (r *UserGroupRepository) name() string           { return "user-group" }
func (r *UserGroupRepository) fields() query.FieldMap { return userGroupFields }
func (r *UserGroupRepository) idColumn() string       { return "user_groups.id" }
func (r *UserGroupRepository) keyColumn() string      { return "user_groups.unique_id" }

func (r *UserGroupRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.UserGroupDTO{})
}

func (r *UserGroupRepository) load(s *scope.Scope, where clause.Expression) ([]*models.UserGroup, error) {
	db := r.baseQuery(s).
		Select("user_groups.*, (SELECT COUNT(*) FROM user_group_members m WHERE m.user_group_id = user_groups.id) AS user_count")
	if where != nil {
		db = db.Where(where)
	}
	var rows []struct {
		dto.UserGroupDTO
		UserCount int
	}
	if err := db.Order("user_groups.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.UserGroup, len(rows))
	byID := make(map[int]*models.UserGroup, len(rows))
	ids := make([]int, len(rows))
	for i, row := range rows {
		g := &models.UserGroup{
			Alias:              row.Alias,
			Name:               row.Name,
			Icon:               row.Icon,
			StartContentID:     intOrZero(row.StartContentID),
			StartMediaID:       intOrZero(row.StartMediaID),
			DefaultPermissions: row.DefaultPermissions,
			UserCount:          row.UserCount,
		}
		g.ID = row.ID
		g.Key = parseKey(row.UniqueID)
		g.CreateDate = row.CreateDate
		g.UpdateDate = row.UpdateDate
		out[i] = g
		byID[row.ID] = g
		ids[i] = row.ID
	}

	var sections []dto.UserGroupSectionDTO
	if err := s.DB().Where("user_group_id IN ?", ids).Order("user_group_id, app").Find(&sections).Error; err != nil {
		return nil, err
	}
	for _, sec := range sections {
		g := byID[sec.UserGroupID]
		g.AllowedSections = append(g.AllowedSections, sec.App)
	}
	return out, nil
}

func userGroupRow(g *models.UserGroup) *dto.UserGroupDTO {
	return &dto.UserGroupDTO{
		ID:                 g.ID,
		UniqueID:           keyString(g.Key),
		Alias:              g.Alias,
		Name:               g.Name,
		Icon:               g.Icon,
		StartContentID:     nullInt(g.StartContentID),
		StartMediaID:       nullInt(g.StartMediaID),
		DefaultPermissions: g.DefaultPermissions,
		CreateDate:         g.CreateDate,
		UpdateDate:         g.UpdateDate,
	}
}

func (r *UserGroupRepository) insert(s *scope.Scope, g *models.UserGroup) error {
	if g.Alias == "" {
		return invalid("user group alias is required")
	}
	if g.Name == "" {
		g.Name = g.Alias
	}
	row := userGroupRow(g)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	g.ID = row.ID
	g.UserCount = 0
	return r.writeSections(s, g)
}

func (r *UserGroupRepository) update(s *scope.Scope, g *models.UserGroup) error {
	if err := updateRow(s.DB(), userGroupRow(g)); err != nil {
		return err
	}
	if err := r.writeSections(s, g); err != nil {
		return err
	}
	// Users carry group aliases.
	cache.ClearRegion(s.Context(), s.Cache(), regionUser)
	var n int64
	if err := s.DB().Model(&dto.UserGroupMemberDTO{}).Where("user_group_id = ?", g.ID).Count(&n).Error; err != nil {
		return err
	}
	g.UserCount = int(n)
	return nil
}

func (r *UserGroupRepository) writeSections(s *scope.Scope, g *models.UserGroup) error {
	db := s.DB()
	if err := db.Where("user_group_id = ?", g.ID).Delete(&dto.UserGroupSectionDTO{}).Error; err != nil {
		return err
	}
	sort.Strings(g.AllowedSections)
	if len(g.AllowedSections) == 0 {
		return nil
	}
	rows := make([]dto.UserGroupSectionDTO, 0, len(g.AllowedSections))
	seen := map[string]bool{}
	for _, app := range g.AllowedSections {
		if !seen[app] {
			seen[app] = true
			rows = append(rows, dto.UserGroupSectionDTO{UserGroupID: g.ID, App: app})
		}
	}
	return db.Create(&rows).Error
}

func (r *UserGroupRepository) remove(s *scope.Scope, g *models.UserGroup) error {
	db := s.DB()
	if err := db.Where("user_group_id = ?", g.ID).Delete(&dto.UserGroupMemberDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_group_id = ?", g.ID).Delete(&dto.UserGroupSectionDTO{}).Error; err != nil {
		return err
	}
	res := db.Delete(&dto.UserGroupDTO{}, g.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	cache.ClearRegion(s.Context(), s.Cache(), regionUser)
	return nil
}

// GetByAlias returns the group with the given alias, or nil.
func (r *UserGroupRepository) GetByAlias(s *scope.Scope, alias string) (*models.UserGroup, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("alias", alias)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// AddOrUpdateWithUsers saves the group and makes userIDs its exact
// membership.
func (r *UserGroupRepository) AddOrUpdateWithUsers(s *scope.Scope, g *models.UserGroup, userIDs []int) (err error) {
	defer observe(s, r.name(), "save_with_users", time.Now(), &err)

	return s.DB().Transaction(func(*gorm.DB) error {
		if err := r.Save(s, g); err != nil {
			return err
		}
		db := s.DB()
		if err := db.Where("user_group_id = ?", g.ID).Delete(&dto.UserGroupMemberDTO{}).Error; err != nil {
			return err
		}
		seen := map[int]bool{}
		rows := make([]dto.UserGroupMemberDTO, 0, len(userIDs))
		for _, id := range userIDs {
			if !seen[id] {
				seen[id] = true
				rows = append(rows, dto.UserGroupMemberDTO{UserID: id, UserGroupID: g.ID})
			}
		}
		if len(rows) > 0 {
			if err := db.Create(&rows).Error; err != nil {
				return err
			}
		}
		g.UserCount = len(rows)
		r.cache.Put(s.Context(), s.Cache(), g)
		cache.ClearRegion(s.Context(), s.Cache(), regionUser)
		return nil
	})
}
