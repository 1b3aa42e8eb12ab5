package repository

import (
	"sort"
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

// UserRepository stores back-office users and their group memberships.
// Usernames are unique.
type UserRepository struct {
	*Repository[*models.User]
}

// NewUserRepository creates the user repository.
func NewUserRepository() *UserRepository {
	r := &UserRepository{}
	r.Repository = newRepository[*models.User](r, regionUser, func() *models.User { return &models.User{} })
	return r
}

var userFields = query.FieldMap{
	"id":            "users.id",
	"key":           "users.unique_id",
	"username":      "users.login",
	"email":         "users.email",
	"name":          "users.name",
	"language":      "users.language",
	"disabled":      "users.disabled",
	"lastLoginDate": "users.last_login_date",
	"createDate":    "users.create_date",
	"updateDate":    "users.update_date",
}

func (r *UserRepository) name() string           { return "user" }
func (r *UserRepository) fields() query.FieldMap { return userFields }
func (r *UserRepository) idColumn() string       { return "users.id" }
func (r *UserRepository) keyColumn() string      { return "users.unique_id" }

func (r *UserRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.UserDTO{})
}

func (r *UserRepository) load(s *scope.Scope, where clause.Expression) ([]*models.User, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.UserDTO
	if err := db.Order("users.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]*models.User, len(rows))
	byID := make(map[int]*models.User, len(rows))
	ids := make([]int, len(rows))
	for i, row := range rows {
		u := &models.User{
			Username:      row.Login,
			Email:         row.Email,
			Name:          row.Name,
			Language:      row.Language,
			Disabled:      row.Disabled,
			LastLoginDate: row.LastLoginDate,
			PasswordHash:  row.PasswordHash,
		}
		u.ID = row.ID
		u.Key = parseKey(row.UniqueID)
		u.CreateDate = row.CreateDate
		u.UpdateDate = row.UpdateDate
		out[i] = u
		byID[row.ID] = u
		ids[i] = row.ID
	}

	var memberships []struct {
		UserID int
		Alias  string
	}
	if err := s.DB().Model(&dto.UserGroupMemberDTO{}).
		Select("user_group_members.user_id, user_groups.alias").
		Joins("JOIN user_groups ON user_groups.id = user_group_members.user_group_id").
		Where("user_group_members.user_id IN ?", ids).
		Order("user_groups.alias").
		Scan(&memberships).Error; err != nil {
		return nil, err
	}
	for _, m := range memberships {
		u := byID[m.UserID]
		u.GroupAliases = append(u.GroupAliases, m.Alias)
	}
	return out, nil
}

func userRow(u *models.User) *dto.UserDTO {
	return &dto.UserDTO{
		ID:            u.ID,
		UniqueID:      keyString(u.Key),
		Login:         u.Username,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Language:      u.Language,
		Disabled:      u.Disabled,
		LastLoginDate: u.LastLoginDate,
		CreateDate:    u.CreateDate,
		UpdateDate:    u.UpdateDate,
	}
}

func (r *UserRepository) insert(s *scope.Scope, u *models.User) error {
	if u.Username == "" {
		return invalid("username is required")
	}
	row := userRow(u)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	return r.writeGroups(s, u)
}

func (r *UserRepository) update(s *scope.Scope, u *models.User) error {
	row := userRow(u)
	db := s.DB().Model(row).Select("*")
	if row.PasswordHash == "" {
		db = db.Omit("password_hash")
	}
	res := db.Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return r.writeGroups(s, u)
}

// writeGroups makes the stored memberships equal u.GroupAliases. Unknown
// aliases are an invalid operation.
func (r *UserRepository) writeGroups(s *scope.Scope, u *models.User) error {
	db := s.DB()
	var groups []dto.UserGroupDTO
	if len(u.GroupAliases) > 0 {
		if err := db.Select("id", "alias").Where("alias IN ?", u.GroupAliases).Find(&groups).Error; err != nil {
			return err
		}
	}
	wanted := make(map[int]bool, len(groups))
	found := make(map[string]bool, len(groups))
	for _, g := range groups {
		wanted[g.ID] = true
		found[g.Alias] = true
	}
	for _, alias := range u.GroupAliases {
		if !found[alias] {
			return invalid("user %q: unknown group %q", u.Username, alias)
		}
	}

	var current []int
	if err := db.Model(&dto.UserGroupMemberDTO{}).Where("user_id = ?", u.ID).Pluck("user_group_id", &current).Error; err != nil {
		return err
	}
	have := make(map[int]bool, len(current))
	var removed []int
	for _, id := range current {
		have[id] = true
		if !wanted[id] {
			removed = append(removed, id)
		}
	}
	var added []dto.UserGroupMemberDTO
	for id := range wanted {
		if !have[id] {
			added = append(added, dto.UserGroupMemberDTO{UserID: u.ID, UserGroupID: id})
		}
	}

	if len(removed) > 0 {
		if err := db.Where("user_id = ? AND user_group_id IN ?", u.ID, removed).Delete(&dto.UserGroupMemberDTO{}).Error; err != nil {
			return err
		}
	}
	if len(added) > 0 {
		if err := db.Create(&added).Error; err != nil {
			return err
		}
	}
	if len(removed) > 0 || len(added) > 0 {
		// Groups carry user counts.
		cache.ClearRegion(s.Context(), s.Cache(), regionUserGroup)
	}
	sort.Strings(u.GroupAliases)
	return nil
}

func (r *UserRepository) remove(s *scope.Scope, u *models.User) error {
	res := s.DB().Where("user_id = ?", u.ID).Delete(&dto.UserGroupMemberDTO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		cache.ClearRegion(s.Context(), s.Cache(), regionUserGroup)
	}
	res = s.DB().Delete(&dto.UserDTO{}, u.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) idByUsername(s *scope.Scope, username string) (int, error) {
	id, _, err := pluckFirst[int](s.DB().Model(&dto.UserDTO{}).Where("LOWER(login) = ?", strings.ToLower(username)), "id")
	return id, err
}

// GetByUsername returns the user with the given username, ignoring case,
// or nil.
func (r *UserRepository) GetByUsername(s *scope.Scope, username string) (*models.User, error) {
	id, err := r.idByUsername(s, username)
	if err != nil || id == 0 {
		return nil, err
	}
	return r.Get(s, id)
}

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepository) ExistsByUsername(s *scope.Scope, username string) (bool, error) {
	id, err := r.idByUsername(s, username)
	return id != 0, err
}

// ValidateCredentials returns the enabled user whose password matches.
// The stored hash is read from the database, not the cache.
func (r *UserRepository) ValidateCredentials(s *scope.Scope, username, password string) (u *models.User, err error) {
	defer observe(s, r.name(), "validate_credentials", time.Now(), &err)

	var rows []dto.UserDTO
	if err := s.DB().Select("id", "disabled", "password_hash").
		Where("LOWER(login) = ?", strings.ToLower(username)).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].PasswordHash == "" {
		return nil, models.ErrInvalidCredentials
	}
	if rows[0].Disabled {
		return nil, models.ErrUserDisabled
	}
	if !models.VerifyPassword(password, rows[0].PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return r.Get(s, rows[0].ID)
}

// GetPagedByGroup returns one page of users, restricted to the members of
// the group with groupAlias when it is not empty.
func (r *UserRepository) GetPagedByGroup(s *scope.Scope, groupAlias string, pageIndex, pageSize int, filter *query.Query, orderings ...query.Ordering) ([]*models.User, int64, error) {
	q := query.New()
	if groupAlias != "" {
		var ids []int
		if err := s.DB().Model(&dto.UserGroupMemberDTO{}).
			Joins("JOIN user_groups ON user_groups.id = user_group_members.user_group_id").
			Where("user_groups.alias = ?", groupAlias).
			Pluck("user_group_members.user_id", &ids).Error; err != nil {
			return nil, 0, err
		}
		q.Where(query.In("id", ids))
	}
	return r.GetPage(s, q, pageIndex, pageSize, filter, orderings...)
}
