package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// RedirectURLRepository stores the former URLs of content items.
//
// A URL is recorded once per (content, url, culture); saving it again
// refreshes its date. Lookups return the most recent record first, with
// the row id breaking ties between records created in the same instant.
type RedirectURLRepository struct {
	*Repository[*models.RedirectURL]
}

// NewRedirectURLRepository creates the redirect URL repository.
func NewRedirectURLRepository() *RedirectURLRepository {
	r := &RedirectURLRepository{}
	r.Repository = newRepository[*models.RedirectURL](r, regionRedirectURL,
		func() *models.RedirectURL { return &models.RedirectURL{} })
	return r
}

var redirectURLFields = query.FieldMap{
	"id":            "redirect_urls.id",
	"key":           "redirect_urls.unique_id",
	"contentKey":    "redirect_urls.content_key",
	"contentId":     "nodes.id",
	"path":          "nodes.path",
	"url":           "redirect_urls.url",
	"culture":       "redirect_urls.culture",
	"createDateUtc": "redirect_urls.create_date_utc",
}

var newestFirst = []query.Ordering{query.OrderByDesc("createDateUtc"), query.OrderByDesc("id")}

func (r *RedirectURLRepository) name() string           { return "redirect-url" }
func (r *RedirectURLRepository) fields() query.FieldMap { return redirectURLFields }
func (r *RedirectURLRepository) idColumn() string       { return "redirect_urls.id" }
func (r *RedirectURLRepository) keyColumn() string      { return "redirect_urls.unique_id" }

func (r *RedirectURLRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.RedirectURLDTO{}).
		Joins("LEFT JOIN nodes ON nodes.unique_id = redirect_urls.content_key")
}

func (r *RedirectURLRepository) load(s *scope.Scope, where clause.Expression) ([]*models.RedirectURL, error) {
	db := r.baseQuery(s).Select("redirect_urls.*, nodes.id AS content_id")
	if where != nil {
		db = db.Where(where)
	}
	var rows []struct {
		dto.RedirectURLDTO
		ContentID *int
	}
	if err := db.Order("redirect_urls.id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.RedirectURL, len(rows))
	for i, row := range rows {
		u := &models.RedirectURL{
			ContentKey:    parseKey(row.ContentKey),
			ContentID:     intOrZero(row.ContentID),
			URL:           row.URL,
			Culture:       stringOrEmpty(row.Culture),
			CreateDateUTC: row.CreateDateUTC,
		}
		u.ID = row.ID
		u.Key = parseKey(row.UniqueID)
		u.CreateDate = row.CreateDateUTC
		u.UpdateDate = row.CreateDateUTC
		out[i] = u
	}
	return out, nil
}

func redirectURLRow(u *models.RedirectURL) *dto.RedirectURLDTO {
	return &dto.RedirectURLDTO{
		ID:            u.ID,
		UniqueID:      keyString(u.Key),
		ContentKey:    keyString(u.ContentKey),
		URL:           u.URL,
		Culture:       nullString(u.Culture),
		CreateDateUTC: u.CreateDateUTC,
	}
}

func cultureCond(culture string) clause.Expression {
	if culture == "" {
		return clause.Expr{SQL: "culture IS NULL"}
	}
	return clause.Eq{Column: "culture", Value: culture}
}

// insert records the URL, or refreshes the existing record of the same
// content, url and culture.
func (r *RedirectURLRepository) insert(s *scope.Scope, u *models.RedirectURL) error {
	if u.URL == "" || u.ContentKey == uuid.Nil {
		return invalid("redirect url needs a url and a content key")
	}
	u.CreateDateUTC = u.UpdateDate

	var existing dto.RedirectURLDTO
	res := s.DB().Where("content_key = ? AND url = ?", keyString(u.ContentKey), u.URL).
		Where(cultureCond(u.Culture)).Limit(1).Find(&existing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		u.ID = existing.ID
		u.Key = parseKey(existing.UniqueID)
		return r.update(s, u)
	}

	row := redirectURLRow(u)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	return r.resolveContentID(s, u)
}

func (r *RedirectURLRepository) update(s *scope.Scope, u *models.RedirectURL) error {
	u.CreateDateUTC = u.UpdateDate
	u.CreateDate = u.UpdateDate
	if err := updateRow(s.DB(), redirectURLRow(u)); err != nil {
		return err
	}
	return r.resolveContentID(s, u)
}

func (r *RedirectURLRepository) resolveContentID(s *scope.Scope, u *models.RedirectURL) error {
	id, _, err := pluckFirst[int](s.DB().Model(&dto.NodeDTO{}).Where("unique_id = ?", keyString(u.ContentKey)), "id")
	u.ContentID = id
	return err
}

func (r *RedirectURLRepository) remove(s *scope.Scope, u *models.RedirectURL) error {
	res := s.DB().Delete(&dto.RedirectURLDTO{}, u.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RedirectURLRepository) first(s *scope.Scope, q *query.Query) (*models.RedirectURL, error) {
	items, _, err := r.GetPage(s, q, 0, 1, nil, newestFirst...)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetURL returns the record of url for the content item in culture, or nil.
func (r *RedirectURLRepository) GetURL(s *scope.Scope, url string, contentKey uuid.UUID, culture string) (*models.RedirectURL, error) {
	q := query.New().
		Where(query.Eq("url", url)).
		Where(query.Eq("contentKey", keyString(contentKey)))
	if culture == "" {
		q.Where(query.IsNull("culture"))
	} else {
		q.Where(query.Eq("culture", culture))
	}
	return r.first(s, q)
}

// GetMostRecentURL returns the newest record of url in any culture, or nil.
func (r *RedirectURLRepository) GetMostRecentURL(s *scope.Scope, url string) (*models.RedirectURL, error) {
	return r.first(s, query.New().Where(query.Eq("url", url)))
}

// GetMostRecentURLForCulture returns the newest record of url for culture.
// Records stored without a culture match any culture.
func (r *RedirectURLRepository) GetMostRecentURLForCulture(s *scope.Scope, url, culture string) (*models.RedirectURL, error) {
	return r.first(s, query.New().
		Where(query.Eq("url", url)).
		Where(query.Or(query.Eq("culture", culture), query.IsNull("culture"))))
}

// GetContentURLs returns the records of a content item, newest first.
func (r *RedirectURLRepository) GetContentURLs(s *scope.Scope, contentKey uuid.UUID) ([]*models.RedirectURL, error) {
	return r.QueryOrdered(s, query.New().Where(query.Eq("contentKey", keyString(contentKey))), newestFirst...)
}

// GetAllURLs returns one page of every record, newest first.
func (r *RedirectURLRepository) GetAllURLs(s *scope.Scope, pageIndex, pageSize int) ([]*models.RedirectURL, int64, error) {
	return r.GetPage(s, nil, pageIndex, pageSize, nil, newestFirst...)
}

// GetAllURLsForRoot returns one page of the records of content below the
// node rootContentID, newest first.
func (r *RedirectURLRepository) GetAllURLsForRoot(s *scope.Scope, rootContentID, pageIndex, pageSize int) ([]*models.RedirectURL, int64, error) {
	path, ok, err := pluckFirst[string](s.DB().Model(&dto.NodeDTO{}).Where("id = ?", rootContentID), "path")
	if err != nil || !ok {
		return []*models.RedirectURL{}, 0, err
	}
	q := query.New().Where(query.Or(
		query.Eq("contentId", rootContentID),
		query.StartsWith("path", path+","),
	))
	return r.GetPage(s, q, pageIndex, pageSize, nil, newestFirst...)
}

// SearchURLs returns one page of the records whose url contains term.
func (r *RedirectURLRepository) SearchURLs(s *scope.Scope, term string, pageIndex, pageSize int) ([]*models.RedirectURL, int64, error) {
	return r.GetPage(s, query.New().Where(query.Contains("url", term)), pageIndex, pageSize, nil, newestFirst...)
}

// DeleteContentURLs deletes every record of a content item.
func (r *RedirectURLRepository) DeleteContentURLs(s *scope.Scope, contentKey uuid.UUID) (err error) {
	defer observe(s, r.name(), "delete_content", time.Now(), &err)

	if err := s.DB().Where("content_key = ?", keyString(contentKey)).Delete(&dto.RedirectURLDTO{}).Error; err != nil {
		return err
	}
	r.ClearCache(s)
	return nil
}

// DeleteAll deletes every record.
func (r *RedirectURLRepository) DeleteAll(s *scope.Scope) (err error) {
	defer observe(s, r.name(), "delete_all", time.Now(), &err)

	if err := s.DB().Where("1 = 1").Delete(&dto.RedirectURLDTO{}).Error; err != nil {
		return err
	}
	r.ClearCache(s)
	return nil
}
