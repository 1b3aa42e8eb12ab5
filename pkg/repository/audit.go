package repository

import (
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// AuditRepository is the append-only audit trail. Entries are never
// updated or cached.
type AuditRepository struct{}

// NewAuditRepository creates the audit repository.
func NewAuditRepository() *AuditRepository { return &AuditRepository{} }

var auditFields = query.FieldMap{
	"id":         "audit_log.id",
	"entityId":   "audit_log.node_id",
	"userId":     "audit_log.user_id",
	"entityType": "audit_log.entity_type",
	"auditType":  "audit_log.log_header",
	"comment":    "audit_log.log_comment",
	"createDate": "audit_log.datestamp",
}

func (r *AuditRepository) name() string { return "audit" }

func auditFromRow(row *dto.AuditItemDTO) (*models.AuditItem, error) {
	item := &models.AuditItem{
		ID:         row.ID,
		EntityID:   row.NodeID,
		UserID:     row.UserID,
		EntityType: row.EntityType,
		AuditType:  models.AuditType(row.LogHeader),
		Comment:    row.LogComment,
		CreateDate: row.Datestamp,
	}
	if len(row.Parameters) > 0 {
		if err := json.Unmarshal(row.Parameters, &item.Parameters); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// Add appends an entry and assigns its id.
func (r *AuditRepository) Add(s *scope.Scope, item *models.AuditItem) (err error) {
	defer observe(s, r.name(), "add", time.Now(), &err)

	if item.AuditType == "" {
		return invalid("audit type is required")
	}
	if item.CreateDate.IsZero() {
		item.CreateDate = now()
	}
	row := &dto.AuditItemDTO{
		UserID:     item.UserID,
		NodeID:     item.EntityID,
		EntityType: item.EntityType,
		Datestamp:  item.CreateDate.UTC(),
		LogHeader:  string(item.AuditType),
		LogComment: item.Comment,
	}
	if len(item.Parameters) > 0 {
		params, err := json.Marshal(item.Parameters)
		if err != nil {
			return err
		}
		row.Parameters = datatypes.JSON(params)
	}
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	item.ID = row.ID
	return nil
}

// Get returns the entries matching q, oldest first.
func (r *AuditRepository) Get(s *scope.Scope, q *query.Query) ([]*models.AuditItem, error) {
	items, _, err := r.page(s, q, -1, 0, query.Ascending, nil, nil)
	return items, err
}

// GetPaged returns one page of the entries matching q and customFilter,
// restricted to auditTypes when given, ordered by date in direction. The
// total counts every matching entry.
func (r *AuditRepository) GetPaged(s *scope.Scope, q *query.Query, pageIndex, pageSize int, direction query.Direction, auditTypes []models.AuditType, customFilter *query.Query) (items []*models.AuditItem, total int64, err error) {
	defer observe(s, r.name(), "page", time.Now(), &err)

	if pageIndex < 0 || pageSize <= 0 {
		return nil, 0, invalid("page %d of size %d", pageIndex, pageSize)
	}
	return r.page(s, q, pageIndex, pageSize, direction, auditTypes, customFilter)
}

// page reads entries; a negative pageIndex reads every entry.
func (r *AuditRepository) page(s *scope.Scope, q *query.Query, pageIndex, pageSize int, direction query.Direction, auditTypes []models.AuditType, customFilter *query.Query) ([]*models.AuditItem, int64, error) {
	combined := query.New().Where(q.Expr()).Where(customFilter.Expr())
	if len(auditTypes) > 0 {
		types := make([]string, len(auditTypes))
		for i, t := range auditTypes {
			types[i] = string(t)
		}
		combined.Where(query.In("auditType", types))
	}
	where, err := query.Translate(combined.Expr(), auditFields)
	if err != nil {
		return nil, 0, err
	}

	build := func() *gorm.DB {
		db := s.DB().Model(&dto.AuditItemDTO{})
		if where != nil {
			db = db.Where(where)
		}
		return db
	}

	db := build()
	var total int64
	if pageIndex >= 0 {
		if err := build().Count(&total).Error; err != nil {
			return nil, 0, err
		}
		if total == 0 {
			return []*models.AuditItem{}, 0, nil
		}
		db = db.Offset(pageIndex * pageSize).Limit(pageSize)
	}

	order := "audit_log.datestamp, audit_log.id"
	if (query.Ordering{Direction: direction}).IsDescending() {
		order = "audit_log.datestamp DESC, audit_log.id DESC"
	}
	var rows []dto.AuditItemDTO
	if err := db.Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*models.AuditItem, len(rows))
	for i := range rows {
		item, err := auditFromRow(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		items[i] = item
	}
	if pageIndex < 0 {
		total = int64(len(items))
	}
	return items, total, nil
}

// CleanLogs deletes entries older than maxAge and returns how many were
// deleted.
func (r *AuditRepository) CleanLogs(s *scope.Scope, maxAge time.Duration) (deleted int64, err error) {
	defer observe(s, r.name(), "clean", time.Now(), &err)

	cutoff := now().Add(-maxAge)
	res := s.DB().Where("datestamp < ?", cutoff).Delete(&dto.AuditItemDTO{})
	if res.Error != nil {
		return 0, res.Error
	}
	debug(s, "audit log pruned", logger.KeyCount, res.RowsAffected, logger.KeyOlderThan, cutoff)
	return res.RowsAffected, nil
}
