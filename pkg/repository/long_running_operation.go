package repository

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/scope"
)

// LongRunningOperationRepository tracks background tasks by type and
// status. An operation still enqueued or running past its expiration date
// is reported as failed.
type LongRunningOperationRepository struct{}

// NewLongRunningOperationRepository creates the long-running operation repository.
func NewLongRunningOperationRepository() *LongRunningOperationRepository {
	return &LongRunningOperationRepository{}
}

func (r *LongRunningOperationRepository) name() string { return "long-running-operation" }

func operationFromRow(row *dto.LongRunningOperationDTO, at time.Time) *models.LongRunningOperation {
	op := &models.LongRunningOperation{
		ID:             row.ID,
		Key:            parseKey(row.UniqueID),
		Type:           row.Type,
		Status:         effectiveStatus(models.OperationStatus(row.Status), row.ExpirationDate, at),
		CreateDate:     row.CreateDate,
		UpdateDate:     row.UpdateDate,
		ExpirationDate: row.ExpirationDate,
	}
	if len(row.Result) > 0 {
		op.Result = []byte(row.Result)
	}
	return op
}

func effectiveStatus(status models.OperationStatus, expires, at time.Time) models.OperationStatus {
	if !status.IsFinished() && !expires.IsZero() && expires.Before(at) {
		return models.OperationFailed
	}
	return status
}

// Create stores a new operation, assigning a key when none is set. The
// status defaults to Enqueued.
func (r *LongRunningOperationRepository) Create(s *scope.Scope, op *models.LongRunningOperation) (err error) {
	defer observe(s, r.name(), "create", time.Now(), &err)

	if op.Type == "" {
		return invalid("operation type is required")
	}
	ts := now()
	op.Key = ensureKey(op.Key)
	if op.Status == "" {
		op.Status = models.OperationEnqueued
	}
	op.CreateDate, op.UpdateDate = ts, ts
	row := &dto.LongRunningOperationDTO{
		UniqueID:       keyString(op.Key),
		Type:           op.Type,
		Status:         string(op.Status),
		CreateDate:     ts,
		UpdateDate:     ts,
		ExpirationDate: op.ExpirationDate.UTC(),
	}
	if len(op.Result) > 0 {
		row.Result = datatypes.JSON(op.Result)
	}
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	op.ID = row.ID
	return nil
}

func (r *LongRunningOperationRepository) row(s *scope.Scope, key uuid.UUID) (*dto.LongRunningOperationDTO, error) {
	var rows []dto.LongRunningOperationDTO
	if err := s.DB().Where("unique_id = ?", keyString(key)).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Get returns the operation with the given key, or nil.
func (r *LongRunningOperationRepository) Get(s *scope.Scope, key uuid.UUID) (*models.LongRunningOperation, error) {
	row, err := r.row(s, key)
	if err != nil || row == nil {
		return nil, err
	}
	return operationFromRow(row, now()), nil
}

// GetByType returns operations of one type, oldest first, optionally
// restricted to statuses, skipping skip and returning at most take. The
// total counts every match. Status filtering uses the stored status.
func (r *LongRunningOperationRepository) GetByType(s *scope.Scope, opType string, statuses []models.OperationStatus, skip, take int) (items []*models.LongRunningOperation, total int64, err error) {
	defer observe(s, r.name(), "get_by_type", time.Now(), &err)

	if skip < 0 || take < 0 {
		return nil, 0, invalid("skip %d take %d", skip, take)
	}
	build := func() *gorm.DB {
		db := s.DB().Model(&dto.LongRunningOperationDTO{}).Where("type = ?", opType)
		if len(statuses) > 0 {
			values := make([]string, len(statuses))
			for i, st := range statuses {
				values[i] = string(st)
			}
			db = db.Where("status IN ?", values)
		}
		return db
	}
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || take == 0 {
		return []*models.LongRunningOperation{}, total, nil
	}

	var rows []dto.LongRunningOperationDTO
	if err := build().Order("create_date, id").Offset(skip).Limit(take).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	at := now()
	items = make([]*models.LongRunningOperation, len(rows))
	for i := range rows {
		items[i] = operationFromRow(&rows[i], at)
	}
	return items, total, nil
}

// GetStatus returns the status of an operation; ok is false when it does
// not exist.
func (r *LongRunningOperationRepository) GetStatus(s *scope.Scope, key uuid.UUID) (status models.OperationStatus, ok bool, err error) {
	row, err := r.row(s, key)
	if err != nil || row == nil {
		return "", false, err
	}
	return effectiveStatus(models.OperationStatus(row.Status), row.ExpirationDate, now()), true, nil
}

// UpdateStatus sets the status of an operation and, when expiration is
// non-zero, its new expiration date.
func (r *LongRunningOperationRepository) UpdateStatus(s *scope.Scope, key uuid.UUID, status models.OperationStatus, expiration time.Time) (err error) {
	defer observe(s, r.name(), "update_status", time.Now(), &err)

	values := map[string]any{"status": string(status), "update_date": now()}
	if !expiration.IsZero() {
		values["expiration_date"] = expiration.UTC()
	}
	return r.update(s, key, values)
}

func (r *LongRunningOperationRepository) update(s *scope.Scope, key uuid.UUID, values map[string]any) error {
	res := s.DB().Model(&dto.LongRunningOperationDTO{}).Where("unique_id = ?", keyString(key)).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("operation %s: %w", key, models.ErrNotFound)
	}
	return nil
}

// SetResult stores result as the JSON result of an operation.
func (r *LongRunningOperationRepository) SetResult(s *scope.Scope, key uuid.UUID, result any) (err error) {
	defer observe(s, r.name(), "set_result", time.Now(), &err)

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode operation result: %w", err)
	}
	return r.update(s, key, map[string]any{"result": datatypes.JSON(data), "update_date": now()})
}

// GetResult decodes the result of an operation into dest. It reports
// false when the operation does not exist or has no result.
func (r *LongRunningOperationRepository) GetResult(s *scope.Scope, key uuid.UUID, dest any) (bool, error) {
	row, err := r.row(s, key)
	if err != nil || row == nil || len(row.Result) == 0 {
		return false, err
	}
	if err := json.Unmarshal(row.Result, dest); err != nil {
		return false, fmt.Errorf("decode operation result: %w", err)
	}
	return true, nil
}

// CleanOperations deletes operations last updated before olderThan and
// returns how many were deleted.
func (r *LongRunningOperationRepository) CleanOperations(s *scope.Scope, olderThan time.Time) (deleted int64, err error) {
	defer observe(s, r.name(), "clean", time.Now(), &err)

	res := s.DB().Where("update_date < ?", olderThan.UTC()).Delete(&dto.LongRunningOperationDTO{})
	if res.Error != nil {
		return 0, res.Error
	}
	debug(s, "operations pruned", logger.KeyCount, res.RowsAffected, logger.KeyOlderThan, olderThan)
	return res.RowsAffected, nil
}
