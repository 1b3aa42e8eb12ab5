package repository

import (
	"time"

	"gorm.io/datatypes"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/scope"
)

// CacheInstructionRepository is the append-only log servers use to tell
// each other which caches to refresh. Readers track the last id they
// processed; instructions are never cached.
type CacheInstructionRepository struct{}

// NewCacheInstructionRepository creates the cache instruction repository.
func NewCacheInstructionRepository() *CacheInstructionRepository {
	return &CacheInstructionRepository{}
}

func (r *CacheInstructionRepository) name() string { return "cache-instruction" }

func cacheInstructionFromRow(row *dto.CacheInstructionDTO) *models.CacheInstruction {
	return &models.CacheInstruction{
		ID:               row.ID,
		UtcStamp:         row.UtcStamp,
		Instructions:     []byte(row.JSONInstruction),
		OriginIdentity:   row.OriginIdentity,
		InstructionCount: row.InstructionCount,
	}
}

// Add appends an instruction batch and assigns its id.
func (r *CacheInstructionRepository) Add(s *scope.Scope, ci *models.CacheInstruction) (err error) {
	defer observe(s, r.name(), "add", time.Now(), &err)

	if ci.UtcStamp.IsZero() {
		ci.UtcStamp = now()
	}
	if ci.InstructionCount <= 0 {
		ci.InstructionCount = 1
	}
	payload := datatypes.JSON(ci.Instructions)
	if len(payload) == 0 {
		payload = datatypes.JSON("[]")
	}
	row := &dto.CacheInstructionDTO{
		UtcStamp:         ci.UtcStamp.UTC(),
		JSONInstruction:  payload,
		OriginIdentity:   ci.OriginIdentity,
		InstructionCount: ci.InstructionCount,
	}
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	ci.ID = row.ID
	return nil
}

// Count returns the number of stored batches.
func (r *CacheInstructionRepository) Count(s *scope.Scope) (int64, error) {
	var n int64
	err := s.DB().Model(&dto.CacheInstructionDTO{}).Count(&n).Error
	return n, err
}

// CountPending returns the number of instructions, summed over batches,
// stored after lastID.
func (r *CacheInstructionRepository) CountPending(s *scope.Scope, lastID int) (int64, error) {
	var n int64
	err := s.DB().Model(&dto.CacheInstructionDTO{}).Where("id > ?", lastID).
		Select("COALESCE(SUM(instruction_count), 0)").Scan(&n).Error
	return n, err
}

// MaxID returns the newest batch id, or 0.
func (r *CacheInstructionRepository) MaxID(s *scope.Scope) (int, error) {
	var id int
	err := s.DB().Model(&dto.CacheInstructionDTO{}).Select("COALESCE(MAX(id), 0)").Scan(&id).Error
	return id, err
}

// Exists reports whether the batch with id is stored.
func (r *CacheInstructionRepository) Exists(s *scope.Scope, id int) (bool, error) {
	var n int64
	err := s.DB().Model(&dto.CacheInstructionDTO{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// GetPending returns at most max batches stored after lastID, oldest first.
func (r *CacheInstructionRepository) GetPending(s *scope.Scope, lastID, max int) (items []*models.CacheInstruction, err error) {
	defer observe(s, r.name(), "get_pending", time.Now(), &err)

	db := s.DB().Where("id > ?", lastID).Order("id")
	if max > 0 {
		db = db.Limit(max)
	}
	var rows []dto.CacheInstructionDTO
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	items = make([]*models.CacheInstruction, len(rows))
	for i := range rows {
		items[i] = cacheInstructionFromRow(&rows[i])
	}
	return items, nil
}

// DeleteOlderThan deletes batches stamped before date. The newest batch
// is always kept so readers can resume from its id.
func (r *CacheInstructionRepository) DeleteOlderThan(s *scope.Scope, date time.Time) (deleted int64, err error) {
	defer observe(s, r.name(), "delete_older", time.Now(), &err)

	maxID, err := r.MaxID(s)
	if err != nil {
		return 0, err
	}
	res := s.DB().Where("utc_stamp < ? AND id < ?", date.UTC(), maxID).Delete(&dto.CacheInstructionDTO{})
	if res.Error != nil {
		return 0, res.Error
	}
	debug(s, "cache instructions pruned", logger.KeyCount, res.RowsAffected, logger.KeyOlderThan, date)
	return res.RowsAffected, nil
}
