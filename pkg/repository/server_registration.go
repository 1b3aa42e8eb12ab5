package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/persistence/dto"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// ServerRegistrationRepository stores the servers of a load-balanced
// installation. Server identities are unique; a duplicate fails with the
// database's uniqueness error.
type ServerRegistrationRepository struct {
	*Repository[*models.ServerRegistration]
}

// NewServerRegistrationRepository creates the server registration repository.
func NewServerRegistrationRepository() *ServerRegistrationRepository {
	r := &ServerRegistrationRepository{}
	r.Repository = newRepository[*models.ServerRegistration](r, regionServerRegistration,
		func() *models.ServerRegistration { return &models.ServerRegistration{} })
	return r
}

var serverRegistrationFields = query.FieldMap{
	"id":                    "server_registrations.id",
	"key":                   "server_registrations.unique_id",
	"serverAddress":         "server_registrations.address",
	"serverIdentity":        "server_registrations.computer_name",
	"registeredDate":        "server_registrations.registered_date",
	"accessedDate":          "server_registrations.accessed_date",
	"isActive":              "server_registrations.is_active",
	"isSchedulingPublisher": "server_registrations.is_scheduling_publisher",
}

func (r *ServerRegistrationRepository) name() string           { return "server-registration" }
func (r *ServerRegistrationRepository) fields() query.FieldMap { return serverRegistrationFields }
func (r *ServerRegistrationRepository) idColumn() string       { return "server_registrations.id" }
func (r *ServerRegistrationRepository) keyColumn() string      { return "server_registrations.unique_id" }

func (r *ServerRegistrationRepository) baseQuery(s *scope.Scope) *gorm.DB {
	return s.DB().Model(&dto.ServerRegistrationDTO{})
}

func (r *ServerRegistrationRepository) load(s *scope.Scope, where clause.Expression) ([]*models.ServerRegistration, error) {
	db := r.baseQuery(s)
	if where != nil {
		db = db.Where(where)
	}
	var rows []dto.ServerRegistrationDTO
	if err := db.Order("server_registrations.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.ServerRegistration, len(rows))
	for i, row := range rows {
		sr := &models.ServerRegistration{
			ServerAddress:         row.Address,
			ServerIdentity:        row.ComputerName,
			RegisteredDate:        row.RegisteredDate,
			AccessedDate:          row.AccessedDate,
			IsActive:              row.IsActive,
			IsSchedulingPublisher: row.IsSchedulingPublisher,
		}
		sr.ID = row.ID
		sr.Key = parseKey(row.UniqueID)
		sr.CreateDate = row.RegisteredDate
		sr.UpdateDate = row.AccessedDate
		out[i] = sr
	}
	return out, nil
}

func serverRegistrationRow(sr *models.ServerRegistration) *dto.ServerRegistrationDTO {
	return &dto.ServerRegistrationDTO{
		ID:                    sr.ID,
		UniqueID:              keyString(sr.Key),
		Address:               sr.ServerAddress,
		ComputerName:          sr.ServerIdentity,
		RegisteredDate:        sr.RegisteredDate,
		AccessedDate:          sr.AccessedDate,
		IsActive:              sr.IsActive,
		IsSchedulingPublisher: sr.IsSchedulingPublisher,
	}
}

// stampServer sets the registration date once and the access date on every save.
func stampServer(sr *models.ServerRegistration) {
	if sr.RegisteredDate.IsZero() {
		sr.RegisteredDate = sr.CreateDate
	}
	sr.AccessedDate = sr.UpdateDate
}

func (r *ServerRegistrationRepository) insert(s *scope.Scope, sr *models.ServerRegistration) error {
	if sr.ServerIdentity == "" {
		return invalid("server identity is required")
	}
	stampServer(sr)
	row := serverRegistrationRow(sr)
	if err := s.DB().Create(row).Error; err != nil {
		return err
	}
	sr.ID = row.ID
	return nil
}

func (r *ServerRegistrationRepository) update(s *scope.Scope, sr *models.ServerRegistration) error {
	stampServer(sr)
	return updateRow(s.DB(), serverRegistrationRow(sr))
}

func (r *ServerRegistrationRepository) remove(s *scope.Scope, sr *models.ServerRegistration) error {
	res := s.DB().Delete(&dto.ServerRegistrationDTO{}, sr.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByIdentity returns the registration of a server, or nil.
func (r *ServerRegistrationRepository) GetByIdentity(s *scope.Scope, identity string) (*models.ServerRegistration, error) {
	items, err := r.Query(s, query.New().Where(query.Eq("serverIdentity", identity)))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// GetActive returns the active servers.
func (r *ServerRegistrationRepository) GetActive(s *scope.Scope) ([]*models.ServerRegistration, error) {
	return r.Query(s, query.New().Where(query.Eq("isActive", true)))
}

// DeactivateStaleServers deactivates every server not seen within
// staleTimeout and returns how many were deactivated.
func (r *ServerRegistrationRepository) DeactivateStaleServers(s *scope.Scope, staleTimeout time.Duration) (n int64, err error) {
	defer observe(s, r.name(), "deactivate_stale", time.Now(), &err)

	cutoff := now().Add(-staleTimeout)
	res := s.DB().Model(&dto.ServerRegistrationDTO{}).
		Where("is_active = ? AND accessed_date < ?", true, cutoff).
		Updates(map[string]any{"is_active": false, "is_scheduling_publisher": false})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.ClearCache(s)
		debug(s, "servers deactivated", logger.KeyCount, res.RowsAffected, logger.KeyOlderThan, cutoff)
	}
	return res.RowsAffected, nil
}
