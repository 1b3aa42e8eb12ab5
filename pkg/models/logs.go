package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CacheInstruction is a batch of cache refresher instructions emitted by one server.
type CacheInstruction struct {
	ID               int             `json:"id"`
	UtcStamp         time.Time       `json:"utc_stamp"`
	Instructions     json.RawMessage `json:"instructions"`
	OriginIdentity   string          `json:"origin_identity"`
	InstructionCount int             `json:"instruction_count"`
}

// AuditType classifies an audit entry.
type AuditType string

const (
	AuditNew            AuditType = "New"
	AuditSave           AuditType = "Save"
	AuditSaveVariant    AuditType = "SaveVariant"
	AuditOpen           AuditType = "Open"
	AuditDelete         AuditType = "Delete"
	AuditPublish        AuditType = "Publish"
	AuditPublishVariant AuditType = "PublishVariant"
	AuditUnpublish      AuditType = "Unpublish"
	AuditMove           AuditType = "Move"
	AuditCopy           AuditType = "Copy"
	AuditRollBack       AuditType = "RollBack"
	AuditSort           AuditType = "Sort"
	AuditSystem         AuditType = "System"
	AuditCustom         AuditType = "Custom"
)

// AuditItem is an append-only audit log entry.
type AuditItem struct {
	ID         int               `json:"id"`
	EntityID   int               `json:"entity_id"`
	UserID     int               `json:"user_id"`
	EntityType string            `json:"entity_type"`
	AuditType  AuditType         `json:"audit_type"`
	Comment    string            `json:"comment"`
	Parameters map[string]string `json:"parameters,omitempty"`
	CreateDate time.Time         `json:"create_date"`
}

// OperationStatus is the lifecycle state of a long-running operation.
type OperationStatus string

const (
	OperationEnqueued OperationStatus = "Enqueued"
	OperationRunning  OperationStatus = "Running"
	OperationSuccess  OperationStatus = "Success"
	OperationFailed   OperationStatus = "Failed"
)

// IsFinished reports whether the status is terminal.
func (s OperationStatus) IsFinished() bool {
	return s == OperationSuccess || s == OperationFailed
}

// LongRunningOperation tracks a background task by type and status.
type LongRunningOperation struct {
	ID             int             `json:"id"`
	Key            uuid.UUID       `json:"key"`
	Type           string          `json:"type"`
	Status         OperationStatus `json:"status"`
	Result         json.RawMessage `json:"result,omitempty"`
	CreateDate     time.Time       `json:"create_date"`
	UpdateDate     time.Time       `json:"update_date"`
	ExpirationDate time.Time       `json:"expiration_date"`
}
