package models

import "time"

// ServerRegistration records a server taking part in cache synchronization.
type ServerRegistration struct {
	EntityBase
	ServerAddress         string    `json:"server_address"`
	ServerIdentity        string    `json:"server_identity"`
	RegisteredDate        time.Time `json:"registered_date"`
	AccessedDate          time.Time `json:"accessed_date"`
	IsActive              bool      `json:"is_active"`
	IsSchedulingPublisher bool      `json:"is_scheduling_publisher"`
}
