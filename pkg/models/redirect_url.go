package models

import (
	"time"

	"github.com/google/uuid"
)

// RedirectURL records a former URL of a content item.
type RedirectURL struct {
	EntityBase
	ContentKey    uuid.UUID `json:"content_key"`
	ContentID     int       `json:"content_id,omitempty"`
	URL           string    `json:"url"`
	Culture       string    `json:"culture,omitempty"`
	CreateDateUTC time.Time `json:"create_date_utc"`
}
