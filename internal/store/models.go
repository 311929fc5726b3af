package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Device is one registered watch: a display name plus the webhook ID its
// companion app pushes to. Removing the row tears the webhook down.
type Device struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex" json:"name"`
	WebhookID string         `gorm:"uniqueIndex" json:"webhook_id"`
	Meta      datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TelemetryPoint is one accepted webhook payload, kept for history
// queries and pruned by the retention job. The live pipeline never reads
// from here; the in-memory snapshot is the source of truth.
type TelemetryPoint struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID   uuid.UUID      `gorm:"type:uuid;index:idx_device_ts,priority:1" json:"device_id"`
	TS         time.Time      `gorm:"index:idx_device_ts,priority:2" json:"ts"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	IngestedAt time.Time      `json:"ingested_at"`
}
