package models

import (
	"time"
)

// IdempotencyKey records that an action was accepted for a client-supplied key.
// Key is the composite "{action}:{caseId}:{clientKey}".
type IdempotencyKey struct {
	Key       string    `gorm:"column:composite_key;primaryKey;size:255" json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for IdempotencyKey model
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
