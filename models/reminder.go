package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderType names the milestone a reminder follows up on
type ReminderType string

const (
	ReminderPreBidConf  ReminderType = "PRE_BID_CONF"
	ReminderBidOpening  ReminderType = "BID_OPENING"
	ReminderDeliveryDue ReminderType = "DELIVERY_DUE"
)

// Reminder is a time-triggered follow-up; SentAt is set exactly once by the sweeper
type Reminder struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CaseID    string       `gorm:"type:uuid;not null;index" json:"case_id"`
	Type      ReminderType `gorm:"not null" json:"type"`
	DueAt     time.Time    `gorm:"not null;index:idx_reminder_pending,priority:2" json:"due_at"`
	SentAt    *time.Time   `gorm:"index:idx_reminder_pending,priority:1" json:"sent_at,omitempty"`
	Recipient string       `json:"recipient,omitempty"`
	Attempts  int          `gorm:"not null;default:0" json:"attempts"`
	LastError string       `gorm:"type:text" json:"last_error,omitempty"`

	Case *ProcurementCase `gorm:"foreignKey:CaseID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Reminder model
func (Reminder) TableName() string {
	return "reminders"
}
