package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChangeType classifies an activity log entry
type ChangeType string

const (
	ChangeTypeTransition ChangeType = "TRANSITION"
	ChangeTypeUpdate     ChangeType = "UPDATE"
	ChangeTypeDelete     ChangeType = "DELETE"
)

// ErrImmutableLog is returned when something tries to rewrite history
var ErrImmutableLog = errors.New("activity log entries are append-only")

// ActivityLog is an immutable record of something that happened to a case.
// The autoincrement ID doubles as the tie-breaker when two entries share a timestamp.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null;index:idx_activity_case_created,priority:2" json:"created_at"`

	CaseID string `gorm:"type:uuid;not null;index:idx_activity_case_created,priority:1" json:"case_id"`
	Action string `gorm:"not null;index" json:"action"`

	FromState  *CaseState `gorm:"type:varchar(32)" json:"from_state,omitempty"`
	ToState    *CaseState `gorm:"type:varchar(32)" json:"to_state,omitempty"`
	LegalBasis string     `gorm:"type:text" json:"legal_basis,omitempty"`
	ChangeType ChangeType `gorm:"not null;default:TRANSITION" json:"change_type"`

	Payload datatypes.JSON `json:"payload,omitempty"`
	Before  datatypes.JSON `json:"before,omitempty"`
	After   datatypes.JSON `json:"after,omitempty"`

	// Actor (denormalized for historical accuracy)
	ActorID    *string `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	ActorRole  string  `json:"actor_role,omitempty"`
	IsOverride bool    `gorm:"not null;default:false" json:"is_override"`
}

// FieldChange represents a single field difference between Before and After
type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// Changes diffs the Before and After snapshots, sorted by field name
func (a *ActivityLog) Changes() []FieldChange {
	var changes []FieldChange
	oldMap := make(map[string]interface{})
	newMap := make(map[string]interface{})

	if len(a.Before) > 0 {
		_ = json.Unmarshal(a.Before, &oldMap)
	}
	if len(a.After) > 0 {
		_ = json.Unmarshal(a.After, &newMap)
	}

	keys := make(map[string]struct{})
	for k := range oldMap {
		keys[k] = struct{}{}
	}
	for k := range newMap {
		keys[k] = struct{}{}
	}

	for k := range keys {
		o := oldMap[k]
		n := newMap[k]
		if !reflect.DeepEqual(o, n) {
			changes = append(changes, FieldChange{Field: k, Old: o, New: n})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// IsStateChange reports whether the entry records a move between two different states
func (a *ActivityLog) IsStateChange() bool {
	return a.FromState != nil && a.ToState != nil && *a.FromState != *a.ToState
}

// BeforeUpdate prevents modification of activity logs
func (a *ActivityLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLog
}

// BeforeDelete prevents deletion of activity logs
func (a *ActivityLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLog
}

// TableName specifies the table name
func (ActivityLog) TableName() string {
	return "activity_logs"
}
