package services

import (
	"encoding/json"
	"log"
	"time"

	"procurement_flow_go/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEntry is what callers supply to the activity log
type ActivityEntry struct {
	CaseID     string
	Action     string
	From       *models.CaseState
	To         *models.CaseState
	LegalBasis string
	ChangeType models.ChangeType
	Payload    interface{}
	Before     interface{}
	After      interface{}
	Actor      *Actor
	IsOverride bool
	At         time.Time
}

// AppendActivity writes one immutable entry and returns its id.
// The insert runs in its own savepoint when tx is inside a transaction, so a failed
// write never undoes the state change that triggered it. Failures are reported on
// the [AUDIT] channel and returned for callers that care.
func AppendActivity(tx *gorm.DB, entry ActivityEntry) (uint, error) {
	row := models.ActivityLog{
		CaseID:     entry.CaseID,
		Action:     entry.Action,
		FromState:  entry.From,
		ToState:    entry.To,
		LegalBasis: entry.LegalBasis,
		ChangeType: entry.ChangeType,
		Payload:    toJSON(entry.Payload),
		Before:     toJSON(entry.Before),
		After:      toJSON(entry.After),
		IsOverride: entry.IsOverride,
		CreatedAt:  entry.At,
	}
	if row.ChangeType == "" {
		row.ChangeType = models.ChangeTypeTransition
	}
	if entry.Actor != nil {
		row.ActorID = entry.Actor.IDPtr()
		row.ActorRole = string(entry.Actor.Role)
	}

	err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&row).Error
	})
	if err != nil {
		log.Printf("[AUDIT] Failed to append %q for case %s: %v", entry.Action, entry.CaseID, err)
		return 0, err
	}
	return row.ID, nil
}

// GetCaseActivity returns the case timeline in creation order, ties broken by log id
func GetCaseActivity(db *gorm.DB, caseID string) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := db.Where("case_id = ?", caseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

// LogSecurityEvent reports security-relevant events on the standard log
func LogSecurityEvent(eventType, subject, details string) {
	log.Printf("[SECURITY] %s | Subject: %s | Details: %s", eventType, subject, details)
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	if raw, ok := v.(datatypes.JSON); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[AUDIT] Failed to encode snapshot: %v", err)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}

func statePtr(s models.CaseState) *models.CaseState {
	return &s
}
