package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"procurement_flow_go/models"
	"procurement_flow_go/services/workflow"

	"gorm.io/gorm"
)

// StageResult describes what a stage request did
type StageResult struct {
	Case   *models.ProcurementCase `json:"case"`
	Record models.StageRecord      `json:"record"`
	// Changed is true when the case moved to a new state
	Changed bool `json:"changed"`
	// Updated is true when an existing singleton was edited in place
	Updated bool   `json:"updated"`
	LogIDs  []uint `json:"log_ids"`
}

// TransitionRequest is the payload of the generic transition operation
type TransitionRequest struct {
	TargetState     models.CaseState `json:"target_state"`
	LegalBasis      string           `json:"legal_basis"`
	Override        bool             `json:"override"`
	ExpectedVersion int              `json:"expected_version"`
}

// TransitionResult describes the outcome of a generic transition
type TransitionResult struct {
	Case    *models.ProcurementCase `json:"case"`
	Changed bool                    `json:"changed"`
	LogID   uint                    `json:"log_id,omitempty"`
}

// control fields travel in the same JSON body as the record fields
type requestControl struct {
	LegalBasis      string `json:"legal_basis"`
	ExpectedVersion int    `json:"expected_version"`
	Reason          string `json:"reason"`
}

var reservedKeys = []string{"id", "case_id", "created_at", "updated_at", "legal_basis", "expected_version", "reason"}

// splitPayload separates control fields from record fields
func splitPayload(body []byte) (requestControl, json.RawMessage, error) {
	var ctrl requestControl
	if len(bytes.TrimSpace(body)) == 0 {
		return ctrl, json.RawMessage("{}"), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ctrl, nil, NewValidationError("body", "must be a JSON object")
	}
	if err := json.Unmarshal(body, &ctrl); err != nil {
		return ctrl, nil, NewValidationError("body", err.Error())
	}
	for _, key := range reservedKeys {
		delete(fields, key)
	}
	rest, err := json.Marshal(fields)
	if err != nil {
		return ctrl, nil, err
	}
	return ctrl, rest, nil
}

// decodeRecord merges record fields onto rec
func decodeRecord(fields json.RawMessage, rec models.StageRecord) error {
	if err := json.Unmarshal(fields, rec); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return NewValidationError(typeErr.Field, "has the wrong type")
		}
		return NewValidationError("body", err.Error())
	}
	return nil
}

func validateRecord(c *models.ProcurementCase, rec models.StageRecord) error {
	sanitizeRecord(rec)
	errs := rec.Validate()
	if check, ok := rec.(*models.Check); ok && c.DV != nil && check.Amount.IsPositive() {
		if net := c.DV.NetAmount(); !check.Amount.Equal(net) {
			if errs == nil {
				errs = map[string]string{}
			}
			errs["amount"] = "must equal the DV net amount of " + net.StringFixed(2)
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ApplyStage records a stage sub-record and moves the case into the stage's state, in one transaction.
// Recording a singleton that already exists edits it in place behind the lock gate without a state change.
func (s *ProcurementService) ApplyStage(ctx context.Context, actor *Actor, caseID, action string, body []byte) (*StageResult, error) {
	desc, ok := LookupStage(action)
	if !ok {
		return nil, notFound("stage", action)
	}
	if err := CheckRole(actor, desc.Roles()...); err != nil {
		return nil, err
	}

	ctrl, fields, err := splitPayload(body)
	if err != nil {
		return nil, err
	}
	legalBasis := SanitizeText(ctrl.LegalBasis)
	now := s.clock.Now()

	result := &StageResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if ctrl.ExpectedVersion > 0 && ctrl.ExpectedVersion != c.Version {
			return ErrConflict
		}
		if !kindUsedBy(c.Method, desc.Kind) {
			return &workflow.TransitionError{
				From:   c.CurrentState,
				To:     desc.Target,
				Reason: fmt.Sprintf("%s is not used by %s", desc.Kind, c.Method),
			}
		}

		if desc.Singleton {
			if existing := singletonOf(c, desc.Kind); existing != nil {
				reason := SanitizeText(ctrl.Reason)
				if reason == "" {
					return NewValidationError("reason", "is required to change an existing "+string(desc.Kind))
				}
				logID, err := s.overwriteRecord(tx, c, actor, existing, fields, desc.Action, legalBasis, reason, now)
				if err != nil {
					return err
				}
				result.Case, result.Record, result.Updated = c, existing, true
				result.LogIDs = appendID(result.LogIDs, logID)
				return nil
			}
		}

		from := c.CurrentState
		if err := workflow.AssertStageEntry(c, desc.Target, desc.Kind); err != nil {
			return err
		}

		rec := models.NewRecord(desc.Kind)
		if err := decodeRecord(fields, rec); err != nil {
			return err
		}
		rec.SetCaseID(c.ID)
		if err := validateRecord(c, rec); err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create %s: %w", desc.Kind, err)
		}

		changed := desc.Target != from
		if changed {
			if err := moveState(tx, c, desc.Target, now); err != nil {
				return err
			}
		}

		if changed && desc.EntryAction != "" {
			id, _ := AppendActivity(tx, ActivityEntry{
				CaseID:     c.ID,
				Action:     desc.EntryAction,
				From:       statePtr(from),
				To:         statePtr(desc.Target),
				LegalBasis: legalBasis,
				ChangeType: models.ChangeTypeTransition,
				Actor:      actor,
				At:         now,
			})
			result.LogIDs = appendID(result.LogIDs, id)
		}

		entry := ActivityEntry{
			CaseID:     c.ID,
			Action:     desc.Action,
			LegalBasis: legalBasis,
			ChangeType: models.ChangeTypeUpdate,
			Payload:    rec,
			Actor:      actor,
			At:         now,
		}
		if changed && desc.EntryAction == "" {
			entry.From, entry.To = statePtr(from), statePtr(desc.Target)
			entry.ChangeType = models.ChangeTypeTransition
		}
		id, _ := AppendActivity(tx, entry)
		result.LogIDs = appendID(result.LogIDs, id)

		s.scheduleReminders(tx, c, rec, now)

		result.Case, result.Record, result.Changed = c, rec, changed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transition moves a case to an explicit target state. Moving to the current state is a no-op.
// Override lifts the ordering rules and is honoured for admins only.
func (s *ProcurementService) Transition(ctx context.Context, actor *Actor, caseID string, req TransitionRequest) (*TransitionResult, error) {
	if err := CheckRole(actor, CaseManagers...); err != nil {
		return nil, err
	}
	if req.Override && !workflow.HasAdminOverride(actor.Role) {
		return nil, ErrForbidden
	}
	if !req.TargetState.IsValid() {
		return nil, NewValidationError("target_state", "is not a known state")
	}
	legalBasis := SanitizeText(req.LegalBasis)
	now := s.clock.Now()

	result := &TransitionResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if req.ExpectedVersion > 0 && req.ExpectedVersion != c.Version {
			return ErrConflict
		}
		if err := workflow.AssertCanTransition(c, req.TargetState, req.Override); err != nil {
			return err
		}

		result.Case = c
		from := c.CurrentState
		if from == req.TargetState {
			return nil
		}

		if err := moveState(tx, c, req.TargetState, now); err != nil {
			return err
		}
		result.Changed = true
		result.LogID, _ = AppendActivity(tx, ActivityEntry{
			CaseID:     c.ID,
			Action:     "transition",
			From:       statePtr(from),
			To:         statePtr(req.TargetState),
			LegalBasis: legalBasis,
			ChangeType: models.ChangeTypeTransition,
			Actor:      actor,
			IsOverride: req.Override,
			At:         now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Changed && req.Override {
		log.Printf("[AUDIT] Override transition on case %s to %s by %s", result.Case.ReferenceNo, req.TargetState, actor.UserID)
	}
	return result, nil
}

// UpdateRecord edits a sub-record behind the lock gate. The body carries the changed
// fields plus a mandatory reason.
func (s *ProcurementService) UpdateRecord(ctx context.Context, actor *Actor, caseID string, kind models.RecordKind, recordID string, body []byte) (models.StageRecord, error) {
	if actor == nil || actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	ctrl, fields, err := splitPayload(body)
	if err != nil {
		return nil, err
	}
	reason := SanitizeText(ctrl.Reason)
	if reason == "" {
		return nil, NewValidationError("reason", "is required")
	}
	now := s.clock.Now()

	var rec models.StageRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		rec, err = findRecord(tx, c.ID, kind, recordID)
		if err != nil {
			return err
		}
		if _, err := gateRecord(c, actor, kind); err != nil {
			return err
		}
		_, err = s.overwriteRecord(tx, c, actor, rec, fields, "update_"+string(kind), SanitizeText(ctrl.LegalBasis), reason, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes a sub-record behind the lock gate. The case state is left as is.
func (s *ProcurementService) DeleteRecord(ctx context.Context, actor *Actor, caseID string, kind models.RecordKind, recordID, reason string) error {
	if actor == nil || actor.UserID == "" {
		return ErrUnauthorized
	}
	reason = SanitizeText(reason)
	if reason == "" {
		return NewValidationError("reason", "is required")
	}
	now := s.clock.Now()

	var removedKey string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		rec, err := findRecord(tx, c.ID, kind, recordID)
		if err != nil {
			return err
		}

		locked, err := gateRecord(c, actor, kind)
		if err != nil {
			return err
		}

		before := toJSON(rec)
		if err := tx.Delete(rec).Error; err != nil {
			return fmt.Errorf("failed to delete %s: %w", kind, err)
		}
		if att, ok := rec.(*models.Attachment); ok {
			removedKey = att.FileKey
		}

		AppendActivity(tx, ActivityEntry{
			CaseID:     c.ID,
			Action:     "delete_" + string(kind),
			ChangeType: models.ChangeTypeDelete,
			Payload:    map[string]interface{}{"record_id": recordID, "kind": kind, "reason": reason},
			Before:     before,
			Actor:      actor,
			IsOverride: locked,
			At:         now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if removedKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, removedKey); err != nil {
			log.Printf("[STORAGE] Failed to remove %s after record delete: %v", removedKey, err)
		}
	}
	return nil
}

// Permissions returns the lock and edit preview for every record kind on the case
func (s *ProcurementService) Permissions(ctx context.Context, actor *Actor, caseID string) (map[models.RecordKind]workflow.RecordPermissions, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	c, err := loadCase(s.db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	return workflow.Permissions(actor.Role, c), nil
}

// overwriteRecord applies fields to an existing record after the lock gate and logs the diff
func (s *ProcurementService) overwriteRecord(tx *gorm.DB, c *models.ProcurementCase, actor *Actor, rec models.StageRecord, fields json.RawMessage, action, legalBasis, reason string, now time.Time) (uint, error) {
	kind := rec.Kind()
	lock := workflow.EvaluateLock(kind, c)
	if lock.Locked && !workflow.HasAdminOverride(actor.Role) {
		return 0, &LockedError{Kind: kind, Reason: lock.Reason}
	}

	before := toJSON(rec)
	if err := decodeRecord(fields, rec); err != nil {
		return 0, err
	}
	if err := validateRecord(c, rec); err != nil {
		return 0, err
	}
	if err := tx.Save(rec).Error; err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", kind, err)
	}

	payload := map[string]interface{}{"record_id": rec.GetID(), "kind": kind}
	if reason != "" {
		payload["reason"] = reason
	}
	id, _ := AppendActivity(tx, ActivityEntry{
		CaseID:     c.ID,
		Action:     action,
		LegalBasis: legalBasis,
		ChangeType: models.ChangeTypeUpdate,
		Payload:    payload,
		Before:     before,
		After:      rec,
		Actor:      actor,
		IsOverride: lock.Locked,
		At:         now,
	})

	s.scheduleReminders(tx, c, rec, now)
	return id, nil
}

// moveState writes the new state guarded by the optimistic version counter
func moveState(tx *gorm.DB, c *models.ProcurementCase, target models.CaseState, now time.Time) error {
	res := tx.Model(&models.ProcurementCase{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"current_state":    target,
			"version":          gorm.Expr("version + 1"),
			"state_changed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update case state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	c.CurrentState = target
	c.Version++
	c.StateChangedAt = &now
	return nil
}

// scheduleReminders creates reminders for future dates carried by the record.
// Each runs in its own savepoint; a scheduling failure never fails the stage.
func (s *ProcurementService) scheduleReminders(tx *gorm.DB, c *models.ProcurementCase, rec models.StageRecord, now time.Time) {
	if s.reminders == nil {
		return
	}
	remindable, ok := rec.(models.Remindable)
	if !ok {
		return
	}
	for typ, due := range remindable.ReminderDates() {
		if due == nil || !due.After(now) {
			continue
		}
		err := tx.Transaction(func(sp *gorm.DB) error {
			_, err := s.reminders.schedule(sp, c, typ, *due)
			return err
		})
		if err != nil {
			log.Printf("[REMINDER] Failed to schedule %s for case %s: %v", typ, c.ID, err)
		}
	}
}

func findRecord(tx *gorm.DB, caseID string, kind models.RecordKind, recordID string) (models.StageRecord, error) {
	rec := models.NewRecord(kind)
	if rec == nil {
		return nil, notFound("record kind", string(kind))
	}
	if err := tx.Where("id = ? AND case_id = ?", recordID, caseID).First(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(string(kind), recordID)
		}
		return nil, err
	}
	return rec, nil
}

// gateRecord runs the lock gate before the role check, so a locked record
// answers LockedError to every non-admin. It reports whether the lock was overridden.
func gateRecord(c *models.ProcurementCase, actor *Actor, kind models.RecordKind) (bool, error) {
	lock := workflow.EvaluateLock(kind, c)
	if lock.Locked && !workflow.HasAdminOverride(actor.Role) {
		return false, &LockedError{Kind: kind, Reason: lock.Reason}
	}
	if !workflow.HasBasicEdit(actor.Role, kind) {
		return false, ErrForbidden
	}
	return lock.Locked, nil
}

func appendID(ids []uint, id uint) []uint {
	if id == 0 {
		return ids
	}
	return append(ids, id)
}

// ParseRecordKind validates a record kind from a URL segment
func ParseRecordKind(raw string) (models.RecordKind, bool) {
	kind := models.RecordKind(strings.ToLower(raw))
	return kind, models.NewRecord(kind) != nil
}
