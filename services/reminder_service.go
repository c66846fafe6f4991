package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"procurement_flow_go/models"

	"gorm.io/gorm"
)

// MaxReminderAttempts stops the sweeper from retrying a reminder forever
const MaxReminderAttempts = 10

// ReminderService schedules milestone reminders and fires them exactly once
type ReminderService struct {
	db       *gorm.DB
	notifier Notifier
	clock    Clock
	fallback string
}

// NewReminderService wires the scheduler. fallbackRecipient is used when a case has no owner email.
func NewReminderService(db *gorm.DB, notifier Notifier, clock Clock, fallbackRecipient string) *ReminderService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReminderService{db: db, notifier: notifier, clock: clock, fallback: fallbackRecipient}
}

// schedule keeps at most one pending reminder per case and type; a new date replaces the old one
func (s *ReminderService) schedule(tx *gorm.DB, c *models.ProcurementCase, typ models.ReminderType, dueAt time.Time) (*models.Reminder, error) {
	recipient := s.fallback
	if c.Owner != nil && c.Owner.Email != "" {
		recipient = c.Owner.Email
	}

	var pending models.Reminder
	err := tx.Where("case_id = ? AND type = ? AND sent_at IS NULL", c.ID, typ).First(&pending).Error
	switch {
	case err == nil:
		pending.DueAt = dueAt
		pending.Recipient = recipient
		if err := tx.Model(&pending).Updates(map[string]interface{}{
			"due_at":    dueAt,
			"recipient": recipient,
		}).Error; err != nil {
			return nil, fmt.Errorf("reschedule reminder: %w", err)
		}
		return &pending, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		reminder := models.Reminder{CaseID: c.ID, Type: typ, DueAt: dueAt, Recipient: recipient}
		if err := tx.Create(&reminder).Error; err != nil {
			return nil, fmt.Errorf("create reminder: %w", err)
		}
		log.Printf("[REMINDER] Scheduled %s for case %s at %s", typ, c.ReferenceNo, dueAt.Format(time.RFC3339))
		return &reminder, nil
	default:
		return nil, err
	}
}

// PendingForCase lists unsent reminders for a case, soonest first
func (s *ReminderService) PendingForCase(ctx context.Context, caseID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.WithContext(ctx).
		Where("case_id = ? AND sent_at IS NULL", caseID).
		Order("due_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// SweepDue notifies every unsent reminder due at or before now and marks it sent.
// The notifier is always attempted before sent_at is written, and the conditional
// update means a reminder is logged only by the sweep that actually marked it.
// A notifier failure leaves the reminder pending for the next sweep.
func (s *ReminderService) SweepDue(ctx context.Context, now time.Time) (int, error) {
	var due []models.Reminder
	err := s.db.WithContext(ctx).
		Preload("Case").
		Where("sent_at IS NULL AND due_at <= ? AND attempts < ?", now, MaxReminderAttempts).
		Order("due_at ASC").
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}

	processed := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		r := &due[i]

		subject, body := reminderMessage(r)
		if err := s.notifier.Send(ctx, r.Recipient, subject, body); err != nil {
			log.Printf("[REMINDER] Failed to notify %q for reminder %s: %v", r.Recipient, r.ID, err)
			s.db.WithContext(ctx).Model(&models.Reminder{}).
				Where("id = ? AND sent_at IS NULL", r.ID).
				Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": err.Error(),
				})
			continue
		}

		res := s.db.WithContext(ctx).Model(&models.Reminder{}).
			Where("id = ? AND sent_at IS NULL", r.ID).
			Updates(map[string]interface{}{
				"sent_at":    now,
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": "",
			})
		if res.Error != nil {
			log.Printf("[REMINDER] Failed to mark reminder %s sent: %v", r.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// another sweeper marked it first
			continue
		}

		AppendActivity(s.db.WithContext(ctx), ActivityEntry{
			CaseID:     r.CaseID,
			Action:     "reminder_sent",
			ChangeType: models.ChangeTypeUpdate,
			Payload: map[string]interface{}{
				"reminder_id": r.ID,
				"type":        r.Type,
				"due_at":      r.DueAt,
				"recipient":   r.Recipient,
			},
			At: now,
		})
		processed++
	}

	if processed > 0 {
		log.Printf("[REMINDER] Sweep sent %d of %d due reminders", processed, len(due))
	}
	return processed, nil
}

// SweepNow runs one sweep against the service clock
func (s *ReminderService) SweepNow(ctx context.Context) (int, error) {
	return s.SweepDue(ctx, s.clock.Now())
}

func reminderMessage(r *models.Reminder) (string, string) {
	ref, title := r.CaseID, ""
	if r.Case != nil {
		ref, title = r.Case.ReferenceNo, r.Case.Title
	}

	var what string
	switch r.Type {
	case models.ReminderPreBidConf:
		what = "Pre-bid conference"
	case models.ReminderBidOpening:
		what = "Bid opening / quotation deadline"
	case models.ReminderDeliveryDue:
		what = "Delivery due"
	default:
		what = string(r.Type)
	}

	subject := fmt.Sprintf("Reminder: %s for %s", what, ref)
	body := fmt.Sprintf("%s is scheduled for %s.\nCase: %s %s", what, r.DueAt.Format("Jan 2, 2006 15:04 MST"), ref, title)
	return subject, body
}
