package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"procurement_flow_go/models"
	"procurement_flow_go/services/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcurementService owns every case-mutating operation
type ProcurementService struct {
	db        *gorm.DB
	clock     Clock
	reminders *ReminderService
	storage   StorageProvider
}

// NewProcurementService wires the service. reminders and storage may be nil.
func NewProcurementService(db *gorm.DB, clock Clock, reminders *ReminderService, storage StorageProvider) *ProcurementService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProcurementService{db: db, clock: clock, reminders: reminders, storage: storage}
}

// CaseCreators may open new procurement cases
var CaseCreators = []models.Role{models.RoleAdmin, models.RoleBACSecretariat, models.RoleRequisitioner}

// CaseManagers may delete cases and drive generic transitions
var CaseManagers = []models.Role{models.RoleAdmin, models.RoleBACSecretariat}

// CreateCaseInput is the payload for opening a case
type CreateCaseInput struct {
	Title      string                   `json:"title"`
	Method     models.ProcurementMethod `json:"method"`
	LegalBasis string                   `json:"legal_basis"`
}

// CaseFilter narrows case listings
type CaseFilter struct {
	State    models.CaseState
	Method   models.ProcurementMethod
	Search   string
	Page     int
	PageSize int
}

// GenerateReferenceNo returns the next PR-YYYY-NNNNN number for the year
func GenerateReferenceNo(db *gorm.DB, now time.Time) (string, error) {
	year := now.Year()
	prefix := fmt.Sprintf("PR-%d-", year)

	// Unscoped so numbers of soft-deleted cases are never reused
	var last models.ProcurementCase
	err := db.Unscoped().
		Where("reference_no LIKE ?", prefix+"%").
		Order("reference_no DESC").
		First(&last).Error

	sequence := 1
	if err == nil {
		var parsedYear, parsed int
		if _, scanErr := fmt.Sscanf(last.ReferenceNo, "PR-%d-%d", &parsedYear, &parsed); scanErr == nil {
			sequence = parsed + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to query last reference number: %w", err)
	}

	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// CreateCase opens a case in DRAFT
func (s *ProcurementService) CreateCase(ctx context.Context, actor *Actor, in CreateCaseInput) (*models.ProcurementCase, error) {
	if err := CheckRole(actor, CaseCreators...); err != nil {
		return nil, err
	}

	in.Title = SanitizeText(in.Title)
	in.LegalBasis = SanitizeText(in.LegalBasis)
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "is required"
	}
	if !in.Method.IsValid() {
		fields["method"] = "must be one of SMALL_VALUE_RFQ, INFRASTRUCTURE, PUBLIC_BIDDING"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := s.clock.Now()
	var created *models.ProcurementCase
	var err error
	// A concurrent create can take the same reference number; retry a few times
	for attempt := 0; attempt < 3; attempt++ {
		created, err = s.createCase(ctx, actor, in, now)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	return created, err
}

func (s *ProcurementService) createCase(ctx context.Context, actor *Actor, in CreateCaseInput, now time.Time) (*models.ProcurementCase, error) {
	var c *models.ProcurementCase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := GenerateReferenceNo(tx, now)
		if err != nil {
			return err
		}
		c = &models.ProcurementCase{
			ReferenceNo:  ref,
			Title:        in.Title,
			Method:       in.Method,
			CurrentState: models.StateDraft,
			Version:      1,
			OwnerID:      actor.IDPtr(),
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		AppendActivity(tx, ActivityEntry{
			CaseID:     c.ID,
			Action:     "create_case",
			LegalBasis: in.LegalBasis,
			ChangeType: models.ChangeTypeUpdate,
			Payload: map[string]interface{}{
				"reference_no": c.ReferenceNo,
				"title":        c.Title,
				"method":       c.Method,
			},
			Actor: actor,
			At:    now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Case %s created (%s) by %s", c.ReferenceNo, c.Method, actor.UserID)
	return c, nil
}

// GetCase loads a case with all of its records
func (s *ProcurementService) GetCase(ctx context.Context, caseID string) (*models.ProcurementCase, error) {
	c, err := loadCase(s.db.WithContext(ctx), caseID)
	if err != nil {
		return nil, err
	}
	c.NextStates = workflow.Successors(c.Method, c.CurrentState)
	return c, nil
}

// ListCases returns a page of cases, newest first, and the total count
func (s *ProcurementService) ListCases(ctx context.Context, filter CaseFilter) ([]models.ProcurementCase, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ProcurementCase{})
	if filter.State != "" {
		query = query.Where("current_state = ?", filter.State)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("title LIKE ? OR reference_no LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	var cases []models.ProcurementCase
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&cases).Error
	return cases, total, err
}

// DeleteCase soft-deletes a case that has no recorded stages.
// Cases with sub-records are kept; their history is the audit trail.
func (s *ProcurementService) DeleteCase(ctx context.Context, actor *Actor, caseID, reason string) error {
	if err := CheckRole(actor, CaseManagers...); err != nil {
		return err
	}
	reason = SanitizeText(reason)
	if reason == "" {
		return NewValidationError("reason", "is required")
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if c.HasStageRecords() {
			return &workflow.TransitionError{From: c.CurrentState, To: c.CurrentState, Reason: "case has recorded stages"}
		}

		if err := tx.Where("case_id = ? AND sent_at IS NULL", c.ID).Delete(&models.Reminder{}).Error; err != nil {
			return fmt.Errorf("failed to drop pending reminders: %w", err)
		}
		if err := tx.Delete(&models.ProcurementCase{}, "id = ?", c.ID).Error; err != nil {
			return fmt.Errorf("failed to delete case: %w", err)
		}

		AppendActivity(tx, ActivityEntry{
			CaseID:     c.ID,
			Action:     "delete_case",
			ChangeType: models.ChangeTypeDelete,
			Payload:    map[string]interface{}{"reason": reason},
			Before: map[string]interface{}{
				"reference_no":  c.ReferenceNo,
				"title":         c.Title,
				"method":        c.Method,
				"current_state": c.CurrentState,
			},
			Actor: actor,
			At:    now,
		})
		return nil
	})
}

// loadCase reads a case and every relation the guards consult
func loadCase(tx *gorm.DB, caseID string) (*models.ProcurementCase, error) {
	var c models.ProcurementCase
	err := tx.Preload(clause.Associations).First(&c, "id = ?", caseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("case", caseID)
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return &c, nil
}
