package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordKind identifies a stage sub-record type
type RecordKind string

const (
	KindRFQ                  RecordKind = "rfq"
	KindQuotation            RecordKind = "quotation"
	KindBid                  RecordKind = "bid"
	KindBidBulletin          RecordKind = "bid_bulletin"
	KindPreBidConf           RecordKind = "pre_bid_conf"
	KindAbstractOfQuotations RecordKind = "abstract_of_quotations"
	KindTWGEvaluation        RecordKind = "twg_evaluation"
	KindPostQualification    RecordKind = "post_qualification"
	KindBACResolution        RecordKind = "bac_resolution"
	KindAward                RecordKind = "award"
	KindContract             RecordKind = "contract"
	KindNoticeToProceed      RecordKind = "notice_to_proceed"
	KindDelivery             RecordKind = "delivery"
	KindInspection           RecordKind = "inspection"
	KindORS                  RecordKind = "ors"
	KindDV                   RecordKind = "dv"
	KindCheck                RecordKind = "check"
	KindCheckAdvice          RecordKind = "check_advice"
	KindAttachment           RecordKind = "attachment"
)

// AllRecordKinds lists every sub-record kind a case can own
var AllRecordKinds = []RecordKind{
	KindRFQ,
	KindQuotation,
	KindBid,
	KindBidBulletin,
	KindPreBidConf,
	KindAbstractOfQuotations,
	KindTWGEvaluation,
	KindPostQualification,
	KindBACResolution,
	KindAward,
	KindContract,
	KindNoticeToProceed,
	KindDelivery,
	KindInspection,
	KindORS,
	KindDV,
	KindCheck,
	KindCheckAdvice,
	KindAttachment,
}

// StageRecord is the common shape of every sub-record owned by a case
type StageRecord interface {
	Kind() RecordKind
	GetID() string
	GetCaseID() string
	SetCaseID(caseID string)
	// Validate returns field-level problems, empty when the record is acceptable
	Validate() map[string]string
	// TextFields exposes free-text fields for sanitising
	TextFields() []*string
}

// Remindable is implemented by records that carry follow-up dates
type Remindable interface {
	ReminderDates() map[ReminderType]*time.Time
}

// NewRecord returns an empty record of the given kind, or nil if the kind is unknown
func NewRecord(kind RecordKind) StageRecord {
	switch kind {
	case KindRFQ:
		return &RFQ{}
	case KindQuotation:
		return &Quotation{}
	case KindBid:
		return &Bid{}
	case KindBidBulletin:
		return &BidBulletin{}
	case KindPreBidConf:
		return &PreBidConference{}
	case KindAbstractOfQuotations:
		return &AbstractOfQuotations{}
	case KindTWGEvaluation:
		return &TWGEvaluation{}
	case KindPostQualification:
		return &PostQualification{}
	case KindBACResolution:
		return &BACResolution{}
	case KindAward:
		return &Award{}
	case KindContract:
		return &Contract{}
	case KindNoticeToProceed:
		return &NoticeToProceed{}
	case KindDelivery:
		return &Delivery{}
	case KindInspection:
		return &Inspection{}
	case KindORS:
		return &ORS{}
	case KindDV:
		return &DV{}
	case KindCheck:
		return &Check{}
	case KindCheckAdvice:
		return &CheckAdvice{}
	case KindAttachment:
		return &Attachment{}
	}
	return nil
}

// SingletonRecord holds the columns shared by stages a case owns at most once
type SingletonRecord struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CaseID    string    `gorm:"type:uuid;not null;uniqueIndex" json:"case_id"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *SingletonRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *SingletonRecord) GetID() string           { return r.ID }
func (r *SingletonRecord) GetCaseID() string       { return r.CaseID }
func (r *SingletonRecord) SetCaseID(caseID string) { r.CaseID = caseID }

// RepeatableRecord holds the columns shared by stages a case may own many times
type RepeatableRecord struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CaseID    string    `gorm:"type:uuid;not null;index" json:"case_id"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *RepeatableRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *RepeatableRecord) GetID() string           { return r.ID }
func (r *RepeatableRecord) GetCaseID() string       { return r.CaseID }
func (r *RepeatableRecord) SetCaseID(caseID string) { r.CaseID = caseID }

// fieldErrors collects validation problems keyed by JSON field name
type fieldErrors map[string]string

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

func (f fieldErrors) positive(field string, value decimal.Decimal) {
	if !value.IsPositive() {
		f[field] = "must be greater than zero"
	}
}

func (f fieldErrors) notNegative(field string, value decimal.Decimal) {
	if value.IsNegative() {
		f[field] = "must not be negative"
	}
}

func (f fieldErrors) date(field string, value time.Time) {
	if value.IsZero() {
		f[field] = "is required"
	}
}
