package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseState is the lifecycle position of a procurement case
type CaseState string

// Main track
const (
	StateDraft                CaseState = "DRAFT"
	StateRFQIssued            CaseState = "RFQ_ISSUED"
	StateQuotationCollection  CaseState = "QUOTATION_COLLECTION"
	StateAbstractOfQuotations CaseState = "ABSTRACT_OF_QUOTATIONS"
	StateBACResolution        CaseState = "BAC_RESOLUTION"
	StateAward                CaseState = "AWARD"
	StateContract             CaseState = "CONTRACT"
	StateNoticeToProceed      CaseState = "NOTICE_TO_PROCEED"
	StateDelivery             CaseState = "DELIVERY"
	StateInspection           CaseState = "INSPECTION"
	StateAcceptance           CaseState = "ACCEPTANCE"
	StateORS                  CaseState = "ORS"
	StateDV                   CaseState = "DV"
	StateCheck                CaseState = "CHECK"
	StateClosed               CaseState = "CLOSED"
)

// Parallel track (competitive bidding only)
const (
	StateBidBulletin       CaseState = "BID_BULLETIN"
	StatePreBidConf        CaseState = "PRE_BID_CONF"
	StateTWGEvaluation     CaseState = "TWG_EVALUATION"
	StatePostQualification CaseState = "POST_QUALIFICATION"
	StateCheckAdvice       CaseState = "CHECK_ADVICE"
)

// AllStates lists every state in lifecycle order
var AllStates = []CaseState{
	StateDraft,
	StateRFQIssued,
	StateBidBulletin,
	StatePreBidConf,
	StateQuotationCollection,
	StateAbstractOfQuotations,
	StateTWGEvaluation,
	StatePostQualification,
	StateBACResolution,
	StateAward,
	StateContract,
	StateNoticeToProceed,
	StateDelivery,
	StateInspection,
	StateAcceptance,
	StateORS,
	StateDV,
	StateCheck,
	StateCheckAdvice,
	StateClosed,
}

// IsValid checks if the state is one of the enumerated states
func (s CaseState) IsValid() bool {
	for _, state := range AllStates {
		if state == s {
			return true
		}
	}
	return false
}

// ProcurementMethod selects which track of the lifecycle a case follows
type ProcurementMethod string

const (
	MethodSmallValueRFQ  ProcurementMethod = "SMALL_VALUE_RFQ"
	MethodInfrastructure ProcurementMethod = "INFRASTRUCTURE"
	MethodPublicBidding  ProcurementMethod = "PUBLIC_BIDDING"
)

// IsValid checks if the method is supported
func (m ProcurementMethod) IsValid() bool {
	switch m {
	case MethodSmallValueRFQ, MethodInfrastructure, MethodPublicBidding:
		return true
	}
	return false
}

// IsCompetitiveBidding reports whether the method runs the bidding track
func (m ProcurementMethod) IsCompetitiveBidding() bool {
	return m == MethodPublicBidding || m == MethodInfrastructure
}

// ProcurementCase is the root entity; every stage record belongs to exactly one case
type ProcurementCase struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReferenceNo string            `gorm:"not null;uniqueIndex" json:"reference_no"`
	Title       string            `gorm:"not null" json:"title"`
	Method      ProcurementMethod `gorm:"not null;index" json:"method"`

	// CurrentState is the only authority for the lifecycle position
	CurrentState   CaseState  `gorm:"not null;default:DRAFT;index" json:"current_state"`
	Version        int        `gorm:"not null;default:1" json:"version"`
	StateChangedAt *time.Time `json:"state_changed_at,omitempty"`

	// NextStates is filled on read with the forward moves the method allows
	NextStates []CaseState `gorm:"-" json:"next_states,omitempty"`

	OwnerID *string `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Owner   *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	// Singleton stages
	RFQ                  *RFQ                  `gorm:"foreignKey:CaseID" json:"rfq,omitempty"`
	AbstractOfQuotations *AbstractOfQuotations `gorm:"foreignKey:CaseID" json:"abstract_of_quotations,omitempty"`
	PreBidConference     *PreBidConference     `gorm:"foreignKey:CaseID" json:"pre_bid_conference,omitempty"`
	TWGEvaluation        *TWGEvaluation        `gorm:"foreignKey:CaseID" json:"twg_evaluation,omitempty"`
	PostQualification    *PostQualification    `gorm:"foreignKey:CaseID" json:"post_qualification,omitempty"`
	BACResolution        *BACResolution        `gorm:"foreignKey:CaseID" json:"bac_resolution,omitempty"`
	Award                *Award                `gorm:"foreignKey:CaseID" json:"award,omitempty"`
	Contract             *Contract             `gorm:"foreignKey:CaseID" json:"contract,omitempty"`
	NoticeToProceed      *NoticeToProceed      `gorm:"foreignKey:CaseID" json:"notice_to_proceed,omitempty"`
	Inspection           *Inspection           `gorm:"foreignKey:CaseID" json:"inspection,omitempty"`
	ORS                  *ORS                  `gorm:"foreignKey:CaseID" json:"ors,omitempty"`
	DV                   *DV                   `gorm:"foreignKey:CaseID" json:"dv,omitempty"`
	Check                *Check                `gorm:"foreignKey:CaseID" json:"check,omitempty"`
	CheckAdvice          *CheckAdvice          `gorm:"foreignKey:CaseID" json:"check_advice,omitempty"`

	// Repeatable stages
	Quotations   []Quotation   `gorm:"foreignKey:CaseID" json:"quotations,omitempty"`
	Bids         []Bid         `gorm:"foreignKey:CaseID" json:"bids,omitempty"`
	BidBulletins []BidBulletin `gorm:"foreignKey:CaseID" json:"bid_bulletins,omitempty"`
	Deliveries   []Delivery    `gorm:"foreignKey:CaseID" json:"deliveries,omitempty"`
	Attachments  []Attachment  `gorm:"foreignKey:CaseID" json:"attachments,omitempty"`
	Reminders    []Reminder    `gorm:"foreignKey:CaseID" json:"reminders,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *ProcurementCase) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CurrentState == "" {
		c.CurrentState = StateDraft
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// TableName specifies the table name for ProcurementCase model
func (ProcurementCase) TableName() string {
	return "procurement_cases"
}

// IsClosed checks if the case reached its terminal state
func (c *ProcurementCase) IsClosed() bool {
	return c.CurrentState == StateClosed
}

// RecordCount returns how many stage records of the given kind are loaded on the case.
// Relations must be preloaded for the answer to be meaningful.
func (c *ProcurementCase) RecordCount(kind RecordKind) int {
	switch kind {
	case KindRFQ:
		return one(c.RFQ != nil)
	case KindQuotation:
		return len(c.Quotations)
	case KindBid:
		return len(c.Bids)
	case KindBidBulletin:
		return len(c.BidBulletins)
	case KindPreBidConf:
		return one(c.PreBidConference != nil)
	case KindAbstractOfQuotations:
		return one(c.AbstractOfQuotations != nil)
	case KindTWGEvaluation:
		return one(c.TWGEvaluation != nil)
	case KindPostQualification:
		return one(c.PostQualification != nil)
	case KindBACResolution:
		return one(c.BACResolution != nil)
	case KindAward:
		return one(c.Award != nil)
	case KindContract:
		return one(c.Contract != nil)
	case KindNoticeToProceed:
		return one(c.NoticeToProceed != nil)
	case KindDelivery:
		return len(c.Deliveries)
	case KindInspection:
		return one(c.Inspection != nil)
	case KindORS:
		return one(c.ORS != nil)
	case KindDV:
		return one(c.DV != nil)
	case KindCheck:
		return one(c.Check != nil)
	case KindCheckAdvice:
		return one(c.CheckAdvice != nil)
	case KindAttachment:
		return len(c.Attachments)
	}
	return 0
}

// HasRecord reports whether at least one record of the kind exists
func (c *ProcurementCase) HasRecord(kind RecordKind) bool {
	return c.RecordCount(kind) > 0
}

// HasStageRecords reports whether any stage record has been captured for the case
func (c *ProcurementCase) HasStageRecords() bool {
	for _, kind := range AllRecordKinds {
		if c.HasRecord(kind) {
			return true
		}
	}
	return false
}

func one(present bool) int {
	if present {
		return 1
	}
	return 0
}
