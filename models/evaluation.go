package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AbstractOfQuotations summarises and ranks the offers received
type AbstractOfQuotations struct {
	SingletonRecord
	LowestBidder string          `gorm:"not null" json:"lowest_bidder"`
	LowestAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"lowest_amount"`
	PreparedAt   *time.Time      `json:"prepared_at,omitempty"`
}

func (AbstractOfQuotations) TableName() string { return "abstracts_of_quotations" }
func (*AbstractOfQuotations) Kind() RecordKind { return KindAbstractOfQuotations }
func (a *AbstractOfQuotations) TextFields() []*string {
	return []*string{&a.LowestBidder, &a.Notes}
}

func (a *AbstractOfQuotations) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("lowest_bidder", a.LowestBidder)
	errs.positive("lowest_amount", a.LowestAmount)
	return errs
}

// TWGEvaluation is the Technical Working Group's evaluation report
type TWGEvaluation struct {
	SingletonRecord
	Findings          string     `gorm:"type:text" json:"findings"`
	RecommendedBidder string     `gorm:"not null" json:"recommended_bidder"`
	EvaluatedAt       *time.Time `json:"evaluated_at,omitempty"`
}

func (TWGEvaluation) TableName() string { return "twg_evaluations" }
func (*TWGEvaluation) Kind() RecordKind { return KindTWGEvaluation }
func (t *TWGEvaluation) TextFields() []*string {
	return []*string{&t.Findings, &t.RecommendedBidder, &t.Notes}
}

func (t *TWGEvaluation) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("recommended_bidder", t.RecommendedBidder)
	return errs
}

// PostQualification verifies the lowest calculated bidder's eligibility
type PostQualification struct {
	SingletonRecord
	BidderName  string     `gorm:"not null" json:"bidder_name"`
	Passed      bool       `gorm:"not null;default:false" json:"passed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (PostQualification) TableName() string { return "post_qualifications" }
func (*PostQualification) Kind() RecordKind { return KindPostQualification }
func (p *PostQualification) TextFields() []*string {
	return []*string{&p.BidderName, &p.Notes}
}

func (p *PostQualification) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("bidder_name", p.BidderName)
	return errs
}

// BACResolution is the Bids and Awards Committee resolution recommending award
type BACResolution struct {
	SingletonRecord
	ResolutionNo   string     `gorm:"not null" json:"resolution_no"`
	Recommendation string     `gorm:"type:text" json:"recommendation"`
	AdoptedAt      *time.Time `json:"adopted_at,omitempty"`
}

func (BACResolution) TableName() string { return "bac_resolutions" }
func (*BACResolution) Kind() RecordKind { return KindBACResolution }
func (b *BACResolution) TextFields() []*string {
	return []*string{&b.ResolutionNo, &b.Recommendation, &b.Notes}
}

func (b *BACResolution) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("resolution_no", b.ResolutionNo)
	return errs
}

// Award is the Notice of Award issued to the winning supplier
type Award struct {
	SingletonRecord
	SupplierName string          `gorm:"not null" json:"supplier_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	AwardedAt    *time.Time      `json:"awarded_at,omitempty"`
}

func (Award) TableName() string        { return "awards" }
func (*Award) Kind() RecordKind        { return KindAward }
func (a *Award) TextFields() []*string { return []*string{&a.SupplierName, &a.Notes} }

func (a *Award) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("supplier_name", a.SupplierName)
	errs.positive("amount", a.Amount)
	return errs
}
