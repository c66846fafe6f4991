package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFQ is the Request for Quotation issued for the case
type RFQ struct {
	SingletonRecord
	ReferenceNo        string          `gorm:"not null" json:"reference_no"`
	ApprovedBudget     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"approved_budget"`
	IssuedAt           time.Time       `json:"issued_at"`
	SubmissionDeadline *time.Time      `json:"submission_deadline,omitempty"`
}

func (RFQ) TableName() string        { return "rfqs" }
func (*RFQ) Kind() RecordKind        { return KindRFQ }
func (r *RFQ) TextFields() []*string { return []*string{&r.ReferenceNo, &r.Notes} }

func (r *RFQ) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("reference_no", r.ReferenceNo)
	errs.positive("approved_budget", r.ApprovedBudget)
	if r.SubmissionDeadline != nil && !r.IssuedAt.IsZero() && r.SubmissionDeadline.Before(r.IssuedAt) {
		errs["submission_deadline"] = "must not be before issued_at"
	}
	return errs
}

func (r *RFQ) ReminderDates() map[ReminderType]*time.Time {
	return map[ReminderType]*time.Time{ReminderBidOpening: r.SubmissionDeadline}
}

// Quotation is a supplier's price offer under small-value procurement
type Quotation struct {
	RepeatableRecord
	SupplierName string          `gorm:"not null" json:"supplier_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
}

func (Quotation) TableName() string        { return "quotations" }
func (*Quotation) Kind() RecordKind        { return KindQuotation }
func (q *Quotation) TextFields() []*string { return []*string{&q.SupplierName, &q.Notes} }

func (q *Quotation) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("supplier_name", q.SupplierName)
	errs.positive("amount", q.Amount)
	return errs
}

// Bid is a sealed bid opened under competitive bidding
type Bid struct {
	RepeatableRecord
	BidderName   string          `gorm:"not null" json:"bidder_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	OpenedAt     *time.Time      `json:"opened_at,omitempty"`
	Disqualified bool            `gorm:"not null;default:false" json:"disqualified"`
}

func (Bid) TableName() string        { return "bids" }
func (*Bid) Kind() RecordKind        { return KindBid }
func (b *Bid) TextFields() []*string { return []*string{&b.BidderName, &b.Notes} }

func (b *Bid) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("bidder_name", b.BidderName)
	errs.positive("amount", b.Amount)
	return errs
}

// BidBulletin is a supplemental notice amending or clarifying bidding documents
type BidBulletin struct {
	RepeatableRecord
	BulletinNo string    `json:"bulletin_no"`
	Subject    string    `gorm:"not null" json:"subject"`
	IssuedAt   time.Time `json:"issued_at"`
}

func (BidBulletin) TableName() string        { return "bid_bulletins" }
func (*BidBulletin) Kind() RecordKind        { return KindBidBulletin }
func (b *BidBulletin) TextFields() []*string { return []*string{&b.BulletinNo, &b.Subject, &b.Notes} }

func (b *BidBulletin) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("subject", b.Subject)
	return errs
}

// PreBidConference is the clarification meeting held before bid submission
type PreBidConference struct {
	SingletonRecord
	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`
	Venue       string    `json:"venue"`
	Attendees   int       `json:"attendees"`
}

func (PreBidConference) TableName() string        { return "pre_bid_conferences" }
func (*PreBidConference) Kind() RecordKind        { return KindPreBidConf }
func (p *PreBidConference) TextFields() []*string { return []*string{&p.Venue, &p.Notes} }

func (p *PreBidConference) Validate() map[string]string {
	errs := fieldErrors{}
	errs.date("scheduled_at", p.ScheduledAt)
	if p.Attendees < 0 {
		errs["attendees"] = "must not be negative"
	}
	return errs
}

func (p *PreBidConference) ReminderDates() map[ReminderType]*time.Time {
	return map[ReminderType]*time.Time{ReminderPreBidConf: &p.ScheduledAt}
}
