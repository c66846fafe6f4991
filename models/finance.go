package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ORS is the Obligation Request and Status earmarking funds for the contract
type ORS struct {
	SingletonRecord
	ORSNo       string          `gorm:"not null" json:"ors_no"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	FundCluster string          `json:"fund_cluster"`
	ObligatedAt *time.Time      `json:"obligated_at,omitempty"`
}

func (ORS) TableName() string        { return "obligation_requests" }
func (*ORS) Kind() RecordKind        { return KindORS }
func (o *ORS) TextFields() []*string { return []*string{&o.ORSNo, &o.FundCluster, &o.Notes} }

func (o *ORS) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("ors_no", o.ORSNo)
	errs.positive("amount", o.Amount)
	return errs
}

// DV is the Disbursement Voucher prepared against the obligation
type DV struct {
	SingletonRecord
	DVNo        string          `gorm:"not null" json:"dv_no"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"gross_amount"`
	Withholding decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"withholding"`
	PreparedAt  *time.Time      `json:"prepared_at,omitempty"`
}

func (DV) TableName() string        { return "disbursement_vouchers" }
func (*DV) Kind() RecordKind        { return KindDV }
func (d *DV) TextFields() []*string { return []*string{&d.DVNo, &d.Notes} }

// NetAmount is the amount payable after withholding
func (d *DV) NetAmount() decimal.Decimal {
	return d.GrossAmount.Sub(d.Withholding)
}

func (d *DV) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("dv_no", d.DVNo)
	errs.positive("gross_amount", d.GrossAmount)
	errs.notNegative("withholding", d.Withholding)
	if d.Withholding.GreaterThan(d.GrossAmount) {
		errs["withholding"] = "must not exceed gross_amount"
	}
	return errs
}

// Check is the payment instrument issued to the supplier
type Check struct {
	SingletonRecord
	CheckNo  string          `gorm:"not null" json:"check_no"`
	Bank     string          `json:"bank"`
	Amount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	IssuedAt *time.Time      `json:"issued_at,omitempty"`
}

func (Check) TableName() string        { return "checks" }
func (*Check) Kind() RecordKind        { return KindCheck }
func (c *Check) TextFields() []*string { return []*string{&c.CheckNo, &c.Bank, &c.Notes} }

func (c *Check) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("check_no", c.CheckNo)
	errs.positive("amount", c.Amount)
	return errs
}

// CheckAdvice is the List of Due and Demandable Accounts Payable advice sent to the bank
type CheckAdvice struct {
	SingletonRecord
	AdviceNo  string     `gorm:"not null" json:"advice_no"`
	Bank      string     `json:"bank"`
	AdvisedAt *time.Time `json:"advised_at,omitempty"`
}

func (CheckAdvice) TableName() string        { return "check_advices" }
func (*CheckAdvice) Kind() RecordKind        { return KindCheckAdvice }
func (c *CheckAdvice) TextFields() []*string { return []*string{&c.AdviceNo, &c.Bank, &c.Notes} }

func (c *CheckAdvice) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("advice_no", c.AdviceNo)
	return errs
}
