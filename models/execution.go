package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is the purchase order or contract signed with the supplier
type Contract struct {
	SingletonRecord
	ContractNo    string          `gorm:"not null" json:"contract_no"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	SignedAt      *time.Time      `json:"signed_at,omitempty"`
	DeliveryDueAt *time.Time      `json:"delivery_due_at,omitempty"`
}

func (Contract) TableName() string        { return "contracts" }
func (*Contract) Kind() RecordKind        { return KindContract }
func (c *Contract) TextFields() []*string { return []*string{&c.ContractNo, &c.Notes} }

func (c *Contract) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("contract_no", c.ContractNo)
	errs.positive("amount", c.Amount)
	return errs
}

func (c *Contract) ReminderDates() map[ReminderType]*time.Time {
	return map[ReminderType]*time.Time{ReminderDeliveryDue: c.DeliveryDueAt}
}

// NoticeToProceed authorizes the supplier to start work
type NoticeToProceed struct {
	SingletonRecord
	IssuedAt      time.Time  `gorm:"not null" json:"issued_at"`
	DeliveryDueAt *time.Time `json:"delivery_due_at,omitempty"`
}

func (NoticeToProceed) TableName() string        { return "notices_to_proceed" }
func (*NoticeToProceed) Kind() RecordKind        { return KindNoticeToProceed }
func (n *NoticeToProceed) TextFields() []*string { return []*string{&n.Notes} }

func (n *NoticeToProceed) Validate() map[string]string {
	errs := fieldErrors{}
	errs.date("issued_at", n.IssuedAt)
	if n.DeliveryDueAt != nil && !n.IssuedAt.IsZero() && n.DeliveryDueAt.Before(n.IssuedAt) {
		errs["delivery_due_at"] = "must not be before issued_at"
	}
	return errs
}

func (n *NoticeToProceed) ReminderDates() map[ReminderType]*time.Time {
	return map[ReminderType]*time.Time{ReminderDeliveryDue: n.DeliveryDueAt}
}

// Delivery records goods or works received, possibly in partial lots
type Delivery struct {
	RepeatableRecord
	DeliveredAt time.Time       `gorm:"not null" json:"delivered_at"`
	ReceiptNo   string          `json:"receipt_no"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0" json:"quantity"`
}

func (Delivery) TableName() string        { return "deliveries" }
func (*Delivery) Kind() RecordKind        { return KindDelivery }
func (d *Delivery) TextFields() []*string { return []*string{&d.ReceiptNo, &d.Notes} }

func (d *Delivery) Validate() map[string]string {
	errs := fieldErrors{}
	errs.date("delivered_at", d.DeliveredAt)
	errs.notNegative("quantity", d.Quantity)
	return errs
}

// Inspection is the inspection and acceptance report on delivered items
type Inspection struct {
	SingletonRecord
	InspectorName string     `gorm:"not null" json:"inspector_name"`
	Passed        bool       `gorm:"not null;default:false" json:"passed"`
	InspectedAt   *time.Time `json:"inspected_at,omitempty"`
	Findings      string     `gorm:"type:text" json:"findings"`
}

func (Inspection) TableName() string { return "inspections" }
func (*Inspection) Kind() RecordKind { return KindInspection }
func (i *Inspection) TextFields() []*string {
	return []*string{&i.InspectorName, &i.Findings, &i.Notes}
}

func (i *Inspection) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("inspector_name", i.InspectorName)
	return errs
}
