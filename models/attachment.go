package models

// Attachment is a supporting file stored through the storage provider
type Attachment struct {
	RepeatableRecord
	Label      string  `json:"label"`
	FileName   string  `gorm:"not null" json:"file_name"`
	FileKey    string  `gorm:"not null" json:"-"`
	MimeType   string  `json:"mime_type"`
	FileSize   int64   `json:"file_size"`
	UploadedBy *string `gorm:"type:uuid" json:"uploaded_by,omitempty"`
}

func (Attachment) TableName() string        { return "attachments" }
func (*Attachment) Kind() RecordKind        { return KindAttachment }
func (a *Attachment) TextFields() []*string { return []*string{&a.Label, &a.Notes} }

func (a *Attachment) Validate() map[string]string {
	errs := fieldErrors{}
	errs.required("file_name", a.FileName)
	errs.required("file_key", a.FileKey)
	return errs
}

// AllModels returns every model the schema needs, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&ProcurementCase{},
		&RFQ{},
		&Quotation{},
		&Bid{},
		&BidBulletin{},
		&PreBidConference{},
		&AbstractOfQuotations{},
		&TWGEvaluation{},
		&PostQualification{},
		&BACResolution{},
		&Award{},
		&Contract{},
		&NoticeToProceed{},
		&Delivery{},
		&Inspection{},
		&ORS{},
		&DV{},
		&Check{},
		&CheckAdvice{},
		&Attachment{},
		&ActivityLog{},
		&Reminder{},
		&IdempotencyKey{},
	}
}
