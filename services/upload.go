package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"procurement_flow_go/models"
	"procurement_flow_go/services/workflow"

	"gorm.io/gorm"
)

const MaxUploadSize = 10 * 1024 * 1024 // 10MB

// SignedURLExpiry bounds how long an attachment download link stays valid
const SignedURLExpiry = 15 * time.Minute

var allowedAttachmentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".txt":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateAttachmentUpload checks size, extension and, for PDFs, the file signature
func ValidateAttachmentUpload(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxUploadSize {
		return NewValidationError("file", "exceeds maximum allowed size of 10MB")
	}
	if fileHeader.Size == 0 {
		return NewValidationError("file", "is empty")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAttachmentExtensions[ext] {
		return NewValidationError("file", "type not allowed. Accepted formats: PDF, DOC, DOCX, XLS, XLSX, TXT, JPG, PNG")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file content: %w", err)
	}
	if ext == ".pdf" && (n < 4 || string(buffer[:4]) != "%PDF") {
		return NewValidationError("file", "is not a valid PDF")
	}
	return nil
}

// AttachmentInput describes an upload already validated by the caller
type AttachmentInput struct {
	Label       string
	Notes       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AddAttachment stores the file and records it against the case. Attachments never move the state.
func (s *ProcurementService) AddAttachment(ctx context.Context, actor *Actor, caseID string, in AttachmentInput) (*models.Attachment, error) {
	if err := CheckRole(actor, workflow.EditorRoles(models.KindAttachment)...); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, fmt.Errorf("attachment storage is not configured")
	}

	// Fail fast on a missing case before writing anything to storage
	if _, err := loadCase(s.db.WithContext(ctx), caseID); err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := GenerateAttachmentKey(caseID, in.FileName)
	stored, err := s.storage.UploadReader(ctx, in.Body, key, contentType, in.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	att := &models.Attachment{
		Label:      in.Label,
		FileName:   filepath.Base(in.FileName),
		FileKey:    stored.Key,
		MimeType:   contentType,
		FileSize:   stored.FileSize,
		UploadedBy: actor.IDPtr(),
	}
	att.Notes = in.Notes
	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		att.SetCaseID(c.ID)
		if err := validateRecord(c, att); err != nil {
			return err
		}
		if err := tx.Create(att).Error; err != nil {
			return fmt.Errorf("failed to create attachment: %w", err)
		}
		AppendActivity(tx, ActivityEntry{
			CaseID:     c.ID,
			Action:     "add_attachment",
			ChangeType: models.ChangeTypeUpdate,
			Payload:    att,
			Actor:      actor,
			At:         now,
		})
		return nil
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, stored.Key); delErr != nil {
			log.Printf("[STORAGE] Failed to remove orphaned upload %s: %v", stored.Key, delErr)
		}
		return nil, err
	}
	return att, nil
}

// AttachmentURL returns a short-lived download link for an attachment
func (s *ProcurementService) AttachmentURL(ctx context.Context, actor *Actor, caseID, attachmentID string) (string, error) {
	att, err := s.findAttachment(ctx, actor, caseID, attachmentID)
	if err != nil {
		return "", err
	}
	return s.storage.GetSignedURL(ctx, att.FileKey, SignedURLExpiry)
}

// OpenAttachment returns the attachment row and a reader over its stored bytes.
// The caller closes the reader.
func (s *ProcurementService) OpenAttachment(ctx context.Context, actor *Actor, caseID, attachmentID string) (*models.Attachment, io.ReadCloser, error) {
	att, err := s.findAttachment(ctx, actor, caseID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	body, contentType, err := s.storage.Get(ctx, att.FileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attachment %s: %w", att.ID, err)
	}
	if att.MimeType == "" {
		att.MimeType = contentType
	}
	return att, body, nil
}

func (s *ProcurementService) findAttachment(ctx context.Context, actor *Actor, caseID, attachmentID string) (*models.Attachment, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if s.storage == nil {
		return nil, fmt.Errorf("attachment storage is not configured")
	}
	var att models.Attachment
	err := s.db.WithContext(ctx).Where("id = ? AND case_id = ?", attachmentID, caseID).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("attachment", attachmentID)
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// DetectContentType sniffs the first bytes of an upload when the client sent no type
func DetectContentType(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "application/octet-stream"
	}
	defer file.Close()
	buffer := make([]byte, 512)
	n, _ := file.Read(buffer)
	return http.DetectContentType(buffer[:n])
}
