package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document statuses.
const (
	DocumentStatusPendingUpload = "PENDING_UPLOAD"
	DocumentStatusUploaded      = "UPLOADED"
	DocumentStatusApproved      = "APPROVED"
	DocumentStatusRejected      = "REJECTED"
)

// E-signature envelope statuses.
const (
	EnvelopeStatusDraft     = "DRAFT"
	EnvelopeStatusSent      = "SENT"
	EnvelopeStatusCompleted = "COMPLETED"
	EnvelopeStatusVoided    = "VOIDED"
)

// Document is escrow document metadata. The file itself lives in the object
// store under StorageKey; EnvelopeID tracks the e-signature request once one
// has been triggered.
type Document struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"escrow"`
	Name           string     `gorm:"not null" json:"name"`
	DocumentType   string     `gorm:"type:varchar(100);not null" json:"document_type"`
	StorageKey     string     `json:"storage_key"`
	StorageURL     string     `json:"storage_url"`
	Status         string     `gorm:"type:varchar(32);not null;default:PENDING_UPLOAD" json:"status"`
	UploadedByID   *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	UploadedBy     *User      `gorm:"foreignKey:UploadedByID" json:"-"`
	EnvelopeID     string     `gorm:"type:varchar(128)" json:"envelope_id"`
	EnvelopeStatus string     `gorm:"type:varchar(20);not null;default:DRAFT" json:"envelope_status"`
	UploadedAt     time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ValidDocumentStatus reports whether status is a document status enum value.
func ValidDocumentStatus(status string) bool {
	switch status {
	case DocumentStatusPendingUpload, DocumentStatusUploaded, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}
