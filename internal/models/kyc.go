package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KYC record statuses.
const (
	KYCStatusStarted       = "STARTED"
	KYCStatusPendingReview = "PENDING_REVIEW"
	KYCStatusApproved      = "APPROVED"
	KYCStatusRejected      = "REJECTED"
)

// AML check statuses. PENDING and RUNNING are transient; PASS, FAIL and ERROR
// are terminal.
const (
	AMLStatusPending = "PENDING"
	AMLStatusRunning = "RUNNING"
	AMLStatusPass    = "PASS"
	AMLStatusFail    = "FAIL"
	AMLStatusError   = "ERROR"
)

// AML providers.
const (
	AMLProviderOFAC     = "OFAC"
	AMLProviderInternal = "INTERNAL"
	AMLProviderManual   = "MANUAL"
)

// KYCRecord tracks identity verification for one escrow subject. Checklist is
// a free-form key map; new records are seeded with document_verification,
// identity_verified and ofac_screen set to false.
type KYCRecord struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"escrow"`
	SubjectName       string            `gorm:"not null" json:"subject_name"`
	SubjectEmail      string            `json:"subject_email"`
	Status            string            `gorm:"type:varchar(32);not null;default:STARTED" json:"status"`
	Checklist         datatypes.JSONMap `json:"checklist"`
	AssignedOfficerID *uuid.UUID        `gorm:"type:uuid" json:"assigned_officer"`
	AssignedOfficer   *User             `gorm:"foreignKey:AssignedOfficerID" json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	AMLChecks []AMLCheck `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"aml_checks,omitempty"`
}

func (r *KYCRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ValidKYCStatus reports whether status is a KYC status enum value.
func ValidKYCStatus(status string) bool {
	switch status {
	case KYCStatusStarted, KYCStatusPendingReview, KYCStatusApproved, KYCStatusRejected:
		return true
	}
	return false
}

// AMLCheck is one screening attempt against an external provider. Created in
// PENDING; the background runner drives it to a terminal status.
type AMLCheck struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RecordID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"record"`
	Provider      string            `gorm:"type:varchar(20);not null;default:INTERNAL" json:"provider"`
	Status        string            `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	RequestedByID *uuid.UUID        `gorm:"type:uuid" json:"requested_by"`
	RequestedBy   *User             `gorm:"foreignKey:RequestedByID" json:"-"`
	RequestedAt   time.Time         `gorm:"autoCreateTime" json:"requested_at"`
	CompletedAt   *time.Time        `json:"completed_at"`
	Notes         string            `gorm:"type:text" json:"notes"`
	ResultPayload datatypes.JSONMap `json:"result_payload"`
}

func (c *AMLCheck) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ValidAMLProvider reports whether provider is an AML provider enum value.
func ValidAMLProvider(provider string) bool {
	switch provider {
	case AMLProviderOFAC, AMLProviderInternal, AMLProviderManual:
		return true
	}
	return false
}
