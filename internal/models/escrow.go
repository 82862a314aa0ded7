package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Escrow status lifecycle. DRAFT and ACTIVE are set through normal updates;
// LOCKED is written only by the commission pool lock.
const (
	EscrowStatusDraft  = "DRAFT"
	EscrowStatusActive = "ACTIVE"
	EscrowStatusLocked = "LOCKED"
)

// Transaction types. Each type carries its own required-field set, validated
// in internal/escrows.
const (
	TransactionCommission    = "COMMISSION"
	TransactionDueDiligence  = "DUE_DILIGENCE"
	TransactionHiddenDefects = "HIDDEN_DEFECTS"
)

// Supported currencies.
const (
	CurrencyUSD = "USD"
	CurrencyMXN = "MXN"
)

// Property types.
const (
	PropertyHouse      = "HOUSE"
	PropertyApartment  = "APARTMENT"
	PropertyLand       = "LAND"
	PropertyCommercial = "COMMERCIAL"
	PropertyOffice     = "OFFICE"
)

// Party sides used by commission_payer and responsible_party.
const (
	SideBuyer  = "BUYER"
	SideSeller = "SELLER"
	SideBoth   = "BOTH"
)

// Escrow is a tracked real-estate transaction. Dates are stored as YYYY-MM-DD
// strings; monetary fields are exact decimals with 2 fractional digits.
// Optional columns belong to one of the three transaction types.
type Escrow struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	ParticipantRole string          `gorm:"type:varchar(20);not null" json:"participant_role"`
	Currency        string          `gorm:"type:varchar(10);not null" json:"currency"`
	TransactionType string          `gorm:"type:varchar(20);not null" json:"transaction_type"`
	PropertyType    string          `gorm:"type:varchar(20);not null" json:"property_type"`
	PropertyValue   *decimal.Decimal `gorm:"type:decimal(14,2)" json:"property_value"`
	ClosingDate     string          `gorm:"type:varchar(10);not null" json:"closing_date"`
	PropertyAddress string          `gorm:"not null" json:"property_address"`

	CommissionPercentage  *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_percentage"`
	CommissionPayer       *string          `gorm:"type:varchar(20)" json:"commission_payer"`
	CommissionPaymentDate *string          `gorm:"type:varchar(10)" json:"commission_payment_date"`
	BrokerAName           *string          `json:"broker_a_name"`
	BrokerAPercentage     *decimal.Decimal `gorm:"type:decimal(5,2)" json:"broker_a_percentage"`
	BrokerBName           *string          `json:"broker_b_name"`
	BrokerBPercentage     *decimal.Decimal `gorm:"type:decimal(5,2)" json:"broker_b_percentage"`

	DueDiligenceScope    *string          `gorm:"type:text" json:"due_diligence_scope"`
	DueDiligenceDays     *int             `json:"due_diligence_days"`
	DueDiligenceDeadline *string          `gorm:"type:varchar(10)" json:"due_diligence_deadline"`
	DueDiligenceFee      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"due_diligence_fee"`

	HiddenDefectsDescription *string          `gorm:"type:text" json:"hidden_defects_description"`
	RetentionAmount          *decimal.Decimal `gorm:"type:decimal(12,2)" json:"retention_amount"`
	ResolutionDays           *int             `json:"resolution_days"`
	ResponsibleParty         *string          `gorm:"type:varchar(20)" json:"responsible_party"`

	AgreementUpload *string `json:"agreement_upload"`

	Status      string    `gorm:"type:varchar(20);not null;default:DRAFT" json:"status"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Parties               []Party                `gorm:"foreignKey:EscrowID;constraint:OnDelete:CASCADE" json:"parties,omitempty"`
	BrokerRepresentations []BrokerRepresentation `gorm:"foreignKey:EscrowID;constraint:OnDelete:CASCADE" json:"broker_representations,omitempty"`
	CommissionPool        *CommissionPool        `gorm:"foreignKey:EscrowID;constraint:OnDelete:CASCADE" json:"commission_pool,omitempty"`
}

func (e *Escrow) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
