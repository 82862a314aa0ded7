package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionPool is the total commission for an escrow (1:1), divisible into
// shares. Once locked it can never be mutated or unlocked, and the parent
// escrow is forced to LOCKED in the same transaction.
type CommissionPool struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"escrow"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Locked      bool              `gorm:"not null;default:false" json:"locked"`
	LockedAt    *time.Time        `json:"locked_at"`
	Shares      []CommissionShare `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE" json:"shares"`
}

func (p *CommissionPool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CommissionShare is one broker's slice of a pool. A broker representation
// holds at most one share per pool; the share set is always replaced as a
// whole, never appended to.
type CommissionShare struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PoolID                 uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pool_broker" json:"-"`
	BrokerRepresentationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pool_broker" json:"broker_representation"`
	Amount                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (s *CommissionShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
