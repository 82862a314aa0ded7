package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party roles.
const (
	PartyRoleBuyer  = "BUYER"
	PartyRoleSeller = "SELLER"
	PartyRoleLender = "LENDER"
	PartyRoleBroker = "BROKER"
)

// Party is an attribute record scoped to one escrow.
type Party struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID  uuid.UUID `gorm:"type:uuid;not null;index" json:"escrow"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ValidPartyRole reports whether role is one of the party role enum values.
func ValidPartyRole(role string) bool {
	switch role {
	case PartyRoleBuyer, PartyRoleSeller, PartyRoleLender, PartyRoleBroker:
		return true
	}
	return false
}
