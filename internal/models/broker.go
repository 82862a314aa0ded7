package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Broker invitation roles.
const (
	BrokerRoleListing  = "LISTING"
	BrokerRoleCoBroker = "CO_BROKER"
)

// Broker invitation statuses. ACCEPTED is terminal; DECLINED may be reset to
// PENDING (re-invite).
const (
	BrokerStatusPending  = "PENDING"
	BrokerStatusAccepted = "ACCEPTED"
	BrokerStatusDeclined = "DECLINED"
)

// BrokerRepresentation binds (or invites) a user to a brokerage role on an
// escrow. UserID stays nil until the invitation is accepted; the first
// accepting actor wins the binding. (escrow, invited_email, invited_as) is
// unique so the same address cannot be invited twice for the same role.
type BrokerRepresentation struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EscrowID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_broker_invite" json:"escrow"`
	UserID       *uuid.UUID `gorm:"type:uuid" json:"user"`
	User         *User      `gorm:"foreignKey:UserID" json:"-"`
	InvitedEmail string     `gorm:"not null;uniqueIndex:idx_broker_invite" json:"invited_email"`
	InvitedByID  *uuid.UUID `gorm:"type:uuid" json:"invited_by"`
	InvitedBy    *User      `gorm:"foreignKey:InvitedByID" json:"-"`
	InvitedAs    string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_broker_invite" json:"invited_as"`
	Status       string     `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	InvitedAt    time.Time  `gorm:"autoCreateTime" json:"invited_at"`
	RespondedAt  *time.Time `json:"responded_at"`
}

func (b *BrokerRepresentation) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ValidBrokerRole reports whether role is LISTING or CO_BROKER.
func ValidBrokerRole(role string) bool {
	return role == BrokerRoleListing || role == BrokerRoleCoBroker
}

// ValidBrokerStatus reports whether status is a broker status enum value.
func ValidBrokerStatus(status string) bool {
	switch status {
	case BrokerStatusPending, BrokerStatusAccepted, BrokerStatusDeclined:
		return true
	}
	return false
}
