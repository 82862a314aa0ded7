package brokers

import (
	"context"
	"errors"
	"time"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"
	"trustline-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("Broker representation not found")
	ErrDuplicateInvitation = errors.New("Broker already invited for this role")
	ErrAlreadyAccepted     = errors.New("Broker already accepted")
)

// InviteInput is the broker invitation payload.
type InviteInput struct {
	InvitedEmail string `json:"invited_email"`
	InvitedAs    string `json:"invited_as"`
}

// RespondInput carries the invitee's decision.
type RespondInput struct {
	Status string `json:"status"`
}

// Service manages broker invitations and their accept/decline lifecycle.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// List returns the escrow's broker representations, optionally filtered by
// status and role.
func (s *Service) List(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, status, invitedAs string) ([]models.BrokerRepresentation, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("escrow_id = ?", e.ID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if invitedAs != "" {
		q = q.Where("invited_as = ?", invitedAs)
	}
	var reps []models.BrokerRepresentation
	if err := q.Order("invited_at ASC").Find(&reps).Error; err != nil {
		return nil, err
	}
	return reps, nil
}

// Invite creates a PENDING representation for the email and role. The same
// address cannot hold two invitations for the same role on one escrow.
func (s *Service) Invite(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, in InviteInput) (*models.BrokerRepresentation, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}

	errs := map[string][]string{}
	if in.InvitedEmail == "" {
		errs["invited_email"] = append(errs["invited_email"], "This field is required.")
	} else if !validation.IsValidEmail(in.InvitedEmail) {
		errs["invited_email"] = append(errs["invited_email"], "Enter a valid email address.")
	}
	if in.InvitedAs == "" {
		errs["invited_as"] = append(errs["invited_as"], "This field is required.")
	} else if !models.ValidBrokerRole(in.InvitedAs) {
		errs["invited_as"] = append(errs["invited_as"], "Invalid broker role")
	}
	if len(errs) > 0 {
		return nil, &escrows.ValidationError{Fields: errs}
	}

	var count int64
	err = s.DB.WithContext(ctx).Model(&models.BrokerRepresentation{}).
		Where("escrow_id = ? AND invited_email = ? AND invited_as = ?", e.ID, in.InvitedEmail, in.InvitedAs).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateInvitation
	}

	inviterID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, err
	}
	rep := models.BrokerRepresentation{
		EscrowID:     e.ID,
		InvitedEmail: in.InvitedEmail,
		InvitedByID:  &inviterID,
		InvitedAs:    in.InvitedAs,
		Status:       models.BrokerStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&rep).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// Respond records the actor's decision on an invitation. ACCEPTED is terminal:
// once a representation is accepted no further transition succeeds, and the
// first acceptance binds the responding user if none is bound yet. The check
// and the write happen in a single conditional UPDATE so two concurrent
// responders cannot both win.
func (s *Service) Respond(ctx context.Context, actor middleware.Actor, escrowID, repID uuid.UUID, in RespondInput) (*models.BrokerRepresentation, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	if !models.ValidBrokerStatus(in.Status) {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"status": {"Invalid broker status"},
		}}
	}

	var rep models.BrokerRepresentation
	if err := s.DB.WithContext(ctx).First(&rep, "id = ? AND escrow_id = ?", repID, e.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       in.Status,
		"responded_at": now,
	}
	if in.Status == models.BrokerStatusAccepted {
		if uid, err := uuid.Parse(actor.UserID); err == nil {
			updates["user_id"] = gorm.Expr("COALESCE(user_id, ?)", uid)
		}
	}

	res := s.DB.WithContext(ctx).Model(&models.BrokerRepresentation{}).
		Where("id = ? AND status <> ?", rep.ID, models.BrokerStatusAccepted).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyAccepted
	}

	if err := s.DB.WithContext(ctx).First(&rep, "id = ?", rep.ID).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

// Get returns one representation on the escrow.
func (s *Service) Get(ctx context.Context, actor middleware.Actor, escrowID, repID uuid.UUID) (*models.BrokerRepresentation, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	var rep models.BrokerRepresentation
	if err := s.DB.WithContext(ctx).First(&rep, "id = ? AND escrow_id = ?", repID, e.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Delete removes the representation and any commission share it holds.
func (s *Service) Delete(ctx context.Context, actor middleware.Actor, escrowID, repID uuid.UUID) error {
	rep, err := s.Get(ctx, actor, escrowID, repID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("broker_representation_id = ?", rep.ID).Delete(&models.CommissionShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(rep).Error
	})
}
