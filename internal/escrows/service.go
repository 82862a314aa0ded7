package escrows

import (
	"context"
	"time"

	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service owns escrow lifecycle operations. All reads are scoped to what the
// acting user may see; LOCKED status is never written here, only by the
// commission pool lock.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// rejectDirectLock refuses a payload that tries to write LOCKED directly.
// Only the commission pool lock moves an escrow into LOCKED.
func rejectDirectLock(in Input, current string) error {
	if in.Status != nil && *in.Status == models.EscrowStatusLocked && current != models.EscrowStatusLocked {
		return &ValidationError{Fields: map[string][]string{
			"status": {"LOCKED is set by locking the commission pool"},
		}}
	}
	return nil
}

// Create validates the payload and, in one transaction, creates the escrow
// together with its empty commission pool and an already-accepted LISTING
// representation for the creator.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, in Input) (*models.Escrow, error) {
	creatorID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return nil, err
	}

	if err := rejectDirectLock(in, models.EscrowStatusDraft); err != nil {
		return nil, err
	}
	e := models.Escrow{Status: models.EscrowStatusDraft, CreatedByID: creatorID}
	apply(&e, in)
	if err := validate(&e); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		pool := models.CommissionPool{
			EscrowID:    e.ID,
			TotalAmount: decimal.Zero,
		}
		if err := tx.Create(&pool).Error; err != nil {
			return err
		}
		rep := models.BrokerRepresentation{
			EscrowID:     e.ID,
			UserID:       &creatorID,
			InvitedEmail: actor.Email,
			InvitedByID:  &creatorID,
			InvitedAs:    models.BrokerRoleListing,
			Status:       models.BrokerStatusAccepted,
			RespondedAt:  &now,
		}
		return tx.Create(&rep).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, e.ID)
}

// List returns the escrows visible to the actor, newest first, optionally
// filtered by status.
func (s *Service) List(ctx context.Context, actor middleware.Actor, status string) ([]models.Escrow, error) {
	q := scopeForActor(s.DB.WithContext(ctx).Model(&models.Escrow{}), actor)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var escrows []models.Escrow
	if err := q.Order("created_at DESC").Find(&escrows).Error; err != nil {
		return nil, err
	}
	return escrows, nil
}

// Get returns one escrow with its parties, broker representations and
// commission pool, if the actor may see it.
func (s *Service) Get(ctx context.Context, actor middleware.Actor, id uuid.UUID) (*models.Escrow, error) {
	e, err := Authorize(s.DB.WithContext(ctx), id, actor)
	if err != nil {
		return nil, err
	}
	var full models.Escrow
	err = s.DB.WithContext(ctx).
		Preload("Parties").
		Preload("BrokerRepresentations").
		Preload("CommissionPool").
		Preload("CommissionPool.Shares").
		First(&full, "id = ?", e.ID).Error
	if err != nil {
		return nil, err
	}
	return &full, nil
}

// Update merges the partial payload onto the stored escrow and validates the
// merged state, so an update can never leave the record inconsistent with its
// transaction type.
func (s *Service) Update(ctx context.Context, actor middleware.Actor, id uuid.UUID, in Input) (*models.Escrow, error) {
	e, err := Authorize(s.DB.WithContext(ctx), id, actor)
	if err != nil {
		return nil, err
	}
	if err := rejectDirectLock(in, e.Status); err != nil {
		return nil, err
	}
	apply(e, in)
	if err := validate(e); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(e).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, id)
}

// Delete removes the escrow and all dependent rows.
func (s *Service) Delete(ctx context.Context, actor middleware.Actor, id uuid.UUID) error {
	e, err := Authorize(s.DB.WithContext(ctx), id, actor)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.CommissionPool{}).Select("id").Where("escrow_id = ?", e.ID)).
			Delete(&models.CommissionShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("escrow_id = ?", e.ID).Delete(&models.CommissionPool{}).Error; err != nil {
			return err
		}
		if err := tx.Where("escrow_id = ?", e.ID).Delete(&models.BrokerRepresentation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("escrow_id = ?", e.ID).Delete(&models.Party{}).Error; err != nil {
			return err
		}
		if err := tx.Where("escrow_id = ?", e.ID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("record_id IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.KYCRecord{}).Select("id").Where("escrow_id = ?", e.ID)).
			Delete(&models.AMLCheck{}).Error; err != nil {
			return err
		}
		if err := tx.Where("escrow_id = ?", e.ID).Delete(&models.KYCRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Escrow{}, "id = ?", e.ID).Error
	})
}
