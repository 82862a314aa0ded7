package commission

import (
	"context"
	"errors"
	"time"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("Commission pool not found")
	ErrPoolLocked     = errors.New("Commission pool is locked")
	ErrOverAllocation = errors.New("Allocated shares exceed the pool total")
)

// ShareInput is one broker's requested slice.
type ShareInput struct {
	BrokerRepresentationID uuid.UUID       `json:"broker_representation"`
	Amount                 decimal.Decimal `json:"amount"`
}

// UpdateInput is a partial pool payload. A supplied shares list replaces the
// stored set as a whole; leaving it out keeps the stored shares untouched.
type UpdateInput struct {
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Shares      *[]ShareInput    `json:"shares"`
}

// Service manages each escrow's commission pool. Mutations run in a single
// transaction guarded by a conditional update on the locked flag, so a
// concurrent lock can never interleave with a share rewrite.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

func (s *Service) loadPool(tx *gorm.DB, escrowID uuid.UUID) (*models.CommissionPool, error) {
	var pool models.CommissionPool
	if err := tx.Preload("Shares").First(&pool, "escrow_id = ?", escrowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pool, nil
}

// Get returns the escrow's pool with its shares.
func (s *Service) Get(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID) (*models.CommissionPool, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	return s.loadPool(s.DB.WithContext(ctx), e.ID)
}

// Update patches the pool total and, when a shares list is supplied, rewrites
// the share set as a whole: existing shares are updated in place, new ones
// created, ones missing from the list deleted. The mutation is rejected if the
// pool is locked, if any share is negative or names a broker outside the
// escrow, or if the resulting stored shares would exceed the total.
func (s *Service) Update(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, in UpdateInput) (*models.CommissionPool, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pool, err := s.loadPool(tx, e.ID)
		if err != nil {
			return err
		}
		if pool.Locked {
			return ErrPoolLocked
		}

		total := pool.TotalAmount
		if in.TotalAmount != nil {
			total = *in.TotalAmount
		}
		if total.IsNegative() {
			return &escrows.ValidationError{Fields: map[string][]string{
				"total_amount": {"Pool total cannot be negative"},
			}}
		}

		sum := decimal.Zero
		if in.Shares == nil {
			for _, share := range pool.Shares {
				sum = sum.Add(share.Amount)
			}
		} else {
			var reps []models.BrokerRepresentation
			if err := tx.Where("escrow_id = ?", e.ID).Find(&reps).Error; err != nil {
				return err
			}
			onEscrow := make(map[uuid.UUID]bool, len(reps))
			for _, rep := range reps {
				onEscrow[rep.ID] = true
			}

			existing := make(map[uuid.UUID]models.CommissionShare, len(pool.Shares))
			for _, share := range pool.Shares {
				existing[share.BrokerRepresentationID] = share
			}

			kept := make(map[uuid.UUID]bool, len(*in.Shares))
			for _, want := range *in.Shares {
				if want.Amount.IsNegative() {
					return &escrows.ValidationError{Fields: map[string][]string{
						"shares": {"Share amounts cannot be negative"},
					}}
				}
				if !onEscrow[want.BrokerRepresentationID] {
					return &escrows.ValidationError{Fields: map[string][]string{
						"shares": {"Broker representation does not belong to this escrow"},
					}}
				}
				if kept[want.BrokerRepresentationID] {
					return &escrows.ValidationError{Fields: map[string][]string{
						"shares": {"Duplicate broker representation in shares"},
					}}
				}
				kept[want.BrokerRepresentationID] = true
				sum = sum.Add(want.Amount)

				if cur, ok := existing[want.BrokerRepresentationID]; ok {
					if !cur.Amount.Equal(want.Amount) {
						if err := tx.Model(&models.CommissionShare{}).
							Where("id = ?", cur.ID).
							Update("amount", want.Amount).Error; err != nil {
							return err
						}
					}
					continue
				}
				share := models.CommissionShare{
					PoolID:                 pool.ID,
					BrokerRepresentationID: want.BrokerRepresentationID,
					Amount:                 want.Amount,
				}
				if err := tx.Create(&share).Error; err != nil {
					return err
				}
			}

			for repID, share := range existing {
				if !kept[repID] {
					if err := tx.Delete(&models.CommissionShare{}, "id = ?", share.ID).Error; err != nil {
						return err
					}
				}
			}
		}

		if sum.GreaterThan(total) {
			return ErrOverAllocation
		}

		res := tx.Model(&models.CommissionPool{}).
			Where("id = ? AND locked = ?", pool.ID, false).
			Update("total_amount", total)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPoolLocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadPool(s.DB.WithContext(ctx), e.ID)
}

// Lock permanently freezes the pool and forces the escrow to LOCKED in the
// same transaction. Locking an already-locked pool fails; there is no unlock.
func (s *Service) Lock(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID) (*models.CommissionPool, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pool, err := s.loadPool(tx, e.ID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&models.CommissionPool{}).
			Where("id = ? AND locked = ?", pool.ID, false).
			Updates(map[string]interface{}{"locked": true, "locked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPoolLocked
		}
		return tx.Model(&models.Escrow{}).
			Where("id = ?", e.ID).
			Update("status", models.EscrowStatusLocked).Error
	})
	if err != nil {
		return nil, err
	}
	return s.loadPool(s.DB.WithContext(ctx), e.ID)
}
