package parties

import (
	"context"
	"errors"

	"trustline-backend/internal/escrows"
	"trustline-backend/internal/middleware"
	"trustline-backend/internal/models"
	"trustline-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("Party not found")

// Input is the party create/update payload.
type Input struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Service manages the parties attached to an escrow. Every operation first
// authorizes the actor against the parent escrow.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

func validateParty(p *models.Party) error {
	errs := map[string][]string{}
	if p.Name == "" {
		errs["name"] = append(errs["name"], "This field is required.")
	}
	if p.Role == "" {
		errs["role"] = append(errs["role"], "This field is required.")
	} else if !models.ValidPartyRole(p.Role) {
		errs["role"] = append(errs["role"], "Invalid role")
	}
	if p.Email != "" && !validation.IsValidEmail(p.Email) {
		errs["email"] = append(errs["email"], "Enter a valid email address.")
	}
	if len(errs) > 0 {
		return &escrows.ValidationError{Fields: errs}
	}
	return nil
}

// List returns the escrow's parties, optionally filtered by role.
func (s *Service) List(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, role string) ([]models.Party, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("escrow_id = ?", e.ID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var parties []models.Party
	if err := q.Order("created_at ASC").Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}

// Create adds a party to the escrow.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, escrowID uuid.UUID, in Input) (*models.Party, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	p := models.Party{EscrowID: e.ID}
	applyParty(&p, in)
	if err := validateParty(&p); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns one party on the escrow.
func (s *Service) Get(ctx context.Context, actor middleware.Actor, escrowID, partyID uuid.UUID) (*models.Party, error) {
	e, err := escrows.Authorize(s.DB.WithContext(ctx), escrowID, actor)
	if err != nil {
		return nil, err
	}
	var p models.Party
	if err := s.DB.WithContext(ctx).First(&p, "id = ? AND escrow_id = ?", partyID, e.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update applies a partial payload to the party and revalidates it.
func (s *Service) Update(ctx context.Context, actor middleware.Actor, escrowID, partyID uuid.UUID, in Input) (*models.Party, error) {
	p, err := s.Get(ctx, actor, escrowID, partyID)
	if err != nil {
		return nil, err
	}
	applyParty(p, in)
	if err := validateParty(p); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the party from the escrow.
func (s *Service) Delete(ctx context.Context, actor middleware.Actor, escrowID, partyID uuid.UUID) error {
	p, err := s.Get(ctx, actor, escrowID, partyID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(p).Error
}

func applyParty(p *models.Party, in Input) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Email != nil {
		p.Email = *in.Email
	}
	if in.Role != nil {
		p.Role = *in.Role
	}
}
