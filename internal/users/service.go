package users

import (
	"context"
	"errors"

	"trustline-backend/internal/constants"
	"trustline-backend/internal/escrows"
	"trustline-backend/internal/models"
	"trustline-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("User not found")
	ErrEmailTaken = errors.New("Email already registered")
)

// CreateInput is the admin user-creation payload.
type CreateInput struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Service manages platform accounts. All routes using it sit behind the
// admin permission middleware.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Create registers a new account. Role defaults to AGENT.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	errs := map[string][]string{}
	if !validation.IsValidFullname(in.Fullname) {
		errs["fullname"] = append(errs["fullname"], "Fullname may contain letters, spaces, hyphens and apostrophes only")
	}
	if !validation.IsValidEmail(in.Email) {
		errs["email"] = append(errs["email"], "Enter a valid email address.")
	}
	if !validation.IsValidPassword(in.Password) {
		errs["password"] = append(errs["password"], "Password must be at least 8 characters with a letter, a number and a special character")
	}
	if in.Role == "" {
		in.Role = constants.Agent
	}
	if !constants.IsValidRole(in.Role) {
		errs["role"] = append(errs["role"], "Invalid role")
	}
	if len(errs) > 0 {
		return nil, &escrows.ValidationError{Fields: errs}
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Fullname:     in.Fullname,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole assigns a new platform role to the account.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	if !constants.IsValidRole(role) {
		return nil, &escrows.ValidationError{Fields: map[string][]string{
			"role": {"Invalid role"},
		}}
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	return user, nil
}
