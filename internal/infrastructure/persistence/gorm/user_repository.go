package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"gorm.io/gorm"
)

// UserRepository reads consumer profiles using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ outbound.ProfileSupplier = (*UserRepository)(nil)

// GetProfile returns the nutritional profile of a consumer
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*profile.Snapshot, error) {
	var model UserModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, result.Error
	}

	return ModelToProfile(&model), nil
}

// Create stores a consumer with its profile
func (r *UserRepository) Create(ctx context.Context, s *profile.Snapshot, email string) error {
	model := ProfileToModel(s, strings.ToLower(email))

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "UNIQUE constraint failed") ||
			strings.Contains(result.Error.Error(), "duplicate key") {
			return errors.New("user with this email already exists")
		}
		return result.Error
	}

	s.UserID = model.ID
	return nil
}
