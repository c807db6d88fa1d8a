package db

import (
	"context"
	"strings"

	"eventbooking/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		return nil, notFound(err)
	}
	return toIdentity(model), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return toIdentity(model), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new identity. A concurrent registration of the same name
// loses on the unique index and reports ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, identity domain.Identity) (*domain.Identity, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	model := UserModel{
		ID:           identity.ID,
		Username:     strings.TrimSpace(identity.Username),
		PasswordHash: identity.PasswordHash,
		Role:         identity.Role,
		CreatedAt:    identity.CreatedAt,
	}
	if model.ID == "" {
		model.ID = newID()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = nowUTC()
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}
	return toIdentity(model), nil
}

func toIdentity(model UserModel) *domain.Identity {
	return &domain.Identity{
		ID:           model.ID,
		Username:     model.Username,
		PasswordHash: model.PasswordHash,
		Role:         model.Role,
		CreatedAt:    model.CreatedAt,
	}
}

var _ domain.IdentityStore = (*UserRepository)(nil)
