package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"studentms/internal/model"
)

// UserFilter narrows user listings. A zero Role means any role.
type UserFilter struct {
	Role model.Role
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page Page) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user. Email and username are stored lowercase.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = normalize(user.Email)
	user.Username = normalize(user.Username)
	return translateWriteError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return translateWriteError(r.db.WithContext(ctx).Save(user).Error)
}

// Delete removes a user, returning gorm.ErrRecordNotFound when nothing matched.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches case-insensitively.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalize(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", normalize(username)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page Page) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role.Valid() {
		q = q.Where("role = ?", filter.Role)
	}
	var users []model.User
	if err := page.apply(q).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
