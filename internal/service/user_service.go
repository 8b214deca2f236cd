package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	apperrors "studentms/internal/errors"
	"studentms/internal/logging"
	"studentms/internal/model"
	"studentms/internal/repository"
)

var (
	ErrSelfDelete     = apperrors.Forbidden("SELF_ACTION", "You cannot delete your own account")
	ErrSelfDeactivate = apperrors.Forbidden("SELF_ACTION", "You cannot deactivate your own account")
	ErrSelfRoleChange = apperrors.Forbidden("SELF_ACTION", "You cannot change your own role")
)

// UserService exposes account administration. Every mutating call names the
// acting admin so self-targeted changes can be refused.
type UserService interface {
	ListUsers(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]model.User, error)
	DeleteUser(ctx context.Context, actor *model.User, id uint) error
	SetActive(ctx context.Context, actor *model.User, id uint, active bool) (*model.User, error)
	ChangeRole(ctx context.Context, actor *model.User, id uint, role model.Role) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService with repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]model.User, error) {
	users, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor *model.User, id uint) error {
	if actor.ID == id {
		return ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	logging.FromContext(ctx).Info("user deleted",
		slog.Uint64("user_id", uint64(id)),
		slog.Uint64("by", uint64(actor.ID)),
	)
	return nil
}

// SetActive flips the active flag. Reactivating yourself is allowed, deactivating is not.
func (s *userService) SetActive(ctx context.Context, actor *model.User, id uint, active bool) (*model.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active && actor.ID == user.ID {
		return nil, ErrSelfDeactivate
	}
	user.IsActive = active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	logging.FromContext(ctx).Info("user active flag changed",
		slog.Uint64("user_id", uint64(id)),
		slog.Bool("active", active),
		slog.Uint64("by", uint64(actor.ID)),
	)
	return user, nil
}

func (s *userService) ChangeRole(ctx context.Context, actor *model.User, id uint, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == user.ID {
		return nil, ErrSelfRoleChange
	}
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	logging.FromContext(ctx).Info("user role changed",
		slog.Uint64("user_id", uint64(id)),
		slog.String("role", role.String()),
		slog.Uint64("by", uint64(actor.ID)),
	)
	return user, nil
}

func (s *userService) find(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
