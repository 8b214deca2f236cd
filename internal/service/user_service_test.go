package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "studentms/internal/errors"
	"studentms/internal/model"
	"studentms/internal/repository"
)

func TestUserService_DeleteUser(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin, IsActive: true}

	tests := []struct {
		name          string
		id            uint
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "deletes another user",
			id:   2,
			setupMock: func(m *MockUserRepository) {
				m.On("Delete", mock.Anything, uint(2)).Return(nil)
			},
		},
		{name: "refuses self delete", id: 1, setupMock: func(m *MockUserRepository) {}, expectedError: ErrSelfDelete},
		{
			name: "missing user",
			id:   3,
			setupMock: func(m *MockUserRepository) {
				m.On("Delete", mock.Anything, uint(3)).Return(gorm.ErrRecordNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			svc := NewUserService(mockRepo)

			err := svc.DeleteUser(context.Background(), admin, tt.id)
			assert.Equal(t, tt.expectedError, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_SetActive(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin, IsActive: true}

	tests := []struct {
		name          string
		id            uint
		active        bool
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:   "deactivate other",
			id:     2,
			active: false,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, IsActive: true}, nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return !u.IsActive })).Return(nil)
			},
		},
		{
			name:   "activate other",
			id:     2,
			active: true,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2}, nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return u.IsActive })).Return(nil)
			},
		},
		{
			name:   "refuses self deactivate",
			id:     1,
			active: false,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, IsActive: true}, nil)
			},
			expectedError: ErrSelfDeactivate,
		},
		{
			name:   "missing user",
			id:     9,
			active: true,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			svc := NewUserService(mockRepo)

			user, err := svc.SetActive(context.Background(), admin, tt.id, tt.active)
			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.active, user.IsActive)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin, IsActive: true}

	t.Run("promotes other user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Role: model.RoleStudent}, nil)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		user, err := NewUserService(mockRepo).ChangeRole(context.Background(), admin, 2, model.RoleFaculty)
		require.NoError(t, err)
		assert.Equal(t, model.RoleFaculty, user.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		_, err := NewUserService(mockRepo).ChangeRole(context.Background(), admin, 2, model.Role(42))
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("refuses self change", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Role: model.RoleAdmin}, nil)

		_, err := NewUserService(mockRepo).ChangeRole(context.Background(), admin, 1, model.RoleStudent)
		assert.Equal(t, ErrSelfRoleChange, err)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	mockRepo := new(MockUserRepository)
	filter := repository.UserFilter{Role: model.RoleFaculty}
	page := repository.Page{Skip: 0, Limit: 10}
	mockRepo.On("List", mock.Anything, filter, page).Return([]model.User{{ID: 4, Role: model.RoleFaculty}}, nil)

	users, err := NewUserService(mockRepo).ListUsers(context.Background(), filter, page)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	mockRepo.AssertExpectations(t)
}
