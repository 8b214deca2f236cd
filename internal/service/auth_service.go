package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"studentms/internal/auth"
	apperrors "studentms/internal/errors"
	"studentms/internal/logging"
	"studentms/internal/model"
	"studentms/internal/notify"
	"studentms/internal/repository"
)

// ForgotPasswordMessage is returned whether or not the address is known.
const ForgotPasswordMessage = "If an account with this email exists, a password reset link has been sent."

// notifyTimeout bounds a single reset delivery running after the request returned.
const notifyTimeout = 15 * time.Second

var (
	// ErrInvalidCredentials is identical for unknown email and wrong password.
	ErrInvalidCredentials  = apperrors.Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
	ErrEmailTaken          = apperrors.Conflict("EMAIL_TAKEN", "Email already registered")
	ErrUsernameTaken       = apperrors.Conflict("USERNAME_TAKEN", "Username already taken")
	ErrUserExists          = apperrors.Conflict("USER_EXISTS", "User with this email or username already exists")
	ErrInvalidRole         = apperrors.BadRequest("INVALID_ROLE", "Invalid role")
	ErrInvalidRefreshToken = apperrors.Unauthorized("INVALID_REFRESH_TOKEN", "Invalid refresh token")
	ErrUserUnavailable     = apperrors.Unauthorized("USER_UNAVAILABLE", "User not found or inactive")
	ErrInvalidResetToken   = apperrors.BadRequest("INVALID_RESET_TOKEN", "Invalid reset token")
	ErrExpiredResetToken   = apperrors.BadRequest("INVALID_RESET_TOKEN", "Invalid or expired reset token")
	ErrUserNotFound        = apperrors.NotFound("USER_NOT_FOUND", "User not found")
)

// RegisterInput carries a self-registration. An empty Role means student.
type RegisterInput struct {
	Email    string
	Username string
	FullName string
	Password string
	Role     string
}

// AuthResult is the body returned by register, login and refresh.
type AuthResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	User         model.UserResponse `json:"user"`
}

// AuthService handles the credential lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string)
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateProfile(ctx context.Context, user *model.User, fullName string) (*model.User, error)
	// Wait blocks until reset deliveries started by ForgotPassword have finished.
	Wait()
}

type authService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	notifier notify.Notifier
	now      func() time.Time

	deliveries sync.WaitGroup
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, hasher *auth.PasswordHasher, notifier notify.Notifier) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		now:      time.Now,
	}
}

// Register creates a user and signs it in.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := model.RoleStudent
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := model.ParseRole(in.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).Info("user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", user.Role.String()),
	)
	return s.signIn(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same bcrypt cost as a wrong password
			s.hasher.VerifyDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, auth.ErrInactiveUser
	}
	return s.signIn(user)
}

// Refresh trades a refresh token for a new pair. Refresh tokens are not single use.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	refresh, ok := claims.(*auth.RefreshClaims)
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, refresh.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserUnavailable
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserUnavailable
	}
	return s.signIn(user)
}

// ForgotPassword issues a reset token for a known address and hands it to the
// notifier in the background. Nothing about the outcome reaches the caller, and
// the call returns without waiting on delivery.
func (s *authService) ForgotPassword(ctx context.Context, email string) {
	logger := logging.FromContext(ctx)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("forgot password lookup failed", slog.Any("error", err))
		}
		return
	}

	issuedAt := s.now()
	token, err := s.tokens.IssuePasswordReset(user.ID)
	if err != nil {
		logger.Error("issue reset token failed", slog.Uint64("user_id", uint64(user.ID)), slog.Any("error", err))
		return
	}

	event := notify.NewPasswordResetEvent(user, token, issuedAt, s.tokens.AccessTTL())
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		defer cancel()
		if err := s.notifier.PasswordReset(deliverCtx, event); err != nil {
			logger.Error("deliver reset token failed",
				slog.String("event_id", event.ID),
				slog.Uint64("user_id", uint64(event.UserID)),
				slog.Any("error", err),
			)
		}
	}()
}

func (s *authService) Wait() {
	s.deliveries.Wait()
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return ErrExpiredResetToken
		}
		return err
	}
	reset, ok := claims.(*auth.ResetClaims)
	if !ok {
		return ErrInvalidResetToken
	}

	user, err := s.users.FindByID(ctx, reset.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logging.FromContext(ctx).Info("password reset", slog.Uint64("user_id", uint64(user.ID)))
	return nil
}

// UpdateProfile sets the full name when the trimmed value is non-empty.
func (s *authService) UpdateProfile(ctx context.Context, user *model.User, fullName string) (*model.User, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return user, nil
	}
	user.FullName = name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *authService) signIn(user *model.User) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         user.Public(),
	}, nil
}
