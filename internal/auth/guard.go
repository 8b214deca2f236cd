package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "studentms/internal/errors"
	"studentms/internal/model"
)

var (
	ErrNotAuthenticated = apperrors.Unauthorized("NOT_AUTHENTICATED", "Could not validate credentials")
	ErrInactiveUser     = apperrors.Forbidden("USER_INACTIVE", "User account is disabled")
	ErrRoleNotAllowed   = apperrors.Forbidden("INSUFFICIENT_PERMISSIONS", "Not enough permissions")
)

// UserFinder is the persistence lookup the guard needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Guard resolves bearer credentials to active users. It holds no per-request state.
type Guard struct {
	tokens *TokenService
	users  UserFinder
}

func NewGuard(tokens *TokenService, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate verifies an access token (with or without the "Bearer " scheme prefix)
// and loads its user. Refresh and reset tokens are rejected.
func (g *Guard) Authenticate(ctx context.Context, credential string) (*model.User, error) {
	token := BearerToken(credential)
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	access, ok := claims.(*AccessClaims)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	user, err := g.users.FindByID(ctx, access.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load user %d: %w", access.UserID, err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// Require composes authentication and authorization for one endpoint.
func (g *Guard) Require(roles ...model.Role) func(ctx context.Context, credential string) (*model.User, error) {
	authorize := Authorize(roles...)
	return func(ctx context.Context, credential string) (*model.User, error) {
		return authorize(g.Authenticate(ctx, credential))
	}
}

// Authorize returns a check that lets an authenticated user through when its role
// is one of roles. Errors from the authentication step pass through unchanged, so
// the check composes directly: Authorize(model.RoleAdmin)(guard.Authenticate(ctx, cred)).
func Authorize(roles ...model.Role) func(*model.User, error) (*model.User, error) {
	allowed := model.NewRoleSet(roles...)
	return func(user *model.User, err error) (*model.User, error) {
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrNotAuthenticated
		}
		if !allowed.Has(user.Role) {
			return nil, ErrRoleNotAllowed
		}
		return user, nil
	}
}

// BearerToken strips an optional case-insensitive "Bearer" scheme.
func BearerToken(credential string) string {
	credential = strings.TrimSpace(credential)
	const scheme = "bearer"
	if len(credential) >= len(scheme) && strings.EqualFold(credential[:len(scheme)], scheme) {
		rest := credential[len(scheme):]
		if rest == "" || rest[0] == ' ' {
			credential = strings.TrimSpace(rest)
		}
	}
	return credential
}
