package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"studentms/internal/model"
)

const (
	// DefaultAccessTokenTTL applies to access and password reset tokens.
	DefaultAccessTokenTTL = 30 * time.Minute
	// DefaultRefreshTokenTTL applies to refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeRefresh       = "refresh"
	tokenTypePasswordReset = "password_reset"
)

var (
	// ErrInvalidToken is returned for bad signatures, expired tokens and malformed payloads.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is the expiry case of ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// SecretSource supplies the signing secret.
type SecretSource interface {
	SigningSecret() ([]byte, error)
}

// tokenClaims is the wire payload: {sub, role?, type?, exp}.
type tokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Claims is the verified content of a token. The concrete type tells the token purpose:
// *AccessClaims, *RefreshClaims or *ResetClaims.
type Claims interface {
	SubjectID() uint
	Expiry() time.Time
	sealed()
}

// AccessClaims authorizes API calls.
type AccessClaims struct {
	UserID    uint
	Role      model.Role
	ExpiresAt time.Time
}

// RefreshClaims can only be exchanged for a new token pair.
type RefreshClaims struct {
	UserID    uint
	ExpiresAt time.Time
}

// ResetClaims can only be used to set a new password.
type ResetClaims struct {
	UserID    uint
	ExpiresAt time.Time
}

func (c *AccessClaims) SubjectID() uint    { return c.UserID }
func (c *AccessClaims) Expiry() time.Time  { return c.ExpiresAt }
func (*AccessClaims) sealed()              {}
func (c *RefreshClaims) SubjectID() uint   { return c.UserID }
func (c *RefreshClaims) Expiry() time.Time { return c.ExpiresAt }
func (*RefreshClaims) sealed()             {}
func (c *ResetClaims) SubjectID() uint     { return c.UserID }
func (c *ResetClaims) Expiry() time.Time   { return c.ExpiresAt }
func (*ResetClaims) sealed()               {}

// TokenPair is what login, register and refresh hand out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies HS256 tokens. It keeps no server side state.
type TokenService struct {
	secrets    SecretSource
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// NewTokenService creates a token service. Non-positive TTLs fall back to the defaults.
func NewTokenService(secrets SecretSource, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenService{
		secrets:    secrets,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		// expiry is checked by Verify against s.now, with no leeway
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// AccessTTL is also the lifetime of password reset tokens.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccess signs {sub, role, exp}.
func (s *TokenService) IssueAccess(userID uint, role model.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("issue access token: invalid role %d", role)
	}
	return s.sign(userID, role.String(), "", s.accessTTL)
}

// IssueRefresh signs {sub, type=refresh, exp}.
func (s *TokenService) IssueRefresh(userID uint) (string, error) {
	return s.sign(userID, "", tokenTypeRefresh, s.refreshTTL)
}

// IssuePasswordReset signs {sub, type=password_reset, exp} with the access lifetime.
func (s *TokenService) IssuePasswordReset(userID uint) (string, error) {
	return s.sign(userID, "", tokenTypePasswordReset, s.accessTTL)
}

// IssuePair issues an access and a refresh token for user.
func (s *TokenService) IssuePair(user *model.User) (TokenPair, error) {
	access, err := s.IssueAccess(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(userID uint, role, typ string, ttl time.Duration) (string, error) {
	secret, err := s.secrets.SigningSecret()
	if err != nil {
		return "", fmt.Errorf("load signing secret: %w", err)
	}

	claims := &tokenClaims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(s.now().UTC().Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry and payload shape. It does not decide whether the
// token purpose fits the caller; callers switch on the returned Claims type.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	secret, err := s.secrets.SigningSecret()
	if err != nil {
		return nil, fmt.Errorf("load signing secret: %w", err)
	}

	token, err := s.parser.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	expiresAt := claims.ExpiresAt.Time.UTC()
	if !s.now().UTC().Before(expiresAt) {
		return nil, ErrTokenExpired
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	switch claims.Type {
	case "":
		role, err := model.ParseRole(claims.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return &AccessClaims{UserID: uint(userID), Role: role, ExpiresAt: expiresAt}, nil
	case tokenTypeRefresh:
		return &RefreshClaims{UserID: uint(userID), ExpiresAt: expiresAt}, nil
	case tokenTypePasswordReset:
		return &ResetClaims{UserID: uint(userID), ExpiresAt: expiresAt}, nil
	default:
		return nil, fmt.Errorf("%w: unknown token type %q", ErrInvalidToken, claims.Type)
	}
}
