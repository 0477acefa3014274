package services

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	"github.com/iota-uz/docflow/pkg/configuration"
	"github.com/iota-uz/docflow/pkg/serrors"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenClaims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"type"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	users *UserService
}

func NewAuthService(users *UserService) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*user.User, *TokenPair, error) {
	logger := configuration.Use().Logger()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		logger.WithField("email", email).Info("authentication failed: unknown email")
		return nil, nil, serrors.New(http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
	}
	if !u.CheckPassword(password) {
		logger.WithField("email", email).Info("authentication failed: wrong password")
		return nil, nil, serrors.New(http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")
	}

	pair, err := s.IssueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *AuthService) IssueTokens(u *user.User) (*TokenPair, error) {
	conf := configuration.Use()
	access, err := s.signToken(u, TokenTypeAccess, conf.JWT.AccessDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(u, TokenTypeRefresh, conf.JWT.RefreshDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.VerifyToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", serrors.New(http.StatusUnauthorized, "AUTH_INVALID_TOKEN", "invalid refresh token")
	}
	return s.signToken(u, TokenTypeAccess, configuration.Use().JWT.AccessDuration)
}

func (s *AuthService) VerifyToken(token, tokenType string) (*TokenClaims, error) {
	conf := configuration.Use()
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, serrors.New(http.StatusUnauthorized, "AUTH_INVALID_TOKEN", "unexpected signing method")
		}
		return []byte(conf.JWT.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, serrors.Wrap(http.StatusUnauthorized, "AUTH_INVALID_TOKEN", "invalid or expired token", err)
	}
	if claims.TokenType != tokenType {
		return nil, serrors.New(http.StatusUnauthorized, "AUTH_INVALID_TOKEN", "wrong token type")
	}
	return claims, nil
}

func (s *AuthService) signToken(u *user.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    u.ID(),
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(configuration.Use().JWT.Secret))
}
