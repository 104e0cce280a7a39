package token_adapter

import (
	"fmt"
	"time"

	"listing-service/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "auth-service"

// TokenService проверяет access-токены, выпущенные сервисом авторизации (HS256).
// Выпуск токенов здесь нужен только для тестов и локальной отладки.
type TokenService struct {
	signingKey []byte
}

func NewTokenService(signingKey string) (*TokenService, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("JWT signing key cannot be empty")
	}
	return &TokenService{signingKey: []byte(signingKey)}, nil
}

type sessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

func (s *TokenService) GenerateToken(sess domain.Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		UserID: sess.UserID,
		Email:  sess.Email,
		Role:   sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken возвращает domain.ErrTokenInvalid для любой проблемы с токеном:
// подпись, алгоритм, срок действия, пустой user_id
func (s *TokenService) ValidateToken(tokenString string) (*domain.Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id claim is missing", domain.ErrTokenInvalid)
	}

	return &domain.Session{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
