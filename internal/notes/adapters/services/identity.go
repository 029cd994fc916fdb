// Package services provides implementations of service interfaces.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ainotes/internal/notes/ports/services"
	"ainotes/pkg/logger"
)

// Константы для работы с токеном владельца.
const (
	methodIssue        = "JWTIdentity.Issue"
	methodResolve      = "JWTIdentity.Resolve"
	msgTokenIssued     = "identity token issued"
	msgTokenExpired    = "identity token has expired"
	msgErrParsingToken = "error parsing identity token" //nolint:gosec
	errCtxResolving    = "resolving identity"
	errCtxIssuing      = "issuing identity"
	issuer             = "ainotes"
)

// JWTIdentity выдает владельцу заметок подписанный HS256 токен, subject которого равен ID владельца.
type JWTIdentity struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTIdentity создает новый экземпляр сервиса идентификации.
func NewJWTIdentity(secretKey string, ttl time.Duration) *JWTIdentity {
	return &JWTIdentity{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithClock задает источник времени.
func (s *JWTIdentity) WithClock(now func() time.Time) *JWTIdentity {
	s.now = now
	return s
}

var _ services.IdentityService = (*JWTIdentity)(nil)

// Issue создает нового владельца и подписанный токен для него.
func (s *JWTIdentity) Issue(ctx context.Context) (string, string, error) {
	ownerID := uuid.NewString()
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   ownerID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		logger.Log(ctx).Error(ctx, errCtxIssuing, zap.String("method", methodIssue), zap.Error(err))
		return "", "", fmt.Errorf("%s: %w", errCtxIssuing, err)
	}

	logger.Log(ctx).Debug(ctx, msgTokenIssued, zap.String("ownerID", ownerID))
	return ownerID, token, nil
}

// Resolve проверяет токен и возвращает ID владельца.
func (s *JWTIdentity) Resolve(ctx context.Context, tokenString string) (string, error) {
	log := logger.Log(ctx).With(zap.String("method", methodResolve))

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug(ctx, msgTokenExpired)
			return "", fmt.Errorf("%s: %w", errCtxResolving, services.ErrExpiredToken)
		}
		log.Debug(ctx, msgErrParsingToken, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCtxResolving, services.ErrInvalidToken)
	}

	if !token.Valid {
		return "", fmt.Errorf("%s: %w", errCtxResolving, services.ErrInvalidToken)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		log.Debug(ctx, "subject is not an owner id")
		return "", fmt.Errorf("%s: %w", errCtxResolving, services.ErrInvalidToken)
	}

	return claims.Subject, nil
}
