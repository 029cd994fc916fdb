// Package services defines service interfaces for the notes service.
package services

import (
	"context"
	"errors"
)

// IdentityService выдает и проверяет токены владельца заметок.
type IdentityService interface {
	Issue(ctx context.Context) (ownerID, token string, err error)
	Resolve(ctx context.Context, token string) (string, error)
}

// Ошибки, связанные с токеном владельца.
var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrExpiredToken = errors.New("identity token has expired")
)
