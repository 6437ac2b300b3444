package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid session")
	ErrNoOwner      = errors.New("owner id is required")
)

type Repository interface {
	Create(ctx context.Context, ownerID string, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (string, error)
	Revoke(ctx context.Context, ownerID string) (int64, error)
}
