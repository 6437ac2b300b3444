package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/session"
)

type SessionRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSessionRepository(db *Storage, log *slog.Logger) *SessionRepository {
	return &SessionRepository{
		pool: db.Pool(),
		log:  log.With("component", "session_repository"),
	}
}

func (r *SessionRepository) Create(ctx context.Context, ownerID string, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (owner_id, token_hash, expires_at)
         VALUES ($1, decode($2, 'hex'), $3)`,
		ownerID, tokenHash, expiresAt)
	if err != nil {
		r.log.Error("failed to create session", "owner_id", ownerID, "error", err)
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Validate(ctx context.Context, tokenHash string) (string, error) {
	var ownerID string
	err := r.pool.QueryRow(ctx,
		`SELECT owner_id FROM sessions
         WHERE token_hash = decode($1, 'hex') AND expires_at > NOW()`,
		tokenHash).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", session.ErrInvalidToken
		}
		r.log.Error("failed to validate session", "error", err)
		return "", fmt.Errorf("validate session: %w", err)
	}
	return ownerID, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
