package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/entity"
	"storekeeper/internal/domain/resource"
)

const uniqueViolation = "23505"

type ResourceRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewResourceRepository(db *Storage, log *slog.Logger) *ResourceRepository {
	return &ResourceRepository{
		pool: db.Pool(),
		log:  log.With("component", "resource_repository"),
	}
}

func (r *ResourceRepository) List(ctx context.Context, ownerID string, t entity.Type, f resource.Filter) ([]entity.Record, int, error) {
	w := buildWhere(ownerID, t, f)

	var total int
	countQuery := "SELECT count(*) FROM records WHERE " + w.String()
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		r.log.Error("failed to count records", "type", t, "owner_id", ownerID, "error", err)
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	if total == 0 || f.Offset >= total {
		return []entity.Record{}, total, nil
	}

	limitHolder := w.next()
	args := append(w.args, f.Limit, f.Offset)
	query := fmt.Sprintf(
		"SELECT data FROM records WHERE %s ORDER BY created_at, id LIMIT %s OFFSET $%d",
		w.String(), limitHolder, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list records", "type", t, "owner_id", ownerID, "error", err)
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	items := make([]entity.Record, 0, f.Limit)
	for rows.Next() {
		rec, err := scanData(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	return items, total, nil
}

func (r *ResourceRepository) Find(ctx context.Context, ownerID string, t entity.Type, id string) (entity.Record, error) {
	const query = `
		SELECT data FROM records
		WHERE resource = $1 AND id = $2 AND owner_id = $3`

	rec, err := scanData(r.pool.QueryRow(ctx, query, string(t), id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		r.log.Error("failed to get record", "type", t, "id", id, "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *ResourceRepository) FindByKey(ctx context.Context, ownerID string, t entity.Type, key string) (entity.Record, error) {
	const query = `
		SELECT data FROM records
		WHERE resource = $1 AND owner_id = $2 AND idempotency_key = $3`

	rec, err := scanData(r.pool.QueryRow(ctx, query, string(t), ownerID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("get record by key: %w", err)
	}
	return rec, nil
}

// Insert пишет документ и его позиции в одной транзакции.
func (r *ResourceRepository) Insert(ctx context.Context, ownerID string, rows ...resource.Row) error {
	const query = `
		INSERT INTO records (resource, id, owner_id, data, idempotency_key)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, row := range rows {
			data, err := json.Marshal(row.Data)
			if err != nil {
				return fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
			}
			if _, err := tx.Exec(ctx, query, string(row.Type), row.Data.ID(), ownerID, data, row.IdempotencyKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return resource.ErrConflict
		}
		if errors.Is(err, entity.ErrInvalidData) {
			return err
		}
		r.log.Error("failed to insert records", "owner_id", ownerID, "count", len(rows), "error", err)
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

func (r *ResourceRepository) Update(ctx context.Context, ownerID string, t entity.Type, id string, rec entity.Record) error {
	const query = `
		UPDATE records SET data = $1, updated_at = NOW()
		WHERE resource = $2 AND id = $3 AND owner_id = $4`

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}

	result, err := r.pool.Exec(ctx, query, data, string(t), id, ownerID)
	if err != nil {
		r.log.Error("failed to update record", "type", t, "id", id, "owner_id", ownerID, "error", err)
		return fmt.Errorf("update record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, ownerID string, t entity.Type, id string) error {
	const query = `DELETE FROM records WHERE resource = $1 AND id = $2 AND owner_id = $3`

	result, err := r.pool.Exec(ctx, query, string(t), id, ownerID)
	if err != nil {
		r.log.Error("failed to delete record", "type", t, "id", id, "owner_id", ownerID, "error", err)
		return fmt.Errorf("delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *ResourceRepository) DeleteWhere(ctx context.Context, ownerID string, t entity.Type, field, value string) (int64, error) {
	const query = `DELETE FROM records WHERE resource = $1 AND owner_id = $2 AND data->>$3 = $4`

	result, err := r.pool.Exec(ctx, query, string(t), ownerID, field, value)
	if err != nil {
		r.log.Error("failed to delete records", "type", t, "field", field, "owner_id", ownerID, "error", err)
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanData(row pgx.Row) (entity.Record, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, err
	}
	var rec entity.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
