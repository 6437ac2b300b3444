package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/entity"
)

// SQLiteStore хранит каждый тип сущности в отдельной таблице (id, owner_id, data JSON).
// Соединение открывается лениво при первой операции.
type SQLiteStore struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string, log *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		path: path,
		log:  log.With("component", "sqlite_store"),
	}
}

// Open открывает базу и применяет миграции. Повторный вызов после успеха ничего не делает,
// после неудачи пробует снова.
func (s *SQLiteStore) Open(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *SQLiteStore) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := s.open(ctx)
	if err != nil {
		s.log.Warn("failed to open local store", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.db = db
	s.log.Debug("local store opened", "path", s.path)
	return db, nil
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, t entity.Type, id string) (entity.Record, error) {
	if err := checkLocal(t); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var raw string
	err = db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, tableName(t)), id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", t, id, err)
	}

	return decode([]byte(raw))
}

func (s *SQLiteStore) GetAll(ctx context.Context, t entity.Type) ([]entity.Record, error) {
	if err := checkLocal(t); err != nil {
		return nil, err
	}
	return s.query(ctx, t, fmt.Sprintf(`SELECT data FROM %s ORDER BY id`, tableName(t)))
}

func (s *SQLiteStore) GetAllByIndex(ctx context.Context, t entity.Type, index string, value any) ([]entity.Record, error) {
	if err := checkLocal(t); err != nil {
		return nil, err
	}
	if err := checkIndex(t, index); err != nil {
		return nil, err
	}

	// Сравнение текстовое, как в MemoryStore: 1 и "1" совпадают.
	// Имя поля взято из дескриптора, а не из пользовательского ввода.
	where := fmt.Sprintf(`CAST(json_extract(data, '$.%s') AS TEXT) = ?`, index)
	if index == entity.FieldOwnerID {
		where = `owner_id = ?`
	}
	want := entity.Record{index: value}.String(index)

	return s.query(ctx, t,
		fmt.Sprintf(`SELECT data FROM %s WHERE %s ORDER BY id`, tableName(t), where), want)
}

func (s *SQLiteStore) Add(ctx context.Context, t entity.Type, rec entity.Record) error {
	return s.write(ctx, t, rec, `INSERT INTO %s (id, owner_id, data) VALUES (?, ?, ?)`)
}

func (s *SQLiteStore) Put(ctx context.Context, t entity.Type, rec entity.Record) error {
	return s.write(ctx, t, rec, upsertSQL)
}

func (s *SQLiteStore) Delete(ctx context.Context, t entity.Type, id string) error {
	if err := checkLocal(t); err != nil {
		return err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, tableName(t)), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t, id, err)
	}
	return nil
}

// Replace удаляет записи владельца и вставляет новые в одной транзакции.
func (s *SQLiteStore) Replace(ctx context.Context, t entity.Type, ownerID string, recs []entity.Record) error {
	if err := checkLocal(t); err != nil {
		return err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", t, err)
	}
	defer tx.Rollback() //nolint:errcheck

	table := tableName(t)
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE owner_id = ?`, table), ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", t, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(upsertSQL, table))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", t, err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		raw, err := encode(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, rec.ID(), rec.OwnerID(), raw); err != nil {
			return fmt.Errorf("put %s/%s: %w", t, rec.ID(), err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

const upsertSQL = `INSERT INTO %s (id, owner_id, data) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id, data = excluded.data`

func (s *SQLiteStore) write(ctx context.Context, t entity.Type, rec entity.Record, query string) error {
	if err := checkLocal(t); err != nil {
		return err
	}
	if rec.ID() == "" {
		return ErrNoID
	}
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(query, tableName(t)), rec.ID(), rec.OwnerID(), raw)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", t, rec.ID(), err)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, t entity.Type, query string, args ...any) ([]entity.Record, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t, err)
	}
	defer rows.Close()

	var out []entity.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t, err)
		}
		rec, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func encode(rec entity.Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}
	return string(raw), nil
}
