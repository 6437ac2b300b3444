// Package store - локальное встраиваемое хранилище записей по типам сущностей.
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"storekeeper/internal/domain/entity"
)

var (
	ErrUnavailable = errors.New("local store unavailable")
	ErrNoIndex     = errors.New("index not declared")
	ErrConflict    = errors.New("record with this id already exists")
	ErrNoID        = errors.New("record has no id")
)

// Store - порт локального хранилища. Итерация всегда в порядке первичного ключа.
type Store interface {
	Open(ctx context.Context) error
	Get(ctx context.Context, t entity.Type, id string) (entity.Record, error)
	GetAll(ctx context.Context, t entity.Type) ([]entity.Record, error)
	GetAllByIndex(ctx context.Context, t entity.Type, index string, value any) ([]entity.Record, error)
	Add(ctx context.Context, t entity.Type, rec entity.Record) error
	Put(ctx context.Context, t entity.Type, rec entity.Record) error
	Delete(ctx context.Context, t entity.Type, id string) error
	Close() error
}

// Replacer реализуют хранилища, умеющие атомарно заменить записи владельца.
type Replacer interface {
	Replace(ctx context.Context, t entity.Type, ownerID string, recs []entity.Record) error
}

// Replace удаляет все записи владельца данного типа и записывает recs.
// Если хранилище поддерживает Replacer, замена выполняется им.
func Replace(ctx context.Context, s Store, t entity.Type, ownerID string, recs []entity.Record) error {
	if r, ok := s.(Replacer); ok {
		return r.Replace(ctx, t, ownerID, recs)
	}

	old, err := s.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
	if err != nil {
		return err
	}
	for _, rec := range old {
		if err := s.Delete(ctx, t, rec.ID()); err != nil {
			return err
		}
	}
	for _, rec := range recs {
		if err := s.Put(ctx, t, rec); err != nil {
			return err
		}
	}
	return nil
}

// Upsert добавляет запись, а при совпадении ключа перезаписывает её.
func Upsert(ctx context.Context, s Store, t entity.Type, rec entity.Record) error {
	err := s.Add(ctx, t, rec)
	if errors.Is(err, ErrConflict) {
		return s.Put(ctx, t, rec)
	}
	return err
}

func checkLocal(t entity.Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if entity.Describe(t).AlwaysOnline {
		return entity.ErrAlwaysRemote
	}
	return nil
}

func checkIndex(t entity.Type, index string) error {
	if !entity.Describe(t).HasIndex(index) {
		return ErrNoIndex
	}
	return nil
}

var camel = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// tableName - имя таблицы SQLite для типа: saleItems -> sale_items.
func tableName(t entity.Type) string {
	return strings.ToLower(camel.ReplaceAllString(string(t), "${1}_${2}"))
}
