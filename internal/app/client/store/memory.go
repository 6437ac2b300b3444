package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"storekeeper/internal/domain/entity"
)

// MemoryStore - хранилище в памяти. Используется в тестах и как запасной вариант,
// если SQLite не удалось открыть.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[entity.Type]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[entity.Type]map[string][]byte),
	}
}

func (m *MemoryStore) Open(context.Context) error {
	return nil
}

func (m *MemoryStore) Get(_ context.Context, t entity.Type, id string) (entity.Record, error) {
	if err := checkLocal(t); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.tables[t][id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return decode(raw)
}

func (m *MemoryStore) GetAll(_ context.Context, t entity.Type) ([]entity.Record, error) {
	return m.scan(t, func(entity.Record) bool { return true })
}

func (m *MemoryStore) GetAllByIndex(_ context.Context, t entity.Type, index string, value any) ([]entity.Record, error) {
	if err := checkIndex(t, index); err != nil {
		return nil, err
	}
	want := entity.Record{index: value}.String(index)
	return m.scan(t, func(rec entity.Record) bool {
		return rec.String(index) == want
	})
}

func (m *MemoryStore) Add(_ context.Context, t entity.Type, rec entity.Record) error {
	if err := checkLocal(t); err != nil {
		return err
	}
	id := rec.ID()
	if id == "" {
		return ErrNoID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tables[t][id]; exists {
		return ErrConflict
	}
	return m.write(t, id, rec)
}

func (m *MemoryStore) Put(_ context.Context, t entity.Type, rec entity.Record) error {
	if err := checkLocal(t); err != nil {
		return err
	}
	id := rec.ID()
	if id == "" {
		return ErrNoID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.write(t, id, rec)
}

func (m *MemoryStore) Delete(_ context.Context, t entity.Type, id string) error {
	if err := checkLocal(t); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tables[t], id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// write кладёт JSON-копию, чтобы вызывающий код не мог изменить сохранённую запись.
func (m *MemoryStore) write(t entity.Type, id string, rec entity.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}
	if m.tables[t] == nil {
		m.tables[t] = make(map[string][]byte)
	}
	m.tables[t][id] = raw
	return nil
}

func (m *MemoryStore) scan(t entity.Type, match func(entity.Record) bool) ([]entity.Record, error) {
	if err := checkLocal(t); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.tables[t]))
	for id := range m.tables[t] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]entity.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := decode(m.tables[t][id])
		if err != nil {
			return nil, err
		}
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func decode(raw []byte) (entity.Record, error) {
	var rec entity.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidData, err)
	}
	return rec, nil
}
