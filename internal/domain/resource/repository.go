package resource

import (
	"context"

	"storekeeper/internal/domain/entity"
)

// Row - запись коллекции вместе с ключом идемпотентности.
type Row struct {
	Type           entity.Type
	Data           entity.Record
	IdempotencyKey string
}

// Filter - условия выборки списка. Все условия объединяются через AND.
type Filter struct {
	Offset    int
	Limit     int
	Search    string            // подстрока в JSON записи без учёта регистра
	Date      string            // YYYY-MM-DD
	DateField string            // поле, по которому фильтруется Date
	Fields    map[string]string // точное совпадение полей
}

type Repository interface {
	List(ctx context.Context, ownerID string, t entity.Type, f Filter) ([]entity.Record, int, error)
	Find(ctx context.Context, ownerID string, t entity.Type, id string) (entity.Record, error)
	FindByKey(ctx context.Context, ownerID string, t entity.Type, key string) (entity.Record, error)
	// Insert пишет строки одной транзакцией.
	Insert(ctx context.Context, ownerID string, rows ...Row) error
	Update(ctx context.Context, ownerID string, t entity.Type, id string, data entity.Record) error
	Delete(ctx context.Context, ownerID string, t entity.Type, id string) error
	DeleteWhere(ctx context.Context, ownerID string, t entity.Type, field, value string) (int64, error)
}
