package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Служебные поля записи.
const (
	FieldID         = "id"
	FieldOwnerID    = "ownerId"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
	FieldSyncStatus = "syncStatus"
	FieldServerID   = "serverId"
	FieldItems      = "items"
	FieldProduct    = "product"
	FieldProductID  = "productId"
	FieldName       = "name"
)

// SyncStatus - состояние синхронизации локальной записи.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
)

// UnknownProductName подставляется вместо товара, которого нет в хранилище.
const UnknownProductName = "Unknown Product"

// Record - запись произвольного типа сущности.
type Record map[string]any

// ID возвращает идентификатор записи в строковом виде.
func (r Record) ID() string {
	return r.String(FieldID)
}

// OwnerID возвращает владельца записи.
func (r Record) OwnerID() string {
	return r.String(FieldOwnerID)
}

// Status возвращает состояние синхронизации.
func (r Record) Status() SyncStatus {
	return SyncStatus(r.String(FieldSyncStatus))
}

// IsPending сообщает, ожидает ли запись отправки на сервер.
func (r Record) IsPending() bool {
	return r.Status() == StatusPending
}

// String возвращает значение поля как строку. Числа приводятся без экспоненты.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

// Decimal возвращает числовое поле как decimal. ok=false, если поле отсутствует или не число.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case decimal.Decimal:
		return val, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Time разбирает поле даты. Поддерживаются RFC 3339 и YYYY-MM-DD.
func (r Record) Time(key string) (time.Time, bool) {
	s := r.String(key)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Clone возвращает поверхностную копию записи. Встроенные позиции копируются отдельно.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	if items, ok := r.Items(); ok {
		cloned := make([]Record, 0, len(items))
		for _, item := range items {
			cloned = append(cloned, item.Clone())
		}
		out[FieldItems] = cloned
	}
	return out
}

// Merge накладывает patch поверх записи и возвращает новую запись.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Items возвращает встроенные позиции документа.
// Поддерживаются как []Record, так и []any после декодирования JSON.
func (r Record) Items() ([]Record, bool) {
	v, ok := r[FieldItems]
	if !ok || v == nil {
		return nil, false
	}
	switch val := v.(type) {
	case []Record:
		return val, true
	case []map[string]any:
		out := make([]Record, 0, len(val))
		for _, m := range val {
			out = append(out, Record(m))
		}
		return out, true
	case []any:
		out := make([]Record, 0, len(val))
		for _, item := range val {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Record(m))
			case Record:
				out = append(out, m)
			}
		}
		return out, true
	}
	return nil, false
}

// SetItems заменяет встроенные позиции.
func (r Record) SetItems(items []Record) {
	r[FieldItems] = items
}

// Nested возвращает вложенный объект (например, прикреплённый contact).
func (r Record) Nested(key string) (Record, bool) {
	switch val := r[key].(type) {
	case Record:
		return val, true
	case map[string]any:
		return Record(val), true
	}
	return nil, false
}

// Label возвращает человекочитаемый идентификатор записи по полям дескриптора.
func (r Record) Label(d Descriptor) string {
	fields := d.Label
	if len(fields) == 0 {
		fields = defaultLabel
	}
	for _, f := range fields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return r.ID()
}

// Timestamp возвращает текущее время в формате хранения.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UnknownProduct - заглушка для позиции, товар которой не найден.
func UnknownProduct(id string) Record {
	return Record{FieldID: id, FieldName: UnknownProductName}
}
