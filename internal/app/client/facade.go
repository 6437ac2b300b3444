package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/hydrate"
	"storekeeper/internal/app/client/query"
	"storekeeper/internal/app/client/remote"
	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

// ModeSource сообщает текущий режим. Фасад читает его при каждом вызове.
type ModeSource interface {
	Offline() bool
}

// OwnerSource сообщает владельца данных текущей сессии.
type OwnerSource interface {
	OwnerID() string
}

// Remote - операции удалённого сервера, которые использует фасад.
type Remote interface {
	List(ctx context.Context, t entity.Type, p entity.Params) (entity.Page, error)
	Get(ctx context.Context, t entity.Type, id string) (entity.Record, error)
	Create(ctx context.Context, t entity.Type, rec entity.Record, idempotencyKey string) (entity.Record, error)
	Update(ctx context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error)
	Delete(ctx context.Context, t entity.Type, id string) error
}

// Options - настройки фасада из конфигурации.
type Options struct {
	PageSize          int
	MaxPageSize       int
	LowStockThreshold int
	BarcodeStart      int64
}

// Facade - единый CRUD для вызывающего кода. Маршрутизирует вызов в локальное
// хранилище или на сервер по режиму и возможностям типа.
type Facade struct {
	store    store.Store
	query    *query.Engine
	hydrator *hydrate.Hydrator
	remote   Remote
	mode     ModeSource
	owner    OwnerSource
	bus      *Invalidations
	opts     Options
	log      *slog.Logger

	now   func() time.Time
	newID func() (string, error)
}

func NewFacade(s store.Store, r Remote, mode ModeSource, owner OwnerSource, opts Options, log *slog.Logger) *Facade {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = opts.PageSize
	}

	h := hydrate.New(s, log)
	return &Facade{
		store:    s,
		query:    query.New(s, h, log, query.WithLimits(opts.PageSize, opts.MaxPageSize)),
		hydrator: h,
		remote:   r,
		mode:     mode,
		owner:    owner,
		bus:      NewInvalidations(),
		opts:     opts,
		log:      log.With("component", "facade"),
		now:      time.Now,
		newID:    newID,
	}
}

// Invalidations возвращает шину сигналов об изменении товаров и контрагентов.
func (f *Facade) Invalidations() *Invalidations {
	return f.bus
}

// Offline сообщает, уйдёт ли вызов для типа t в локальное хранилище.
func (f *Facade) Offline(t entity.Type) bool {
	return !entity.Describe(t).AlwaysOnline && f.mode.Offline()
}

// Create создаёт запись. Офлайн запись получает клиентский id и статус pending.
func (f *Facade) Create(ctx context.Context, t entity.Type, data entity.Record) (entity.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if !f.Offline(t) {
		created, err := f.remote.Create(ctx, t, data, "")
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", t, err)
		}
		f.notify(t, created.ID(), OpCreate)
		return created, nil
	}

	ownerID, err := f.ownerID()
	if err != nil {
		return nil, err
	}

	rec, err := f.stamp(data, ownerID, "", "")
	if err != nil {
		return nil, err
	}

	desc := entity.Describe(t)
	var items []entity.Record
	if desc.Items != nil {
		if embedded, ok := rec.Items(); ok {
			items = make([]entity.Record, 0, len(embedded))
			for _, item := range embedded {
				stamped, err := f.stamp(item, ownerID, desc.Items.ParentField, rec.ID())
				if err != nil {
					return nil, err
				}
				items = append(items, stamped)
			}
			rec.SetItems(items)
		}
	}

	if err := store.Upsert(ctx, f.store, t, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", t, err)
	}

	// Позиции пишутся независимо от родителя.
	for _, item := range items {
		if err := store.Upsert(ctx, f.store, desc.Items.Type, item); err != nil {
			return nil, fmt.Errorf("create %s item: %w", t, err)
		}
	}

	f.log.Debug("record created offline", "type", t, "id", rec.ID())
	f.notify(t, rec.ID(), OpCreate)
	return rec, nil
}

// Read возвращает страницу записей в форме {items,total,page,totalPages}.
func (f *Facade) Read(ctx context.Context, t entity.Type, p entity.Params) (entity.Page, error) {
	if err := t.Validate(); err != nil {
		return entity.Page{}, err
	}

	if f.Offline(t) {
		ownerID, err := f.ownerID()
		if err != nil {
			return entity.Page{}, err
		}
		return f.query.Run(ctx, t, ownerID, p)
	}

	p = p.Normalize(f.opts.PageSize, f.opts.MaxPageSize)

	var page entity.Page
	if p.ID != "" {
		rec, err := f.remote.Get(ctx, t, p.ID)
		var apiErr *remote.Error
		switch {
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
			return entity.EmptyPage(1), nil
		case err != nil:
			return entity.Page{}, fmt.Errorf("read %s: %w", t, err)
		}
		page = entity.Page{Items: []entity.Record{rec}, Total: 1, Page: 1, TotalPages: 1}
	} else {
		var err error
		page, err = f.remote.List(ctx, t, p)
		if err != nil {
			return entity.Page{}, fmt.Errorf("read %s: %w", t, err)
		}
	}

	// Серверные записи без связей дополняются из локальных коллекций.
	if ownerID := f.owner.OwnerID(); ownerID != "" {
		page.Items = f.hydrator.Complete(ctx, t, ownerID, page.Items)
	}
	return page, nil
}

// Update частично изменяет запись.
func (f *Facade) Update(ctx context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if !f.Offline(t) {
		updated, err := f.remote.Update(ctx, t, id, patch)
		if err != nil {
			return nil, fmt.Errorf("update %s/%s: %w", t, id, err)
		}
		f.notify(t, id, OpUpdate)
		return updated, nil
	}

	existing, err := f.localGet(ctx, t, id)
	if err != nil {
		return nil, err
	}

	merged := existing.Merge(patch)
	for _, key := range []string{entity.FieldID, entity.FieldOwnerID, entity.FieldCreatedAt, entity.FieldServerID} {
		if v, ok := existing[key]; ok {
			merged[key] = v
		}
	}
	// Правка уже отправленной записи снова ждёт выгрузки: serverId укажет, что это PUT.
	merged[entity.FieldSyncStatus] = string(entity.StatusPending)
	merged[entity.FieldUpdatedAt] = entity.Timestamp(f.now())

	if err := f.store.Put(ctx, t, merged); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", t, id, err)
	}

	f.notify(t, id, OpUpdate)
	return merged, nil
}

// Delete удаляет запись. Офлайн удаление документа удаляет и его позиции.
func (f *Facade) Delete(ctx context.Context, t entity.Type, id string) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if !f.Offline(t) {
		if err := f.remote.Delete(ctx, t, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", t, id, err)
		}
		f.notify(t, id, OpDelete)
		return nil
	}

	if _, err := f.localGet(ctx, t, id); err != nil {
		return err
	}

	if err := f.store.Delete(ctx, t, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t, id, err)
	}

	if children := entity.Describe(t).Items; children != nil {
		f.deleteChildren(ctx, children, id)
	}

	f.notify(t, id, OpDelete)
	return nil
}

func (f *Facade) deleteChildren(ctx context.Context, c *entity.Children, parentID string) {
	items, err := f.store.GetAllByIndex(ctx, c.Type, c.ParentField, parentID)
	if err != nil {
		f.log.Warn("failed to list items for delete", "type", c.Type, "parent_id", parentID, "error", err)
		return
	}
	for _, item := range items {
		if err := f.store.Delete(ctx, c.Type, item.ID()); err != nil {
			f.log.Warn("failed to delete item", "type", c.Type, "id", item.ID(), "error", err)
		}
	}
}

// localGet читает запись владельца. Чужая или отсутствующая запись - ErrNotFound.
func (f *Facade) localGet(ctx context.Context, t entity.Type, id string) (entity.Record, error) {
	ownerID, err := f.ownerID()
	if err != nil {
		return nil, err
	}

	rec, err := f.store.Get(ctx, t, id)
	if errors.Is(err, entity.ErrNotFound) || (err == nil && rec.OwnerID() != ownerID) {
		return nil, fmt.Errorf("%s/%s: %w", t, id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", t, id, err)
	}
	return rec, nil
}

// stamp готовит запись к локальной вставке: id, владелец, метки времени, pending.
func (f *Facade) stamp(data entity.Record, ownerID, parentField, parentID string) (entity.Record, error) {
	rec := data.Clone()
	if rec == nil {
		rec = entity.Record{}
	}
	if rec.ID() == "" {
		id, err := f.newID()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		rec[entity.FieldID] = id
	}
	if parentField != "" {
		rec[parentField] = parentID
	}

	now := entity.Timestamp(f.now())
	rec[entity.FieldOwnerID] = ownerID
	rec[entity.FieldCreatedAt] = now
	rec[entity.FieldUpdatedAt] = now
	rec[entity.FieldSyncStatus] = string(entity.StatusPending)
	return rec, nil
}

func (f *Facade) ownerID() (string, error) {
	id := f.owner.OwnerID()
	if id == "" {
		return "", entity.ErrNoOwner
	}
	return id, nil
}

func (f *Facade) notify(t entity.Type, id string, op Op) {
	if invalidates(t) {
		f.bus.publish(Invalidation{Type: t, ID: id, Op: op})
	}
}

// newID - UUID v7: время плюс случайная часть.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
