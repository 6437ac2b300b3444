// Package hydrate прикрепляет к записям связанные сущности из локального хранилища.
// Битые ссылки никогда не приводят к ошибке чтения.
package hydrate

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

type Hydrator struct {
	store store.Store
	log   *slog.Logger
}

func New(s store.Store, log *slog.Logger) *Hydrator {
	return &Hydrator{
		store: s,
		log:   log.With("component", "hydrator"),
	}
}

// Resolver выполняет гидрацию в рамках одного чтения и кэширует найденные сущности.
// Видны только сущности владельца ownerID.
type Resolver struct {
	h       *Hydrator
	ctx     context.Context
	ownerID string
	cache   map[entity.Type]map[string]entity.Record
}

// Resolver создаёт резолвер на одно чтение владельца ownerID.
func (h *Hydrator) Resolver(ctx context.Context, ownerID string) *Resolver {
	return &Resolver{
		h:       h,
		ctx:     ctx,
		ownerID: ownerID,
		cache:   make(map[entity.Type]map[string]entity.Record),
	}
}

// Hydrate - сокращение для гидрации списка одним резолвером.
func (h *Hydrator) Hydrate(ctx context.Context, t entity.Type, ownerID string, recs []entity.Record) []entity.Record {
	r := h.Resolver(ctx, ownerID)
	out := make([]entity.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.Attach(t, rec))
	}
	return out
}

// Complete дополняет серверные записи недостающими связями из локального хранилища:
// контрагентом и позициями, если items нет. Встроенные позиции не меняются.
func (h *Hydrator) Complete(ctx context.Context, t entity.Type, ownerID string, recs []entity.Record) []entity.Record {
	desc := entity.Describe(t)
	if desc.Counterparty == nil && desc.Items == nil {
		return recs
	}

	r := h.Resolver(ctx, ownerID)
	out := make([]entity.Record, 0, len(recs))
	for _, rec := range recs {
		filled := rec.Clone()
		r.attachCounterparty(t, filled)
		if _, ok := filled.Items(); !ok && desc.Items != nil {
			if items, ok := r.children(desc.Items, rec.ID()); ok && len(items) > 0 {
				filled.SetItems(r.attachProducts(items))
			}
		}
		out = append(out, filled)
	}
	return out
}

// Attach возвращает копию записи с прикреплёнными связями.
func (r *Resolver) Attach(t entity.Type, rec entity.Record) entity.Record {
	switch t {
	case entity.Sales, entity.Purchases, entity.BulkPurchases, entity.SaleReturns:
		out := rec.Clone()
		r.attachCounterparty(t, out)
		r.attachItems(t, out)
		return out
	case entity.Expenses, entity.LoanTransactions:
		out := rec.Clone()
		r.attachCounterparty(t, out)
		return out
	case entity.Products, entity.Contacts, entity.SaleItems, entity.PurchaseItems,
		entity.BulkPurchaseItems, entity.SaleReturnItems, entity.Branches, entity.Employees,
		entity.ShopSettings, entity.Categories, entity.Settings:
		return rec
	}
	return rec
}

// CounterpartyMatches сообщает, содержит ли имя контрагента записи подстроку term.
// term ожидается в нижнем регистре.
func (r *Resolver) CounterpartyMatches(t entity.Type, rec entity.Record, term string) bool {
	rel := entity.Describe(t).Counterparty
	if rel == nil {
		return false
	}

	cp, ok := rec.Nested(rel.Key)
	if !ok {
		var err error
		if cp, err = r.lookup(rel.Type, rec.String(rel.Field)); err != nil {
			return false
		}
	}
	return strings.Contains(strings.ToLower(cp.String(entity.FieldName)), term)
}

func (r *Resolver) attachCounterparty(t entity.Type, rec entity.Record) {
	rel := entity.Describe(t).Counterparty
	if rel == nil {
		return
	}
	if _, ok := rec.Nested(rel.Key); ok {
		return
	}
	if cp, err := r.lookup(rel.Type, rec.String(rel.Field)); err == nil {
		rec[rel.Key] = cp.Clone()
	}
}

func (r *Resolver) attachItems(t entity.Type, rec entity.Record) {
	children := entity.Describe(t).Items
	if children == nil {
		return
	}

	items, embedded := rec.Items()
	if !embedded {
		var ok bool
		items, ok = r.children(children, rec.ID())
		if !ok {
			return
		}
	}

	rec.SetItems(r.attachProducts(items))
}

func (r *Resolver) attachProducts(items []entity.Record) []entity.Record {
	hydrated := make([]entity.Record, 0, len(items))
	for _, item := range items {
		item = item.Clone()
		r.attachProduct(item)
		hydrated = append(hydrated, item)
	}
	return hydrated
}

func (r *Resolver) attachProduct(item entity.Record) {
	if _, ok := item.Nested(entity.FieldProduct); ok {
		return
	}
	productID := item.String(entity.FieldProductID)
	if productID == "" {
		return
	}
	p, err := r.lookup(entity.Products, productID)
	switch {
	case err == nil:
		item[entity.FieldProduct] = p.Clone()
	case errors.Is(err, entity.ErrNotFound):
		item[entity.FieldProduct] = entity.UnknownProduct(productID)
	default:
		// Сбой хранилища не означает, что товара нет: позиция остаётся без product.
	}
}

// children сканирует коллекцию позиций владельца по внешнему ключу родителя.
func (r *Resolver) children(c *entity.Children, parentID string) ([]entity.Record, bool) {
	if parentID == "" {
		return nil, false
	}
	items, err := r.h.store.GetAllByIndex(r.ctx, c.Type, c.ParentField, parentID)
	if errors.Is(err, store.ErrNoIndex) {
		items, err = r.scan(c.Type, c.ParentField, parentID)
	}
	if err != nil {
		r.h.log.Debug("item fallback skipped", "type", c.Type, "parent_id", parentID, "error", err)
		return nil, false
	}
	own := make([]entity.Record, 0, len(items))
	for _, item := range items {
		if item.OwnerID() == r.ownerID {
			own = append(own, item)
		}
	}
	return own, true
}

func (r *Resolver) scan(t entity.Type, field, value string) ([]entity.Record, error) {
	all, err := r.h.store.GetAll(r.ctx, t)
	if err != nil {
		return nil, err
	}
	var out []entity.Record
	for _, rec := range all {
		if rec.String(field) == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

// lookup находит сущность владельца. Отсутствующая или чужая сущность - ErrNotFound,
// сбой хранилища возвращается как есть и не кэшируется.
func (r *Resolver) lookup(t entity.Type, id string) (entity.Record, error) {
	if id == "" {
		return nil, entity.ErrNotFound
	}
	if cached, ok := r.cache[t][id]; ok {
		if cached == nil {
			return nil, entity.ErrNotFound
		}
		return cached, nil
	}

	rec, err := r.h.store.Get(r.ctx, t, id)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		rec = nil
	case err != nil:
		r.h.log.Debug("relation lookup failed", "type", t, "id", id, "error", err)
		return nil, err
	case rec.OwnerID() != r.ownerID:
		rec = nil
	}

	if r.cache[t] == nil {
		r.cache[t] = make(map[string]entity.Record)
	}
	r.cache[t][id] = rec
	if rec == nil {
		return nil, entity.ErrNotFound
	}
	return rec, nil
}
