// Package query эмулирует серверный поиск, фильтрацию и пагинацию над локальным хранилищем.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/hydrate"
	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

type Engine struct {
	store        store.Store
	hydrator     *hydrate.Hydrator
	log          *slog.Logger
	loc          *time.Location
	defaultLimit int
	maxLimit     int
}

type Option func(*Engine)

// WithLocation задаёт часовой пояс фильтра по дате. По умолчанию time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithLimits задаёт размер страницы по умолчанию и максимальный.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(e *Engine) {
		e.defaultLimit = defaultLimit
		e.maxLimit = maxLimit
	}
}

func New(s store.Store, h *hydrate.Hydrator, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		hydrator:     h,
		log:          log.With("component", "query_engine"),
		loc:          time.Local,
		defaultLimit: 20,
		maxLimit:     100,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type candidate struct {
	rec      entity.Record
	deferred bool
}

// Run выполняет чтение типа t для владельца. Недоступность хранилища даёт пустую страницу.
func (e *Engine) Run(ctx context.Context, t entity.Type, ownerID string, p entity.Params) (entity.Page, error) {
	p = p.Normalize(e.defaultLimit, e.maxLimit)
	desc := entity.Describe(t)

	var date *civilDate
	if p.Date != "" {
		d, err := parseDate(p.Date)
		if err != nil {
			return entity.Page{}, err
		}
		date = &d
	}

	if p.ID != "" {
		return e.point(ctx, t, ownerID, p)
	}

	recs, err := e.scanOwner(ctx, t, ownerID)
	if errors.Is(err, store.ErrUnavailable) {
		e.log.Warn("local store unavailable, returning empty page", "type", t, "error", err)
		return entity.EmptyPage(p.Page), nil
	}
	if err != nil {
		return entity.Page{}, err
	}

	term := strings.ToLower(strings.TrimSpace(p.Search))
	matches := make([]candidate, 0, len(recs))
	for _, rec := range recs {
		if !matchFilters(rec, p.Filters) {
			continue
		}
		if date != nil && !e.onDay(rec, desc, *date) {
			continue
		}
		if term == "" || matchSearch(rec, term) {
			matches = append(matches, candidate{rec: rec})
			continue
		}
		if desc.Counterparty != nil {
			matches = append(matches, candidate{rec: rec, deferred: true})
		}
	}

	resolver := e.hydrator.Resolver(ctx, ownerID)
	kept := make([]entity.Record, 0, len(matches))
	for _, m := range matches {
		if m.deferred && !resolver.CounterpartyMatches(t, m.rec, term) {
			continue
		}
		kept = append(kept, m.rec)
	}

	page := entity.Paginate(kept, p.Page, p.Limit)
	for i, rec := range page.Items {
		page.Items[i] = resolver.Attach(t, rec)
	}
	return page, nil
}

func (e *Engine) point(ctx context.Context, t entity.Type, ownerID string, p entity.Params) (entity.Page, error) {
	rec, err := e.store.Get(ctx, t, p.ID)
	switch {
	case errors.Is(err, store.ErrUnavailable):
		e.log.Warn("local store unavailable, returning empty page", "type", t, "error", err)
		return entity.EmptyPage(p.Page), nil
	case errors.Is(err, entity.ErrNotFound):
		return entity.EmptyPage(1), nil
	case err != nil:
		return entity.Page{}, err
	}
	if rec.OwnerID() != ownerID {
		return entity.EmptyPage(1), nil
	}

	items := e.hydrator.Hydrate(ctx, t, ownerID, []entity.Record{rec})
	return entity.Page{Items: items, Total: 1, Page: 1, TotalPages: 1}, nil
}

// scanOwner читает записи владельца по индексу, а без индекса - полным сканом.
func (e *Engine) scanOwner(ctx context.Context, t entity.Type, ownerID string) ([]entity.Record, error) {
	recs, err := e.store.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
	if !errors.Is(err, store.ErrNoIndex) {
		return recs, err
	}

	all, err := e.store.GetAll(ctx, t)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Record, 0, len(all))
	for _, rec := range all {
		if rec.OwnerID() == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (e *Engine) onDay(rec entity.Record, desc entity.Descriptor, day civilDate) bool {
	got, ok := e.dayOf(rec, desc.DateFieldOrDefault())
	if !ok {
		got, ok = e.dayOf(rec, entity.FieldCreatedAt)
	}
	return ok && got == day
}

// dayOf возвращает календарный день поля. Дата без времени берётся как есть,
// метка времени переводится в локальную зону.
func (e *Engine) dayOf(rec entity.Record, field string) (civilDate, bool) {
	s := rec.String(field)
	if s == "" {
		return civilDate{}, false
	}
	if d, err := parseDate(s); err == nil {
		return d, true
	}
	ts, ok := rec.Time(field)
	if !ok {
		return civilDate{}, false
	}
	y, m, d := ts.In(e.loc).Date()
	return civilDate{year: y, month: m, day: d}, true
}

func matchSearch(rec entity.Record, term string) bool {
	for _, f := range entity.SearchFields {
		if strings.Contains(strings.ToLower(rec.String(f)), term) {
			return true
		}
	}
	return false
}

func matchFilters(rec entity.Record, filters map[string]string) bool {
	for k, v := range filters {
		if rec.String(k) != v {
			return false
		}
	}
	return true
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func parseDate(s string) (civilDate, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return civilDate{}, fmt.Errorf("%w: date %q: %v", entity.ErrInvalidData, s, err)
	}
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}, nil
}
