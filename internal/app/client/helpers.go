package client

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storekeeper/internal/domain/entity"
)

// DashboardStats - счётчики для главного экрана. Денежных итогов нет.
type DashboardStats struct {
	Products   int `json:"products"`
	Contacts   int `json:"contacts"`
	Sales      int `json:"sales"`
	SalesToday int `json:"salesToday"`
	LowStock   int `json:"lowStock"`
	Pending    int `json:"pending"`
}

// NextBarcode возвращает максимальный числовой штрихкод товара плюс один.
func (f *Facade) NextBarcode(ctx context.Context) (string, error) {
	products, err := f.readAll(ctx, entity.Products)
	if err != nil {
		return "", err
	}

	var highest int64 = -1
	for _, p := range products {
		code, err := strconv.ParseInt(strings.TrimSpace(p.String("barcode")), 10, 64)
		if err != nil {
			continue
		}
		if code > highest {
			highest = code
		}
	}

	if highest < 0 {
		return strconv.FormatInt(f.opts.BarcodeStart, 10), nil
	}
	return strconv.FormatInt(highest+1, 10), nil
}

// LowStockProducts возвращает товары, у которых остаток не выше minStock
// или общего порога, если minStock не задан.
func (f *Facade) LowStockProducts(ctx context.Context) ([]entity.Record, error) {
	products, err := f.readAll(ctx, entity.Products)
	if err != nil {
		return nil, err
	}

	fallback := decimal.NewFromInt(int64(f.opts.LowStockThreshold))
	out := make([]entity.Record, 0)
	for _, p := range products {
		qty, ok := p.Decimal("quantity")
		if !ok {
			continue
		}
		limit, ok := p.Decimal("minStock")
		if !ok {
			limit = fallback
		}
		if qty.LessThanOrEqual(limit) {
			out = append(out, p)
		}
	}
	return out, nil
}

// DashboardStats собирает счётчики через Read, поэтому одинаково работает в обоих режимах.
func (f *Facade) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats

	counts := []struct {
		t   entity.Type
		dst *int
	}{
		{entity.Products, &stats.Products},
		{entity.Contacts, &stats.Contacts},
		{entity.Sales, &stats.Sales},
	}
	for _, c := range counts {
		page, err := f.Read(ctx, c.t, entity.Params{Limit: 1})
		if err != nil {
			return DashboardStats{}, err
		}
		*c.dst = page.Total
	}

	today, err := f.Read(ctx, entity.Sales, entity.Params{Limit: 1, Date: f.now().Format(time.DateOnly)})
	if err != nil {
		return DashboardStats{}, err
	}
	stats.SalesToday = today.Total

	low, err := f.LowStockProducts(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.LowStock = len(low)

	stats.Pending = f.PendingCount(ctx)
	return stats, nil
}

// PendingCount считает локальные записи, ожидающие отправки. Недоступное хранилище даёт 0.
func (f *Facade) PendingCount(ctx context.Context) int {
	ownerID := f.owner.OwnerID()
	if ownerID == "" {
		return 0
	}

	total := 0
	for _, t := range entity.All() {
		if entity.Describe(t).AlwaysOnline {
			continue
		}
		recs, err := f.store.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
		if err != nil {
			f.log.Debug("pending count skipped", "type", t, "error", err)
			continue
		}
		for _, r := range recs {
			if r.IsPending() {
				total++
			}
		}
	}
	return total
}

// readAll читает все страницы типа максимальным размером страницы.
func (f *Facade) readAll(ctx context.Context, t entity.Type) ([]entity.Record, error) {
	var out []entity.Record
	for page := 1; ; page++ {
		p, err := f.Read(ctx, t, entity.Params{Page: page, Limit: f.opts.MaxPageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if len(p.Items) == 0 || page >= p.TotalPages {
			return out, nil
		}
	}
}
