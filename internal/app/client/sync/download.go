package sync

import (
	"context"
	"fmt"

	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

func (e *Engine) download(ctx context.Context, task *Task, types []entity.Type, discardPending bool) (Result, error) {
	ownerID, err := e.ownerID()
	if err != nil {
		return Result{}, err
	}

	// Проверка до первой замены: проход либо не трогает данные, либо идёт целиком.
	if !discardPending {
		if err := e.checkPending(ctx, types, ownerID); err != nil {
			return Result{Message: err.Error()}, err
		}
	}

	steps := 2 * len(types)
	done := 0
	total := 0

	for _, t := range types {
		if err := ctx.Err(); err != nil {
			return Result{Count: total}, err
		}

		recs, err := e.fetchAll(ctx, t)
		if err != nil {
			return Result{Count: total, Message: err.Error()}, fmt.Errorf("скачивание %s: %w", t, err)
		}
		done++
		task.progress(fmt.Sprintf("Получено %s: %d", t, len(recs)), percent(done, steps))

		if err := ctx.Err(); err != nil {
			return Result{Count: total}, err
		}

		local := make([]entity.Record, 0, len(recs))
		for _, rec := range recs {
			if l, ok := toLocal(rec, ownerID); ok {
				local = append(local, l)
			} else {
				e.log.Warn("skipping server record without id", "type", t)
			}
		}

		if err := store.Replace(ctx, e.store, t, ownerID, local); err != nil {
			return Result{Count: total, Message: err.Error()}, fmt.Errorf("сохранение %s: %w", t, err)
		}
		total += len(local)
		done++
		task.progress(fmt.Sprintf("Сохранено %s: %d", t, len(local)), percent(done, steps))
	}

	e.log.Info("download finished", "records", total)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Загружено записей: %d", total),
		Count:   total,
	}, nil
}

func (e *Engine) checkPending(ctx context.Context, types []entity.Type, ownerID string) error {
	for _, t := range types {
		recs, err := e.store.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
		if err != nil {
			return fmt.Errorf("чтение %s: %w", t, err)
		}
		pending := 0
		for _, r := range recs {
			if r.IsPending() {
				pending++
			}
		}
		if pending > 0 {
			return &PendingError{Type: t, Count: pending}
		}
	}
	return nil
}

// fetchAll читает коллекцию страницами до исчерпания.
func (e *Engine) fetchAll(ctx context.Context, t entity.Type) ([]entity.Record, error) {
	var out []entity.Record
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := e.remote.List(ctx, t, entity.Params{Page: page, Limit: e.pageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if len(p.Items) == 0 || page >= p.TotalPages {
			return out, nil
		}
	}
}

// toLocal переводит серверную запись в локальную форму со статусом synced.
func toLocal(rec entity.Record, ownerID string) (entity.Record, bool) {
	out := rec.Clone()
	if id, ok := out["_id"]; ok && out.ID() == "" {
		out[entity.FieldID] = entity.Record{"v": id}.String("v")
	}
	delete(out, "_id")
	if out.ID() == "" {
		return nil, false
	}
	out[entity.FieldOwnerID] = ownerID
	out[entity.FieldSyncStatus] = string(entity.StatusSynced)
	delete(out, entity.FieldServerID)
	return out, true
}
