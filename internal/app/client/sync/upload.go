package sync

import (
	"context"
	"fmt"
	"strings"

	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

// bookkeeping - служебные поля, которые не уходят на сервер.
var bookkeeping = []string{
	entity.FieldID,
	entity.FieldOwnerID,
	entity.FieldSyncStatus,
	entity.FieldServerID,
}

func (e *Engine) upload(ctx context.Context, task *Task, types []entity.Type) (Result, error) {
	ownerID, err := e.ownerID()
	if err != nil {
		return Result{}, err
	}

	ids, err := e.loadServerIDs(ctx, ownerID)
	if err != nil {
		return Result{Message: err.Error()}, err
	}

	total := 0
	for i, t := range types {
		if err := ctx.Err(); err != nil {
			return Result{Count: total}, err
		}

		task.progress(fmt.Sprintf("Отправка: %s", t), percent(i, len(types)))

		n, err := e.uploadType(ctx, t, ownerID, ids)
		total += n
		if err != nil {
			return Result{Count: total, Message: err.Error()}, err
		}

		if c := entity.Describe(t).Items; c != nil {
			n, err := e.uploadItems(ctx, c, ownerID, ids)
			total += n
			if err != nil {
				return Result{Count: total, Message: err.Error()}, err
			}
		}
	}

	e.log.Info("upload finished", "records", total)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Отправлено записей: %d", total),
		Count:   total,
	}, nil
}

// serverIDs сопоставляет локальные id уже отправленных записей с серверными.
// Внешние ключи выгружаемых записей переписываются по нему.
type serverIDs map[string]string

func (ids serverIDs) add(localID, serverID string) {
	if localID != "" && serverID != "" && localID != serverID {
		ids[localID] = serverID
	}
}

// rewrite заменяет локальные id в полях-ссылках (…Id) записи и её позиций.
func (ids serverIDs) rewrite(rec entity.Record) entity.Record {
	for key, v := range rec {
		if !strings.HasSuffix(key, "Id") {
			continue
		}
		if local, ok := v.(string); ok {
			if srv, ok := ids[local]; ok {
				rec[key] = srv
			}
		}
	}
	if items, ok := rec.Items(); ok {
		for _, item := range items {
			ids.rewrite(item)
		}
		rec.SetItems(items)
	}
	return rec
}

// loadServerIDs собирает соответствия по всем локальным коллекциям владельца.
func (e *Engine) loadServerIDs(ctx context.Context, ownerID string) (serverIDs, error) {
	ids := make(serverIDs)
	for _, t := range entity.DownloadOrder() {
		recs, err := e.store.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
		if err != nil {
			return nil, fmt.Errorf("чтение %s: %w", t, err)
		}
		for _, rec := range recs {
			ids.add(rec.ID(), rec.String(entity.FieldServerID))
		}
	}
	return ids, nil
}

// uploadType отправляет ожидающие записи одного типа. Первая ошибка прерывает тип,
// уже отправленные записи остаются на сервере. Запись с serverId уже есть на
// сервере и отправляется как изменение.
func (e *Engine) uploadType(ctx context.Context, t entity.Type, ownerID string, ids serverIDs) (int, error) {
	desc := entity.Describe(t)

	recs, err := e.store.GetAllByIndex(ctx, t, entity.FieldOwnerID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("чтение %s: %w", t, err)
	}

	sent := 0
	for _, rec := range recs {
		if !rec.IsPending() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		if serverID := rec.String(entity.FieldServerID); serverID != "" {
			payload := ids.rewrite(uploadPayload(desc, rec, nil))
			if _, err := e.remote.Update(ctx, t, serverID, payload); err != nil {
				e.log.Warn("update rejected", "type", t, "id", rec.ID(), "server_id", serverID, "error", err)
				return sent, &UploadError{Type: t, Label: rec.Label(desc), Err: err}
			}
			if err := e.markSynced(ctx, desc, rec, nil, entity.Record{entity.FieldID: serverID}); err != nil {
				return sent, err
			}
			sent++
			continue
		}

		children, err := e.pendingChildren(ctx, desc, rec)
		if err != nil {
			return sent, &UploadError{Type: t, Label: rec.Label(desc), Err: err}
		}

		payload := ids.rewrite(uploadPayload(desc, rec, children))
		created, err := e.remote.Create(ctx, t, payload, rec.ID())
		if err != nil {
			e.log.Warn("upload rejected", "type", t, "id", rec.ID(), "error", err)
			return sent, &UploadError{Type: t, Label: rec.Label(desc), Err: err}
		}

		ids.add(rec.ID(), created.ID())
		if serverItems, ok := created.Items(); ok {
			for i, child := range children {
				if i < len(serverItems) {
					ids.add(child.ID(), serverItems[i].ID())
				}
			}
		}

		if err := e.markSynced(ctx, desc, rec, children, created); err != nil {
			return sent, err
		}
		sent++
	}

	return sent, nil
}

// uploadItems отправляет позиции, оставшиеся ожидающими после своих документов:
// изменённые офлайн или добавленные к уже отправленному документу.
func (e *Engine) uploadItems(ctx context.Context, c *entity.Children, ownerID string, ids serverIDs) (int, error) {
	desc := entity.Describe(c.Type)

	items, err := e.store.GetAllByIndex(ctx, c.Type, entity.FieldOwnerID, ownerID)
	if err != nil {
		return 0, fmt.Errorf("чтение %s: %w", c.Type, err)
	}

	sent := 0
	for _, item := range items {
		if !item.IsPending() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		payload := item.Clone()
		for _, key := range bookkeeping {
			delete(payload, key)
		}
		delete(payload, entity.FieldProduct)
		ids.rewrite(payload)

		serverID := item.String(entity.FieldServerID)
		if serverID != "" {
			_, err = e.remote.Update(ctx, c.Type, serverID, payload)
		} else {
			var created entity.Record
			created, err = e.remote.Create(ctx, c.Type, payload, item.ID())
			serverID = created.ID()
		}
		if err != nil {
			e.log.Warn("item upload rejected", "type", c.Type, "id", item.ID(), "error", err)
			return sent, &UploadError{Type: c.Type, Label: item.Label(desc), Err: err}
		}

		ids.add(item.ID(), serverID)
		synced := item.Clone()
		synced[entity.FieldSyncStatus] = string(entity.StatusSynced)
		if serverID != "" {
			synced[entity.FieldServerID] = serverID
		}
		if err := e.store.Put(ctx, c.Type, synced); err != nil {
			return sent, fmt.Errorf("сохранение статуса %s/%s: %w", c.Type, item.ID(), err)
		}
		sent++
	}
	return sent, nil
}

// pendingChildren возвращает ожидающие позиции документа из коллекции позиций,
// а если их там нет - встроенные.
func (e *Engine) pendingChildren(ctx context.Context, desc entity.Descriptor, parent entity.Record) ([]entity.Record, error) {
	if desc.Items == nil {
		return nil, nil
	}

	items, err := e.store.GetAllByIndex(ctx, desc.Items.Type, desc.Items.ParentField, parent.ID())
	if err != nil {
		return nil, err
	}

	var pending []entity.Record
	for _, item := range items {
		if item.IsPending() {
			pending = append(pending, item)
		}
	}
	if len(pending) > 0 {
		return pending, nil
	}

	if embedded, ok := parent.Items(); ok {
		return embedded, nil
	}
	return nil, nil
}

// uploadPayload убирает служебные поля и прикреплённые связи, вкладывает позиции в items.
func uploadPayload(desc entity.Descriptor, rec entity.Record, children []entity.Record) entity.Record {
	out := rec.Clone()
	for _, key := range bookkeeping {
		delete(out, key)
	}
	if desc.Counterparty != nil {
		delete(out, desc.Counterparty.Key)
	}

	if desc.Items == nil {
		return out
	}

	delete(out, entity.FieldItems)
	if len(children) == 0 {
		return out
	}

	nested := make([]entity.Record, 0, len(children))
	for _, child := range children {
		item := child.Clone()
		for _, key := range bookkeeping {
			delete(item, key)
		}
		delete(item, entity.FieldProduct)
		delete(item, desc.Items.ParentField)
		nested = append(nested, item)
	}
	out.SetItems(nested)
	return out
}

// markSynced помечает запись и её позиции отправленными и сохраняет серверный id.
func (e *Engine) markSynced(ctx context.Context, desc entity.Descriptor, rec entity.Record, children []entity.Record, created entity.Record) error {
	updated := rec.Clone()
	updated[entity.FieldSyncStatus] = string(entity.StatusSynced)
	if id := created.ID(); id != "" {
		updated[entity.FieldServerID] = id
	}

	serverItems, _ := created.Items()

	if embedded, ok := updated.Items(); ok {
		for i := range embedded {
			embedded[i][entity.FieldSyncStatus] = string(entity.StatusSynced)
		}
		updated.SetItems(embedded)
	}

	if err := e.store.Put(ctx, desc.Type, updated); err != nil {
		return fmt.Errorf("сохранение статуса %s/%s: %w", desc.Type, rec.ID(), err)
	}

	if desc.Items == nil {
		return nil
	}
	for i, child := range children {
		if child.ID() == "" {
			continue
		}
		item := child.Clone()
		item[entity.FieldSyncStatus] = string(entity.StatusSynced)
		if i < len(serverItems) && serverItems[i].ID() != "" {
			item[entity.FieldServerID] = serverItems[i].ID()
		}
		if err := store.Upsert(ctx, e.store, desc.Items.Type, item); err != nil {
			return fmt.Errorf("сохранение статуса %s/%s: %w", desc.Items.Type, child.ID(), err)
		}
	}
	return nil
}
