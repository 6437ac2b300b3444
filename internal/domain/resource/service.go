// Package resource - серверный сервис коллекций: одинаковый CRUD для всех типов сущностей.
package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/entity"
)

const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// ListParams - параметры запроса списка.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Date    string
	Filters map[string]string
}

type Servicer interface {
	List(ctx context.Context, ownerID string, t entity.Type, p ListParams) (entity.Page, error)
	Find(ctx context.Context, ownerID string, t entity.Type, id string) (entity.Record, error)
	Create(ctx context.Context, ownerID string, t entity.Type, data entity.Record, idempotencyKey string) (entity.Record, error)
	Update(ctx context.Context, ownerID string, t entity.Type, id string, patch entity.Record) (entity.Record, error)
	Delete(ctx context.Context, ownerID string, t entity.Type, id string) error
}

type Service struct {
	repo     Repository
	maxLimit int
	log      *slog.Logger
	now      func() time.Time
	newID    func() (string, error)
}

func NewService(repo Repository, maxLimit int, log *slog.Logger) *Service {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	return &Service{
		repo:     repo,
		maxLimit: maxLimit,
		log:      log.With("component", "resource_service"),
		now:      time.Now,
		newID:    newID,
	}
}

// serverFields пересчитываются сервером и не принимаются от клиента.
var serverFields = []string{
	entity.FieldID,
	entity.FieldOwnerID,
	entity.FieldCreatedAt,
	entity.FieldUpdatedAt,
	entity.FieldSyncStatus,
	entity.FieldServerID,
	"_id",
}

func (s *Service) List(ctx context.Context, ownerID string, t entity.Type, p ListParams) (entity.Page, error) {
	if ownerID == "" {
		return entity.Page{}, ErrNoOwner
	}
	if err := t.Validate(); err != nil {
		return entity.Page{}, err
	}

	norm := entity.Params{Page: p.Page, Limit: p.Limit}.Normalize(DefaultLimit, s.maxLimit)

	items, total, err := s.repo.List(ctx, ownerID, t, Filter{
		Offset:    entity.Offset(norm.Page, norm.Limit),
		Limit:     norm.Limit,
		Search:    p.Search,
		Date:      p.Date,
		DateField: entity.Describe(t).DateFieldOrDefault(),
		Fields:    p.Filters,
	})
	if err != nil {
		return entity.Page{}, fmt.Errorf("list %s: %w", t, err)
	}
	if items == nil {
		items = []entity.Record{}
	}

	return entity.Page{
		Items:      items,
		Total:      total,
		Page:       norm.Page,
		TotalPages: entity.TotalPages(total, norm.Limit),
	}, nil
}

func (s *Service) Find(ctx context.Context, ownerID string, t entity.Type, id string) (entity.Record, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, ownerID, t, id)
}

// Create сохраняет запись с серверным id. Повтор с тем же ключом идемпотентности
// возвращает уже созданную запись. Позиции документа пишутся ещё и в свою коллекцию.
func (s *Service) Create(ctx context.Context, ownerID string, t entity.Type, data entity.Record, key string) (entity.Record, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: empty body", entity.ErrInvalidData)
	}

	if key != "" {
		existing, err := s.repo.FindByKey(ctx, ownerID, t, key)
		switch {
		case err == nil:
			s.log.Debug("idempotent replay", "type", t, "key", key, "id", existing.ID())
			return existing, nil
		case !errors.Is(err, entity.ErrNotFound):
			return nil, fmt.Errorf("create %s: %w", t, err)
		}
	}

	rec, err := s.prepare(data, "", "")
	if err != nil {
		return nil, err
	}

	rows := []Row{{Type: t, Data: rec, IdempotencyKey: key}}

	if children := entity.Describe(t).Items; children != nil {
		if items, ok := rec.Items(); ok {
			stored := make([]entity.Record, 0, len(items))
			for _, item := range items {
				child, err := s.prepare(item, children.ParentField, rec.ID())
				if err != nil {
					return nil, err
				}
				stored = append(stored, child)
				rows = append(rows, Row{Type: children.Type, Data: child})
			}
			rec.SetItems(stored)
		}
	}

	err = s.repo.Insert(ctx, ownerID, rows...)
	if errors.Is(err, ErrConflict) && key != "" {
		// Параллельный запрос с тем же ключом успел раньше.
		return s.repo.FindByKey(ctx, ownerID, t, key)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t, err)
	}

	s.log.Info("record created", "type", t, "id", rec.ID(), "owner_id", ownerID)
	return rec, nil
}

// Update накладывает patch на запись. Серверные поля не меняются.
func (s *Service) Update(ctx context.Context, ownerID string, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	existing, err := s.Find(ctx, ownerID, t, id)
	if err != nil {
		return nil, err
	}

	clean := patch.Clone()
	for _, f := range serverFields {
		delete(clean, f)
	}

	merged := existing.Merge(clean)
	merged[entity.FieldUpdatedAt] = entity.Timestamp(s.now())

	if err := s.repo.Update(ctx, ownerID, t, id, merged); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", t, id, err)
	}
	return merged, nil
}

// Delete удаляет запись, а для документа и его позиции.
func (s *Service) Delete(ctx context.Context, ownerID string, t entity.Type, id string) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	if err := t.Validate(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, t, id); err != nil {
		return err
	}

	if children := entity.Describe(t).Items; children != nil {
		n, err := s.repo.DeleteWhere(ctx, ownerID, children.Type, children.ParentField, id)
		if err != nil {
			return fmt.Errorf("delete %s items: %w", t, err)
		}
		s.log.Debug("items deleted", "type", children.Type, "parent_id", id, "count", n)
	}
	return nil
}

func (s *Service) prepare(data entity.Record, parentField, parentID string) (entity.Record, error) {
	rec := data.Clone()
	for _, f := range serverFields {
		delete(rec, f)
	}
	delete(rec, entity.FieldProduct)

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	rec[entity.FieldID] = id
	if parentField != "" {
		rec[parentField] = parentID
	}

	now := entity.Timestamp(s.now())
	rec[entity.FieldCreatedAt] = now
	rec[entity.FieldUpdatedAt] = now
	return rec, nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
