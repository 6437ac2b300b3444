package client

import (
	"context"
	"fmt"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/sync"
	"storekeeper/internal/domain/entity"
)

// memoryServer ведёт себя как сервер коллекций: выдаёт свои id и пишет позиции
// документа в отдельную коллекцию.
type memoryServer struct {
	mu   gosync.Mutex
	seq  int
	data map[entity.Type][]entity.Record
}

func newMemoryServer() *memoryServer {
	return &memoryServer{data: make(map[entity.Type][]entity.Record)}
}

func (s *memoryServer) List(_ context.Context, t entity.Type, p entity.Params) (entity.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = p.Normalize(20, 1000)
	return entity.Paginate(s.data[t], p.Page, p.Limit), nil
}

func (s *memoryServer) Get(_ context.Context, t entity.Type, id string) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.data[t] {
		if rec.ID() == id {
			return rec.Clone(), nil
		}
	}
	return nil, entity.ErrNotFound
}

func (s *memoryServer) Create(_ context.Context, t entity.Type, rec entity.Record, _ string) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stamp(rec)
	if c := entity.Describe(t).Items; c != nil {
		if items, ok := out.Items(); ok {
			stored := make([]entity.Record, 0, len(items))
			for _, item := range items {
				child := s.stamp(item)
				child[c.ParentField] = out.ID()
				s.data[c.Type] = append(s.data[c.Type], child.Clone())
				stored = append(stored, child)
			}
			out.SetItems(stored)
		}
	}
	s.data[t] = append(s.data[t], out.Clone())
	return out, nil
}

func (s *memoryServer) Update(_ context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.data[t] {
		if rec.ID() == id {
			s.data[t][i] = rec.Merge(patch)
			return s.data[t][i].Clone(), nil
		}
	}
	return nil, entity.ErrNotFound
}

func (s *memoryServer) Delete(context.Context, entity.Type, string) error {
	return nil
}

func (s *memoryServer) stamp(rec entity.Record) entity.Record {
	out := rec.Clone()
	for _, key := range []string{entity.FieldID, entity.FieldOwnerID, entity.FieldSyncStatus, entity.FieldServerID} {
		delete(out, key)
	}
	s.seq++
	out[entity.FieldID] = fmt.Sprintf("srv-%d", s.seq)
	return out
}

func TestOfflineSale_SurvivesUploadAndDownload(t *testing.T) {
	srv := newMemoryServer()
	sess := &staticSession{offline: true, owner: "o1"}
	f, st := newTestFacade(t, sess, srv)
	engine := sync.New(st, srv, sess, slog.Default())
	ctx := context.Background()

	contact, err := f.Create(ctx, entity.Contacts, entity.Record{"name": "Ali"})
	require.NoError(t, err)
	product, err := f.Create(ctx, entity.Products, entity.Record{"name": "Rice", "quantity": 10})
	require.NoError(t, err)
	_, err = f.Create(ctx, entity.Sales, entity.Record{
		"contactId": contact.ID(),
		"date":      "2024-03-05",
		"items": []any{
			map[string]any{"productId": product.ID(), "quantity": 2},
		},
	})
	require.NoError(t, err)

	res, err := engine.Upload(ctx, sync.UploadOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	// Ничего не ждёт выгрузки, поэтому скачивание идёт без принуждения
	_, err = engine.Download(ctx, sync.DownloadOptions{}, nil)
	require.NoError(t, err)

	page, err := f.Read(ctx, entity.Sales, entity.Params{Search: "ali"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	sale := page.Items[0]
	attached, ok := sale.Nested("contact")
	require.True(t, ok)
	assert.Equal(t, "Ali", attached.String("name"))

	items, ok := sale.Items()
	require.True(t, ok)
	require.Len(t, items, 1)
	p, ok := items[0].Nested("product")
	require.True(t, ok)
	assert.Equal(t, "Rice", p.String("name"))

	saleItems, err := f.Read(ctx, entity.SaleItems, entity.Params{Filters: map[string]string{"saleId": sale.ID()}})
	require.NoError(t, err)
	assert.Len(t, saleItems.Items, 1)
}

func TestOfflineEdit_IsUploadedAsUpdate(t *testing.T) {
	srv := newMemoryServer()
	sess := &staticSession{offline: true, owner: "o1"}
	f, st := newTestFacade(t, sess, srv)
	engine := sync.New(st, srv, sess, slog.Default())
	ctx := context.Background()

	product, err := f.Create(ctx, entity.Products, entity.Record{"name": "Rice"})
	require.NoError(t, err)
	_, err = engine.Upload(ctx, sync.UploadOptions{}, nil)
	require.NoError(t, err)

	_, err = f.Update(ctx, entity.Products, product.ID(), entity.Record{"name": "Basmati"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.PendingCount(ctx))

	// Правка не затирается скачиванием без принуждения
	_, err = engine.Download(ctx, sync.DownloadOptions{}, nil)
	assert.ErrorIs(t, err, sync.ErrPendingChanges)

	_, err = engine.Upload(ctx, sync.UploadOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, srv.data[entity.Products], 1)
	assert.Equal(t, "Basmati", srv.data[entity.Products][0].String("name"))

	_, err = engine.Download(ctx, sync.DownloadOptions{}, nil)
	require.NoError(t, err)

	page, err := f.Read(ctx, entity.Products, entity.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Basmati", page.Items[0].String("name"))
}
