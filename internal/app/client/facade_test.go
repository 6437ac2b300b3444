package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/remote"
	"storekeeper/internal/app/client/session"
	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

type staticSession struct {
	offline bool
	owner   string
}

func (s *staticSession) Offline() bool   { return s.offline }
func (s *staticSession) OwnerID() string { return s.owner }

// MockRemote - мок сервера для онлайн-режима фасада.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) List(ctx context.Context, t entity.Type, p entity.Params) (entity.Page, error) {
	args := m.Called(ctx, t, p)
	return args.Get(0).(entity.Page), args.Error(1)
}

func (m *MockRemote) Get(ctx context.Context, t entity.Type, id string) (entity.Record, error) {
	args := m.Called(ctx, t, id)
	rec, _ := args.Get(0).(entity.Record)
	return rec, args.Error(1)
}

func (m *MockRemote) Create(ctx context.Context, t entity.Type, rec entity.Record, key string) (entity.Record, error) {
	args := m.Called(ctx, t, rec, key)
	out, _ := args.Get(0).(entity.Record)
	return out, args.Error(1)
}

func (m *MockRemote) Update(ctx context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	args := m.Called(ctx, t, id, patch)
	out, _ := args.Get(0).(entity.Record)
	return out, args.Error(1)
}

func (m *MockRemote) Delete(ctx context.Context, t entity.Type, id string) error {
	return m.Called(ctx, t, id).Error(0)
}

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)

func newTestFacade(t *testing.T, sess *staticSession, r Remote) (*Facade, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	f := NewFacade(st, r, sess, sess, Options{
		PageSize:          20,
		MaxPageSize:       100,
		LowStockThreshold: 5,
		BarcodeStart:      1000000,
	}, slog.Default())

	seq := 0
	f.now = func() time.Time { return fixedNow }
	f.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("local-%d", seq), nil
	}
	return f, st
}

func TestFacade_CreateOffline(t *testing.T) {
	f, st := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, &MockRemote{})
	ctx := context.Background()

	events, unsubscribe := f.Invalidations().Subscribe(4)
	defer unsubscribe()

	product, err := f.Create(ctx, entity.Products, entity.Record{"name": "Rice", "quantity": 10})
	require.NoError(t, err)
	assert.Equal(t, "local-1", product.ID())
	assert.Equal(t, "o1", product.OwnerID())
	assert.True(t, product.IsPending())
	assert.Equal(t, entity.Timestamp(fixedNow), product.String(entity.FieldCreatedAt))

	select {
	case ev := <-events:
		assert.Equal(t, Invalidation{Type: entity.Products, ID: "local-1", Op: OpCreate}, ev)
	default:
		t.Fatal("expected invalidation for products")
	}

	sale, err := f.Create(ctx, entity.Sales, entity.Record{
		"contactId": "c1",
		"items": []any{
			map[string]any{"productId": "local-1", "quantity": 2},
		},
	})
	require.NoError(t, err)

	items, err := st.GetAllByIndex(ctx, entity.SaleItems, "saleId", sale.ID())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "local-1", items[0].String("productId"))
	assert.True(t, items[0].IsPending())
	assert.Equal(t, "o1", items[0].OwnerID())

	select {
	case ev := <-events:
		t.Fatalf("sales must not invalidate caches: %+v", ev)
	default:
	}
}

func TestFacade_ReadOfflineHydrates(t *testing.T) {
	f, st := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, &MockRemote{})
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, entity.Contacts, entity.Record{"id": "c1", "ownerId": "o1", "name": "Ali Khan"}))
	require.NoError(t, st.Put(ctx, entity.Products, entity.Record{"id": "p1", "ownerId": "o1", "name": "Rice"}))
	require.NoError(t, st.Put(ctx, entity.Sales, entity.Record{"id": "s1", "ownerId": "o1", "contactId": "c1", "date": "2024-03-05"}))
	require.NoError(t, st.Put(ctx, entity.SaleItems, entity.Record{"id": "i1", "ownerId": "o1", "saleId": "s1", "productId": "p1"}))
	require.NoError(t, st.Put(ctx, entity.SaleItems, entity.Record{"id": "i2", "ownerId": "o1", "saleId": "s1", "productId": "gone"}))

	page, err := f.Read(ctx, entity.Sales, entity.Params{Search: "khan"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	sale := page.Items[0]
	contact, ok := sale.Nested("contact")
	require.True(t, ok)
	assert.Equal(t, "Ali Khan", contact.String("name"))

	items, ok := sale.Items()
	require.True(t, ok)
	require.Len(t, items, 2)
	p1, _ := items[0].Nested("product")
	assert.Equal(t, "Rice", p1.String("name"))
	p2, _ := items[1].Nested("product")
	assert.Equal(t, entity.UnknownProductName, p2.String("name"))
}

func TestFacade_UpdateOffline(t *testing.T) {
	f, st := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, &MockRemote{})
	ctx := context.Background()

	orig := entity.Record{
		"id": "p1", "ownerId": "o1", "name": "Rice", "createdAt": "2024-01-01T00:00:00Z",
		"syncStatus": "synced", "serverId": "srv-1",
	}
	require.NoError(t, st.Put(ctx, entity.Products, orig))
	require.NoError(t, st.Put(ctx, entity.Products, entity.Record{"id": "p2", "ownerId": "o2", "name": "Foreign"}))

	updated, err := f.Update(ctx, entity.Products, "p1", entity.Record{
		"name": "Basmati", "id": "hijack", "ownerId": "o9", "syncStatus": "synced",
	})
	require.NoError(t, err)
	assert.Equal(t, "Basmati", updated.String("name"))
	assert.Equal(t, "p1", updated.ID())
	assert.Equal(t, "o1", updated.OwnerID())
	assert.Equal(t, "2024-01-01T00:00:00Z", updated.String("createdAt"))
	assert.Equal(t, entity.StatusPending, updated.Status())
	assert.Equal(t, "srv-1", updated.String("serverId"))
	assert.Equal(t, entity.Timestamp(fixedNow), updated.String("updatedAt"))

	stored, err := st.Get(ctx, entity.Products, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Basmati", stored.String("name"))
	assert.True(t, stored.IsPending())

	_, err = f.Update(ctx, entity.Products, "p2", entity.Record{"name": "x"})
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = f.Update(ctx, entity.Products, "missing", entity.Record{"name": "x"})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestFacade_DeleteOfflineCascades(t *testing.T) {
	f, st := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, &MockRemote{})
	ctx := context.Background()

	sale, err := f.Create(ctx, entity.Sales, entity.Record{
		"items": []any{map[string]any{"productId": "p1"}, map[string]any{"productId": "p2"}},
	})
	require.NoError(t, err)

	require.NoError(t, f.Delete(ctx, entity.Sales, sale.ID()))

	_, err = st.Get(ctx, entity.Sales, sale.ID())
	assert.ErrorIs(t, err, entity.ErrNotFound)
	items, err := st.GetAllByIndex(ctx, entity.SaleItems, "saleId", sale.ID())
	require.NoError(t, err)
	assert.Empty(t, items)

	err = f.Delete(ctx, entity.Sales, sale.ID())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestFacade_NoOwnerOffline(t *testing.T) {
	f, _ := newTestFacade(t, &staticSession{offline: true}, &MockRemote{})

	_, err := f.Read(context.Background(), entity.Products, entity.Params{})
	assert.ErrorIs(t, err, entity.ErrNoOwner)

	_, err = f.Create(context.Background(), entity.Products, entity.Record{"name": "x"})
	assert.ErrorIs(t, err, entity.ErrNoOwner)
}

func TestFacade_UnknownType(t *testing.T) {
	f, _ := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, &MockRemote{})

	_, err := f.Read(context.Background(), entity.Type("widgets"), entity.Params{})
	assert.ErrorIs(t, err, entity.ErrUnknownType)
}

func TestFacade_AlwaysOnlineIgnoresMode(t *testing.T) {
	r := &MockRemote{}
	f, _ := newTestFacade(t, &staticSession{offline: true, owner: "o1"}, r)
	ctx := context.Background()

	r.On("List", ctx, entity.Branches, mock.Anything).
		Return(entity.Page{Items: []entity.Record{{"id": "b1"}}, Total: 1, Page: 1, TotalPages: 1}, nil)
	r.On("Create", ctx, entity.Employees, entity.Record{"name": "Sara"}, "").
		Return(entity.Record{"id": "e1", "name": "Sara"}, nil)

	assert.False(t, f.Offline(entity.Branches))
	assert.True(t, f.Offline(entity.Products))

	page, err := f.Read(ctx, entity.Branches, entity.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	created, err := f.Create(ctx, entity.Employees, entity.Record{"name": "Sara"})
	require.NoError(t, err)
	assert.Equal(t, "e1", created.ID())

	r.AssertExpectations(t)
}

func TestFacade_ReadOnline(t *testing.T) {
	r := &MockRemote{}
	f, st := newTestFacade(t, &staticSession{owner: "o1"}, r)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, entity.Contacts, entity.Record{"id": "c1", "ownerId": "o1", "name": "Ali"}))
	require.NoError(t, st.Put(ctx, entity.SaleItems, entity.Record{"id": "i1", "ownerId": "o1", "saleId": "s1", "productId": "p1"}))

	r.On("List", ctx, entity.Sales, entity.Params{Page: 1, Limit: 20}).
		Return(entity.Page{Items: []entity.Record{{"id": "s1", "contactId": "c1"}}, Total: 1, Page: 1, TotalPages: 1}, nil)
	r.On("Get", ctx, entity.Products, "nope").
		Return(nil, &remote.Error{Status: http.StatusNotFound, Message: "Not found"})

	page, err := f.Read(ctx, entity.Sales, entity.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	contact, ok := page.Items[0].Nested("contact")
	require.True(t, ok)
	assert.Equal(t, "Ali", contact.String("name"))
	items, ok := page.Items[0].Items()
	require.True(t, ok)
	assert.Len(t, items, 1)

	empty, err := f.Read(ctx, entity.Products, entity.Params{ID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Total)

	r.AssertExpectations(t)
}

type unavailableStore struct {
	*store.MemoryStore
}

func (unavailableStore) Get(context.Context, entity.Type, string) (entity.Record, error) {
	return nil, store.ErrUnavailable
}

func (unavailableStore) GetAllByIndex(context.Context, entity.Type, string, any) ([]entity.Record, error) {
	return nil, store.ErrUnavailable
}

func TestFacade_ReadOnlineKeepsServerItems(t *testing.T) {
	r := &MockRemote{}
	sess := &staticSession{owner: "o1"}
	ctx := context.Background()

	serverSale := entity.Record{
		"id":    "s1",
		"items": []any{map[string]any{"id": "i1", "productId": "p1", "quantity": 2}},
	}
	r.On("List", ctx, entity.Sales, entity.Params{Page: 1, Limit: 20}).
		Return(entity.Page{Items: []entity.Record{serverSale}, Total: 1, Page: 1, TotalPages: 1}, nil)

	for name, st := range map[string]store.Store{
		"empty store":       store.NewMemoryStore(),
		"unavailable store": unavailableStore{store.NewMemoryStore()},
	} {
		t.Run(name, func(t *testing.T) {
			f := NewFacade(st, r, sess, sess, Options{PageSize: 20, MaxPageSize: 100}, slog.Default())

			page, err := f.Read(ctx, entity.Sales, entity.Params{})
			require.NoError(t, err)
			require.Len(t, page.Items, 1)

			items, ok := page.Items[0].Items()
			require.True(t, ok)
			require.Len(t, items, 1)
			assert.Equal(t, "p1", items[0].String("productId"))
			_, hasProduct := items[0].Nested("product")
			assert.False(t, hasProduct)
		})
	}
}

func TestFacade_WriteOnlinePropagatesServerError(t *testing.T) {
	r := &MockRemote{}
	f, _ := newTestFacade(t, &staticSession{owner: "o1"}, r)
	ctx := context.Background()

	r.On("Update", ctx, entity.Products, "p1", entity.Record{"name": ""}).
		Return(nil, &remote.Error{Status: http.StatusBadRequest, Message: "Product name is required"})
	r.On("Delete", ctx, entity.Contacts, "c1").Return(nil)

	_, err := f.Update(ctx, entity.Products, "p1", entity.Record{"name": ""})
	var apiErr *remote.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Product name is required", apiErr.Message)

	events, unsubscribe := f.Invalidations().Subscribe(1)
	defer unsubscribe()
	require.NoError(t, f.Delete(ctx, entity.Contacts, "c1"))
	ev := <-events
	assert.Equal(t, OpDelete, ev.Op)
	assert.Equal(t, entity.Contacts, ev.Type)
}

func TestFacade_UnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess, err := session.Open(filepath.Join(t.TempDir(), "state.json"), false, slog.Default())
	require.NoError(t, err)
	require.NoError(t, sess.SetCredentials("token", "o1", "admin"))

	rc := remote.New(srv.URL, 5*time.Second, sess, slog.Default())
	f := NewFacade(store.NewMemoryStore(), rc, sess, sess, Options{}, slog.Default())

	_, err = f.Read(context.Background(), entity.Products, entity.Params{})
	assert.ErrorIs(t, err, remote.ErrUnauthorized)
	assert.Empty(t, sess.Token())
	assert.Empty(t, sess.OwnerID())
}

func TestFacade_ModeIsReadPerCall(t *testing.T) {
	r := &MockRemote{}
	sess := &staticSession{offline: true, owner: "o1"}
	f, _ := newTestFacade(t, sess, r)
	ctx := context.Background()

	_, err := f.Create(ctx, entity.Products, entity.Record{"name": "Local"})
	require.NoError(t, err)

	sess.offline = false
	r.On("List", ctx, entity.Products, mock.Anything).Return(entity.EmptyPage(1), nil)

	page, err := f.Read(ctx, entity.Products, entity.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	r.AssertExpectations(t)
}

func TestInvalidations_Unsubscribe(t *testing.T) {
	bus := NewInvalidations()
	ch, unsubscribe := bus.Subscribe(1)

	bus.publish(Invalidation{Type: entity.Products, ID: "p1", Op: OpCreate})
	bus.publish(Invalidation{Type: entity.Products, ID: "p2", Op: OpCreate})

	ev := <-ch
	assert.Equal(t, "p1", ev.ID)

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	bus.publish(Invalidation{Type: entity.Contacts, ID: "c1", Op: OpDelete})
}
