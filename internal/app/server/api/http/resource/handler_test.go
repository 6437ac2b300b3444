package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/server/api/http/middleware/auth"
	"storekeeper/internal/domain/entity"
	domain "storekeeper/internal/domain/resource"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, ownerID string, t entity.Type, p domain.ListParams) (entity.Page, error) {
	args := m.Called(ctx, ownerID, t, p)
	return args.Get(0).(entity.Page), args.Error(1)
}

func (m *MockService) Find(ctx context.Context, ownerID string, t entity.Type, id string) (entity.Record, error) {
	args := m.Called(ctx, ownerID, t, id)
	rec, _ := args.Get(0).(entity.Record)
	return rec, args.Error(1)
}

func (m *MockService) Create(ctx context.Context, ownerID string, t entity.Type, data entity.Record, key string) (entity.Record, error) {
	args := m.Called(ctx, ownerID, t, data, key)
	rec, _ := args.Get(0).(entity.Record)
	return rec, args.Error(1)
}

func (m *MockService) Update(ctx context.Context, ownerID string, t entity.Type, id string, patch entity.Record) (entity.Record, error) {
	args := m.Called(ctx, ownerID, t, id, patch)
	rec, _ := args.Get(0).(entity.Record)
	return rec, args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, ownerID string, t entity.Type, id string) error {
	args := m.Called(ctx, ownerID, t, id)
	return args.Error(0)
}

const owner = "shop-1"

// withOwner подменяет проверку токена: владелец берётся из заголовка X-Owner.
func withOwner(ctx huma.Context, next func(huma.Context)) {
	if id := ctx.Header("X-Owner"); id != "" {
		ctx = huma.WithContext(ctx, auth.WithOwnerID(ctx.Context(), id))
	}
	next(ctx)
}

func setup(t *testing.T) (*MockService, humatest.TestAPI) {
	svc := new(MockService)
	_, api := humatest.New(t)
	NewHandler(svc, slog.Default(), huma.Middlewares{withOwner}).SetupRoutes(api)
	return svc, api
}

func TestHandler_List(t *testing.T) {
	svc, api := setup(t)

	svc.On("List", mock.Anything, owner, entity.SaleItems, domain.ListParams{
		Page:    2,
		Limit:   5,
		Search:  "rice",
		Date:    "2024-03-05",
		Filters: map[string]string{"saleId": "s1"},
	}).Return(entity.Page{
		Items:      []entity.Record{{"id": "i1", "saleId": "s1"}},
		Total:      6,
		Page:       2,
		TotalPages: 2,
	}, nil)

	resp := api.Get("/api/sale-items?page=2&limit=5&search=rice&date=2024-03-05&saleId=s1", "X-Owner: "+owner)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var page entity.Page
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "i1", page.Items[0].ID())
	svc.AssertExpectations(t)
}

func TestHandler_List_Unauthorized(t *testing.T) {
	svc, api := setup(t)

	resp := api.Get("/api/products")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_UnknownResource(t *testing.T) {
	svc, api := setup(t)

	resp := api.Get("/api/widgets", "X-Owner: "+owner)

	assert.GreaterOrEqual(t, resp.Code, http.StatusBadRequest)
	assert.Less(t, resp.Code, http.StatusInternalServerError)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Create(t *testing.T) {
	svc, api := setup(t)

	svc.On("Create", mock.Anything, owner, entity.Products,
		mock.MatchedBy(func(r entity.Record) bool { return r.String("name") == "Rice" }),
		"local-1",
	).Return(entity.Record{"id": "srv-1", "name": "Rice"}, nil)

	resp := api.Post("/api/products", "X-Owner: "+owner, "Idempotency-Key: local-1",
		map[string]any{"name": "Rice", "price": 12.5})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var rec entity.Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rec))
	assert.Equal(t, "srv-1", rec.ID())
	svc.AssertExpectations(t)
}

func TestHandler_Find(t *testing.T) {
	svc, api := setup(t)

	svc.On("Find", mock.Anything, owner, entity.Contacts, "c1").Return(entity.Record{"id": "c1", "name": "Ali"}, nil)
	svc.On("Find", mock.Anything, owner, entity.Contacts, "nope").Return(nil, entity.ErrNotFound)

	resp := api.Get("/api/contacts/c1", "X-Owner: "+owner)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Ali"`)

	resp = api.Get("/api/contacts/nope", "X-Owner: "+owner)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_Update(t *testing.T) {
	svc, api := setup(t)

	svc.On("Update", mock.Anything, owner, entity.Products, "p1", entity.Record{"stock": float64(3)}).
		Return(entity.Record{"id": "p1", "stock": 3}, nil)
	svc.On("Update", mock.Anything, owner, entity.Products, "p2", mock.Anything).
		Return(nil, errors.Join(entity.ErrInvalidData, errors.New("bad stock")))

	resp := api.Put("/api/products/p1", "X-Owner: "+owner, map[string]any{"stock": 3})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Put("/api/products/p2", "X-Owner: "+owner, map[string]any{"stock": -1})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Delete(t *testing.T) {
	svc, api := setup(t)

	svc.On("Delete", mock.Anything, owner, entity.Sales, "s1").Return(nil)
	svc.On("Delete", mock.Anything, owner, entity.Sales, "s2").Return(errors.New("connection reset"))

	resp := api.Delete("/api/sales/s1", "X-Owner: "+owner)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = api.Delete("/api/sales/s2", "X-Owner: "+owner)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.False(t, strings.Contains(resp.Body.String(), "connection reset"))
}
