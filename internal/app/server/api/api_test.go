package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"storekeeper/internal/domain/entity"
	"storekeeper/internal/domain/resource"
	"storekeeper/internal/domain/session"
)

type stubSessions struct{}

func (stubSessions) Create(context.Context, string) (string, error) { return "tok", nil }

func (stubSessions) Validate(_ context.Context, token string) (string, error) {
	if token == "good" {
		return "shop-1", nil
	}
	return "", session.ErrInvalidToken
}

type mockResources struct {
	mock.Mock
	resource.Servicer
}

func (m *mockResources) List(ctx context.Context, ownerID string, t entity.Type, p resource.ListParams) (entity.Page, error) {
	args := m.Called(ctx, ownerID, t, p)
	return args.Get(0).(entity.Page), args.Error(1)
}

func TestNewMux(t *testing.T) {
	res := new(mockResources)
	res.On("List", mock.Anything, "shop-1", entity.Products, mock.Anything).
		Return(entity.EmptyPage(1), nil)

	srv := httptest.NewServer(NewMux(nil, stubSessions{}, res, slog.Default()))
	defer srv.Close()

	get := func(path, token string) int {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/api/v1/health", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/products", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/products", "bad"))
	assert.Equal(t, http.StatusOK, get("/api/products", "good"))
	res.AssertNumberOfCalls(t, "List", 1)
}
