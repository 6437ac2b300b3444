package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/config"
	"storekeeper/internal/domain/entity"
)

func testConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:               "local",
		ServerAddress:     addr,
		ConfigDir:         dir,
		DataPath:          filepath.Join(dir, "store.db"),
		StatePath:         filepath.Join(dir, "state.json"),
		Offline:           true,
		PageSize:          20,
		MaxPageSize:       100,
		SyncPageSize:      500,
		HTTPTimeout:       5,
		LowStockThreshold: 5,
		BarcodeStart:      1000000,
	}
}

func TestApp_OfflineRoundTrip(t *testing.T) {
	app, err := New(testConfig(t, "localhost:0"), slog.Default())
	require.NoError(t, err)
	defer app.Shutdown()

	ctx := context.Background()
	require.NoError(t, app.InitStorage(ctx))
	assert.False(t, app.IsAuthenticated())

	_, err = app.Facade().Create(ctx, entity.Products, entity.Record{"name": "Rice"})
	assert.ErrorIs(t, err, entity.ErrNoOwner)

	require.NoError(t, app.Login("token", "o1", "admin"))
	assert.True(t, app.IsAuthenticated())

	created, err := app.Facade().Create(ctx, entity.Products, entity.Record{"name": "Rice"})
	require.NoError(t, err)

	page, err := app.Facade().Read(ctx, entity.Products, entity.Params{ID: created.ID()})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Rice", page.Items[0].String("name"))

	assert.Equal(t, 1, app.Facade().PendingCount(ctx))

	require.NoError(t, app.Logout())
	assert.False(t, app.IsAuthenticated())
	assert.True(t, app.Session().Offline())
}

func TestApp_CheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	app, err := New(testConfig(t, srv.URL), slog.Default())
	require.NoError(t, err)
	defer app.Shutdown()

	assert.NoError(t, app.CheckConnection(context.Background()))
}

func TestApp_Context(t *testing.T) {
	app, err := New(testConfig(t, "localhost:0"), slog.Default())
	require.NoError(t, err)

	ctx := WithApp(context.Background(), app)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, app, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
