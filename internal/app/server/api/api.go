// GET    /api/v1/health           # Проверка сервиса (публичный)
// GET    /api/{resource}          # Страница записей (auth)
// POST   /api/{resource}          # Создать запись, Idempotency-Key (auth)
// GET    /api/{resource}/{id}     # Получить запись (auth)
// PUT    /api/{resource}/{id}     # Частично обновить запись (auth)
// DELETE /api/{resource}/{id}     # Удалить запись (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "storekeeper/internal/app/server/api/http/health"
	"storekeeper/internal/app/server/api/http/middleware"
	"storekeeper/internal/app/server/api/http/middleware/auth"
	"storekeeper/internal/app/server/api/http/middleware/logger"
	resourceAPI "storekeeper/internal/app/server/api/http/resource"
	"storekeeper/internal/app/server/config"
	"storekeeper/internal/domain/resource"
	"storekeeper/internal/domain/session"
	"storekeeper/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health   *healthAPI.Handler
	Resource *resourceAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	sessions := session.NewService(postgres.NewSessionRepository(storage, log), cfg.Server.TokenTTL, log)
	resources := resource.NewService(postgres.NewResourceRepository(storage, log), cfg.Server.MaxPageSize, log)

	return NewMux(storage, sessions, resources, log)
}

// NewMux собирает API из готовых сервисов.
func NewMux(db healthAPI.Pinger, sessions session.Servicer, resources resource.Servicer, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Storekeeper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(db, sessions, resources, log)
	h.Health.SetupRoutes(API)
	h.Resource.SetupRoutes(API)

	return mux
}

func handlers(db healthAPI.Pinger, sessions session.Servicer, resources resource.Servicer, log *slog.Logger) *Handlers {
	authMW := auth.New(sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(db, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	resourceHandler := resourceAPI.NewHandler(resources, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:   healthHandler,
		Resource: resourceHandler,
	}
}
