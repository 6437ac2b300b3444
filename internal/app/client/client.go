package client

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/config"
	"storekeeper/internal/app/client/remote"
	"storekeeper/internal/app/client/session"
	"storekeeper/internal/app/client/store"
	"storekeeper/internal/app/client/sync"
)

// App связывает сессию, локальное хранилище, сервер, фасад и синхронизацию.
type App struct {
	config  *config.Config
	log     *slog.Logger
	session *session.Session
	store   store.Store
	remote  *remote.Client
	facade  *Facade
	sync    *sync.Engine
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	sess, err := session.Open(cfg.StatePath, cfg.Offline, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки сессии: %w", err)
	}

	// Хранилище открывается лениво: при сбое чтения в офлайне вернут пустые страницы,
	// а следующий вызов попробует открыть базу снова.
	st := store.NewSQLiteStore(cfg.DataPath, log)

	return newApp(cfg, log, sess, st), nil
}

func newApp(cfg *config.Config, log *slog.Logger, sess *session.Session, st store.Store) *App {
	rc := remote.New(cfg.BaseURL(), cfg.Timeout(), sess, log)

	facade := NewFacade(st, rc, sess, sess, Options{
		PageSize:          cfg.PageSize,
		MaxPageSize:       cfg.MaxPageSize,
		LowStockThreshold: cfg.LowStockThreshold,
		BarcodeStart:      cfg.BarcodeStart,
	}, log)

	engine := sync.New(st, rc, sess, log,
		sync.WithPageSize(cfg.SyncPageSize),
		sync.WithCompletion(func(at time.Time) {
			if err := sess.MarkSynced(at); err != nil {
				log.Warn("failed to save last sync time", "error", err)
			}
		}),
	)

	return &App{
		config:  cfg,
		log:     log,
		session: sess,
		store:   st,
		remote:  rc,
		facade:  facade,
		sync:    engine,
	}
}

func (a *App) Config() *config.Config    { return a.config }
func (a *App) Logger() *slog.Logger      { return a.log }
func (a *App) Session() *session.Session { return a.session }
func (a *App) Facade() *Facade           { return a.facade }
func (a *App) Sync() *sync.Engine        { return a.sync }

// CheckConnection проверяет доступность сервера.
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.remote.HealthCheck(ctx)
}

// InitStorage открывает локальную базу и применяет миграции.
func (a *App) InitStorage(ctx context.Context) error {
	if err := a.store.Open(ctx); err != nil {
		return fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}
	return nil
}

// SetOffline переключает режим работы.
func (a *App) SetOffline(offline bool) error {
	if err := a.session.SetOffline(offline); err != nil {
		return err
	}
	a.log.Info("mode changed", "offline", offline)
	return nil
}

// Login сохраняет выданный сервером токен и владельца данных.
func (a *App) Login(token, ownerID, login string) error {
	if token == "" || ownerID == "" {
		return fmt.Errorf("токен и владелец обязательны")
	}
	if err := a.session.SetCredentials(token, ownerID, login); err != nil {
		return err
	}
	a.log.Info("credentials saved", "owner_id", ownerID)
	return nil
}

// Logout удаляет токен и владельца. Локальные данные остаются.
func (a *App) Logout() error {
	return a.session.Clear()
}

// IsAuthenticated сообщает, есть ли в сессии токен и владелец.
func (a *App) IsAuthenticated() bool {
	st := a.session.Snapshot()
	return st.Token != "" && st.OwnerID != ""
}

func (a *App) Shutdown() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close store", "error", err)
	}
	a.log.Debug("client stopped")
}

type ctxKey struct{}

// WithApp кладёт приложение в контекст команды.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, app)
}

// FromContext достаёт приложение из контекста команды.
func FromContext(ctx context.Context) (*App, bool) {
	app, ok := ctx.Value(ctxKey{}).(*App)
	return app, ok
}
