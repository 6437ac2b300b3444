// Package sync выгружает ожидающие записи на сервер и заменяет локальные
// коллекции серверными данными.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"storekeeper/internal/app/client/store"
	"storekeeper/internal/domain/entity"
)

const defaultPageSize = 500

// Remote - серверные операции, нужные синхронизации.
type Remote interface {
	List(ctx context.Context, t entity.Type, p entity.Params) (entity.Page, error)
	Create(ctx context.Context, t entity.Type, rec entity.Record, idempotencyKey string) (entity.Record, error)
	Update(ctx context.Context, t entity.Type, id string, patch entity.Record) (entity.Record, error)
}

// OwnerSource сообщает владельца данных текущей сессии.
type OwnerSource interface {
	OwnerID() string
}

// ProgressFunc получает сообщение и процент выполнения.
type ProgressFunc func(message string, percent int)

type UploadOptions struct {
	Types []entity.Type // пусто - все выгружаемые типы
}

type DownloadOptions struct {
	Types          []entity.Type // пусто - все локальные типы
	DiscardPending bool          // разрешить затереть неотправленные записи
}

type Engine struct {
	store    store.Store
	remote   Remote
	owner    OwnerSource
	pageSize int
	log      *slog.Logger
	onDone   func(time.Time)

	mu        gosync.Mutex
	isSyncing bool
}

type Option func(*Engine)

// WithPageSize задаёт размер страницы при скачивании.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithCompletion вызывает fn после каждого успешного прохода.
func WithCompletion(fn func(time.Time)) Option {
	return func(e *Engine) { e.onDone = fn }
}

func New(s store.Store, r Remote, owner OwnerSource, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		remote:   r,
		owner:    owner,
		pageSize: defaultPageSize,
		log:      log.With("component", "sync_engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsSyncing сообщает, выполняется ли сейчас проход.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSyncing
}

// StartUpload запускает выгрузку в отдельной горутине.
func (e *Engine) StartUpload(ctx context.Context, opts UploadOptions) (*Task, error) {
	types := selectTypes(entity.UploadOrder(), opts.Types)
	return e.start(ctx, len(types)+2, func(ctx context.Context, task *Task) (Result, error) {
		return e.upload(ctx, task, types)
	})
}

// StartDownload запускает скачивание в отдельной горутине.
func (e *Engine) StartDownload(ctx context.Context, opts DownloadOptions) (*Task, error) {
	types := selectTypes(entity.DownloadOrder(), opts.Types)
	return e.start(ctx, 2*len(types)+3, func(ctx context.Context, task *Task) (Result, error) {
		return e.download(ctx, task, types, opts.DiscardPending)
	})
}

// Upload - синхронная обёртка над StartUpload с колбэком прогресса.
func (e *Engine) Upload(ctx context.Context, opts UploadOptions, progress ProgressFunc) (Result, error) {
	task, err := e.StartUpload(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	return drain(task, progress)
}

// Download - синхронная обёртка над StartDownload с колбэком прогресса.
func (e *Engine) Download(ctx context.Context, opts DownloadOptions, progress ProgressFunc) (Result, error) {
	task, err := e.StartDownload(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	return drain(task, progress)
}

func drain(task *Task, progress ProgressFunc) (Result, error) {
	for ev := range task.Events() {
		if progress != nil && ev.Kind == EventProgress {
			progress(ev.Message, ev.Percent)
		}
	}
	return task.Wait()
}

func (e *Engine) start(ctx context.Context, steps int, run func(context.Context, *Task) (Result, error)) (*Task, error) {
	e.mu.Lock()
	if e.isSyncing {
		e.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	e.isSyncing = true
	e.mu.Unlock()

	task := newTask(steps + 2)

	go func() {
		res, err := run(ctx, task)

		e.mu.Lock()
		e.isSyncing = false
		e.mu.Unlock()

		if err != nil {
			e.log.Error("sync failed", "error", err)
		} else if e.onDone != nil {
			e.onDone(time.Now())
		}
		task.finish(res, err)
	}()

	return task, nil
}

func (e *Engine) ownerID() (string, error) {
	id := e.owner.OwnerID()
	if id == "" {
		return "", entity.ErrNoOwner
	}
	return id, nil
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

// selectTypes оставляет порядок order, ограничивая его набором only.
func selectTypes(order, only []entity.Type) []entity.Type {
	if len(only) == 0 {
		return order
	}
	want := make(map[entity.Type]bool, len(only))
	for _, t := range only {
		want[t] = true
	}
	out := make([]entity.Type, 0, len(only))
	for _, t := range order {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}
