package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// State хранит состояние сессии клиента
type State struct {
	Token     string    `json:"token,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	UserLogin string    `json:"user_login,omitempty"`
	Offline   bool      `json:"offline"`
	LastSync  time.Time `json:"last_sync"`
}

// Session - сохраняемая на диск сессия: токен, владелец данных и режим работы.
// Реализует источник режима для фасада и источник токена для удалённого клиента.
type Session struct {
	path  string
	log   *slog.Logger
	mu    sync.RWMutex
	state State
}

// Open загружает состояние из файла. Если файла нет, режим берётся из offline.
func Open(path string, offline bool, log *slog.Logger) (*Session, error) {
	s := &Session{
		path:  path,
		log:   log.With("component", "session"),
		state: State{Offline: offline},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("ошибка чтения состояния: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("ошибка разбора состояния: %w", err)
	}

	return s, nil
}

// Token возвращает токен доступа или пустую строку.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// OwnerID возвращает идентификатор владельца данных.
func (s *Session) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.OwnerID
}

// Offline сообщает текущий режим. Читается при каждом вызове фасада.
func (s *Session) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Offline
}

// Snapshot возвращает копию состояния.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetOffline переключает режим и сохраняет его.
func (s *Session) SetOffline(offline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Offline = offline
	return s.save()
}

// SetCredentials сохраняет токен и владельца, полученные внешним механизмом входа.
func (s *Session) SetCredentials(token, ownerID, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.OwnerID = ownerID
	s.state.UserLogin = login
	return s.save()
}

// MarkSynced запоминает время последней успешной синхронизации.
func (s *Session) MarkSynced(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastSync = at
	return s.save()
}

// Clear удаляет все идентификаторы сессии. Режим работы сохраняется.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = ""
	s.state.OwnerID = ""
	s.state.UserLogin = ""

	s.log.Info("session cleared")

	return s.save()
}

func (s *Session) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("ошибка создания директории состояния: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}

	return nil
}
