package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestOpen_MissingFileUsesDefaultMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Open(path, true, slog.Default())
	require.NoError(t, err)
	assert.True(t, s.Offline())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.OwnerID())
}

func TestSession_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := Open(path, false, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.SetCredentials("tok", "owner-1", "cashier"))
	require.NoError(t, s.SetOffline(true))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkSynced(now))

	reopened, err := Open(path, false, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "tok", reopened.Token())
	assert.Equal(t, "owner-1", reopened.OwnerID())
	assert.True(t, reopened.Offline())
	assert.True(t, now.Equal(reopened.Snapshot().LastSync))
}

func TestSession_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Open(path, false, slog.Default())
	require.NoError(t, err)
	require.NoError(t, s.SetCredentials("tok", "owner-1", "cashier"))
	require.NoError(t, s.SetOffline(true))

	require.NoError(t, s.Clear())

	assert.Empty(t, s.Token())
	assert.Empty(t, s.OwnerID())
	assert.Empty(t, s.Snapshot().UserLogin)
	assert.True(t, s.Offline())

	reopened, err := Open(path, false, slog.Default())
	require.NoError(t, err)
	assert.Empty(t, reopened.Token())
}

func TestOpen_CorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Open(path, false, slog.Default())
	assert.Error(t, err)
}
