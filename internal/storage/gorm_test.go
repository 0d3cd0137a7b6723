package storage

import (
	"path/filepath"
	"testing"

	"roam/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewGormStore(filepath.Join(t.TempDir(), "roam.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLoadServersEmpty(t *testing.T) {
	store := newTestStore(t)

	servers, err := store.LoadServers()
	require.NoError(t, err)
	assert.NotNil(t, servers)
	assert.Empty(t, servers)
}

func TestSaveServersRoundTrip(t *testing.T) {
	store := newTestStore(t)

	name := "Survival"
	in := []domain.ServerConfig{
		{Name: &name, Path: "/srv/a", JarName: "server.jar", MinRAM: "1G", MaxRAM: "4G"},
		{Path: "/srv/b", JarName: "paper.jar", MinRAM: "1G", MaxRAM: "2G", Tunnel: &domain.TunnelConfig{
			Provider:  domain.ProviderPlayit,
			AuthToken: "tok",
		}},
	}
	require.NoError(t, store.SaveServers(in))

	out, err := store.LoadServers()
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, store.SaveServers(nil))
	raw, err := store.GetSetting(ServersKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestLoadServersCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetSetting(ServersKey, "{not json"))

	_, err := store.LoadServers()
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSetting(ActiveServerKey)
	assert.ErrorIs(t, err, ErrSettingNotFound)

	require.NoError(t, store.SetSetting(ActiveServerKey, "/srv/a"))
	require.NoError(t, store.SetSetting(ActiveServerKey, "/srv/b"))

	v, err := store.GetSetting(ActiveServerKey)
	require.NoError(t, err)
	assert.Equal(t, "/srv/b", v)

	require.NoError(t, store.DeleteSetting(ActiveServerKey))
	_, err = store.GetSetting(ActiveServerKey)
	assert.ErrorIs(t, err, ErrSettingNotFound)
}
