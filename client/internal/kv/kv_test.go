package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv/kvtest"
)

func TestMemory_Compliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store { return kv.NewMemory() })
}

func TestSQLite_Compliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		s, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "nested", "maison.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPebble_Compliance(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kv.Store {
		s, err := kv.OpenPebble(filepath.Join(t.TempDir(), "pebble"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maison.db")
	ctx := context.Background()

	s, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "@maison/conversations", `[{"id":"c1"}]`))
	require.NoError(t, s.Close())

	reopened, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.Get(ctx, "@maison/conversations")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"c1"}]`, got)
}

func TestPebble_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pebble")
	ctx := context.Background()

	s, err := kv.OpenPebble(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "@maison/messages", `{"c1":[]}`))
	require.NoError(t, s.Close())

	reopened, err := kv.OpenPebble(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.Get(ctx, "@maison/messages")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"c1":[]}`, got)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	mem, err := kv.Open(ctx, kv.Options{Driver: kv.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &kv.Memory{}, mem)

	sq, err := kv.Open(ctx, kv.Options{Driver: kv.DriverSQLite, Path: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &kv.SQLite{}, sq)
	require.NoError(t, sq.Close())

	pb, err := kv.Open(ctx, kv.Options{Driver: kv.DriverPebble, Path: filepath.Join(t.TempDir(), "pb")})
	require.NoError(t, err)
	assert.IsType(t, &kv.Pebble{}, pb)
	require.NoError(t, pb.Close())

	_, err = kv.Open(ctx, kv.Options{Driver: "etcd"})
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestOpen_DefaultPathUsesLocalState(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MAISON_HOME", home)

	s, err := kv.Open(context.Background(), kv.Options{Driver: kv.DriverSQLite})
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, filepath.Join(home, "maison.db"))
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := kv.OpenRedis(context.Background(), "not a redis url")
	assert.Error(t, err)
}

func TestOpenMongo_BadURI(t *testing.T) {
	_, err := kv.OpenMongo(context.Background(), "postgres://localhost", "maison")
	assert.Error(t, err)
}

func TestMemory_HonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := kv.NewMemory()
	assert.ErrorIs(t, m.Set(ctx, "k", "v"), context.Canceled)
	_, _, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
