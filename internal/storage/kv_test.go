package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKV runs the behaviour every backend must share
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, KeyConversations)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, KeyConversations, []byte(`[{"id":"chat-1"}]`)))
	got, err := kv.Get(ctx, KeyConversations)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"chat-1"}]`, string(got))

	// last writer wins
	require.NoError(t, kv.Put(ctx, KeyConversations, []byte(`[]`)))
	got, err = kv.Get(ctx, KeyConversations)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, kv.Put(ctx, KeyToken, []byte("abc")))
	require.NoError(t, kv.Delete(ctx, KeyToken))
	_, err = kv.Get(ctx, KeyToken)
	require.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	require.NoError(t, kv.Delete(ctx, "missing"))
}

func TestMemory(t *testing.T) {
	kv := NewMemory()
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Put(ctx, "k", []byte("abc")))

	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	v[0] = 'z'

	again, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestBolt(t *testing.T) {
	kv, err := OpenBolt(filepath.Join(t.TempDir(), "bobchat.db"))
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestBolt_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bobchat.db")

	kv, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, KeyToken, []byte("tok")))
	require.NoError(t, kv.Close())

	kv, err = OpenBolt(path)
	require.NoError(t, err)
	defer kv.Close()
	got, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(got))
}

func TestSQLite(t *testing.T) {
	kv, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bobchat.sqlite"))
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}

func TestRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	kv, err := OpenRedis(context.Background(), srv.Addr(), "bobchat:")
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)

	require.NoError(t, kv.Put(context.Background(), KeyToken, []byte("tok")))
	assert.True(t, srv.Exists("bobchat:token"))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("BOBCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BOBCHAT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	kv, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Delete(ctx, KeyConversations))
	require.NoError(t, kv.Delete(ctx, KeyToken))
	exerciseKV(t, kv)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := Open(ctx, Options{Driver: "bolt", Path: filepath.Join(dir, "nested", "a.db")})
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	kv, err = Open(ctx, Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	_, err = Open(ctx, Options{Driver: "etcd"})
	assert.ErrorContains(t, err, "unknown storage driver")

	_, err = Open(ctx, Options{Driver: "bolt"})
	assert.Error(t, err)
}

func TestCopy_BoltToSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src, err := OpenBolt(filepath.Join(dir, "src.db"))
	require.NoError(t, err)
	defer src.Close()
	dst, err := OpenSQLite(ctx, filepath.Join(dir, "dst.sqlite"))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, src.Put(ctx, KeyConversations, []byte(`[{"id":"chat-1"}]`)))

	n, err := Copy(ctx, dst, src, KeyToken, KeyConversations)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := dst.Get(ctx, KeyConversations)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"chat-1"}]`, string(got))

	_, err = dst.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
