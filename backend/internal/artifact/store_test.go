package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func testStores(t *testing.T) map[string]Store {
	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "graph"))
	require.NoError(t, err)
	client, _ := setupTestRedis(t)

	return map[string]Store{
		"file":  fileStore,
		"redis": NewRedisStore(client, time.Hour),
	}
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			id := NewID()
			page := []byte("<html>graph</html>")

			require.NoError(t, store.Put(ctx, id, page))
			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, page, got)

			// overwrite
			require.NoError(t, store.Put(ctx, id, []byte("v2")))
			got, err = store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, NewID())
			var notFound *apperrors.ErrArtifactNotFound
			assert.ErrorAs(t, err, &notFound)
		})
	}
}

func TestStore_RejectsNonUUID(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc/passwd", "abc", "6F9619FF-8B86-D011-B42D-00C04FC964FF"} {
				assert.Error(t, store.Put(ctx, id, []byte("x")), id)
				_, err := store.Get(ctx, id)
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage), id)
			}
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	id := NewID()
	require.NoError(t, store.Put(context.Background(), id, []byte("page")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, id+".html", entries[0].Name())
}

func TestRedisStore_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	id := NewID()
	require.NoError(t, store.Put(ctx, id, []byte("page")))
	assert.True(t, mr.Exists("friendmap:graph:"+id))
	assert.Equal(t, time.Minute, mr.TTL("friendmap:graph:"+id))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, id)
	var notFound *apperrors.ErrArtifactNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestNewRedisStore_DefaultTTL(t *testing.T) {
	client, _ := setupTestRedis(t)
	assert.Equal(t, DefaultTTL, NewRedisStore(client, 0).ttl)
}
