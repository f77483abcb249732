package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey(time.Now())
	require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("object bytes")), 12, "text/plain"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "object bytes", string(content))
}

func TestLocalDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := NewKey(time.Now())
	require.NoError(t, store.Save(ctx, key, bytes.NewReader([]byte("x")), 1, "text/plain"))
	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	assert.Error(t, err)

	// deleting a missing object is not an error
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalRefusesTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Save(ctx, "../escape", bytes.NewReader([]byte("x")), 1, "text/plain")
	assert.Error(t, err)

	_, err = store.Open(ctx, "/etc/passwd")
	assert.Error(t, err)
}

func TestNewKeyIsDatePartitioned(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	key := NewKey(now)
	assert.Regexp(t, `^2026/03/09/[^/]+$`, key)
}
