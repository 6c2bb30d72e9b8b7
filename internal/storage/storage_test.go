package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentKey(t *testing.T) {
	key := AttachmentKey("ev-1", `C:\fotos\Recibo.PDF`)
	assert.True(t, strings.HasPrefix(key, "events/ev-1/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.True(t, IsAttachmentKey("ev-1", key))
	assert.False(t, IsAttachmentKey("ev-2", key))
	assert.False(t, IsAttachmentKey("ev-1", "https://example.com/recibo.pdf"))

	assert.NotEqual(t, key, AttachmentKey("ev-1", "Recibo.pdf"))
	assert.False(t, strings.Contains(AttachmentKey("ev-1", "sin-extension"), "."))
}

func exerciseStore(t *testing.T, s AttachmentStore) {
	ctx := context.Background()
	key := AttachmentKey("ev-test", "nota.txt")

	_, err := s.PresignedURL(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	body := "hola mundo"
	require.NoError(t, s.Put(ctx, key, strings.NewReader(body), int64(len(body)), "text/plain"))

	u, err := s.PresignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, key)

	require.NoError(t, s.Remove(ctx, key))
	_, err = s.PresignedURL(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("http://files.local")
	exerciseStore(t, store)

	require.NoError(t, store.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain"))
	data, contentType, ok := store.Object("k")
	require.True(t, ok)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, "text/plain", contentType)
}

func TestMemoryStore_FetchHonoursExpiry(t *testing.T) {
	store := NewMemoryStore("http://files.local")
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "events/1/a.pdf", strings.NewReader("pdf"), 3, "application/pdf"))
	u, err := store.PresignedURL(ctx, "events/1/a.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("http://files.local/events/1/a.pdf?expires=%d", now.Add(time.Minute).Unix()), u)

	data, contentType, err := store.Fetch("events/1/a.pdf", now.Add(time.Minute).Unix())
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))
	assert.Equal(t, "application/pdf", contentType)

	now = now.Add(2 * time.Minute)
	_, _, err = store.Fetch("events/1/a.pdf", now.Add(-time.Minute).Unix())
	assert.ErrorIs(t, err, ErrLinkExpired)

	_, _, err = store.Fetch("events/1/missing.pdf", now.Unix())
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMinioStore(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT_TEST")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT_TEST not set")
	}
	store, err := NewMinioStore(context.Background(), MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY_TEST"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY_TEST"),
		Bucket:    "walletfy-test",
	})
	require.NoError(t, err)
	exerciseStore(t, store)
}
