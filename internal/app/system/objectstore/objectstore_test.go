package objectstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/media/a.png", joinURL("https://cdn.example.com/", "/media/a.png"))
	assert.Equal(t, "/files/media/a.png", joinURL("/files", "media/a.png"))
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "", endpointURL("", true))
	assert.Equal(t, "https://minio:9000", endpointURL("minio:9000", true))
	assert.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	assert.Equal(t, "http://x", endpointURL("http://x", true))
}

func TestOpenRejectsUnknownType(t *testing.T) {
	_, err := Open(context.Background(), Options{Type: "ftp"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Type: TypeS3})
	assert.Error(t, err, "s3 without bucket")
}

func TestS3PublicURL(t *testing.T) {
	ctx := context.Background()

	s, err := NewS3(ctx, Options{Bucket: "site", Region: "eu-west-1", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://site.s3.eu-west-1.amazonaws.com/media/a.png", s.URL("media/a.png"))
	assert.Equal(t, "site", s.Bucket())

	s, err = NewS3(ctx, Options{Bucket: "site", Endpoint: "storage.local:9000", AccessKey: "k", SecretKey: "s", PathStyle: true})
	require.NoError(t, err)
	assert.Equal(t, "http://storage.local:9000/site/media/a.png", s.URL("media/a.png"))

	s, err = NewS3(ctx, Options{Bucket: "site", PublicURL: "https://cdn.example.com", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/a.png", s.URL("media/a.png"))
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(ctx, Options{Type: TypeLocal, LocalPath: dir, LocalURL: "/files"})
	require.NoError(t, err)
	assert.Equal(t, "", st.Bucket())

	key := "media/2026/10/1760000000000-report-abc123.txt"
	require.NoError(t, st.Put(ctx, key, strings.NewReader("hello"), 5, "text/plain"))
	assert.True(t, strings.HasSuffix(st.URL(key), key))

	rc, err := st.Get(ctx, key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	keys, err := st.(Lister).List(ctx, "media/")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, st.Delete(ctx, key))
	keys, err = st.(Lister).List(ctx, "media/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
