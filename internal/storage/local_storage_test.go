package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Store(ctx, strings.NewReader("png-bytes"), "Taladro.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Open(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, ref))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "../config.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfig_CheckUpload(t *testing.T) {
	cfg := Config{MaxFileSizeMB: 1, AllowedTypes: []string{"image/png"}, BaseURL: "http://localhost:8080/"}

	assert.NoError(t, cfg.CheckUpload("image/png", 1024))
	assert.Error(t, cfg.CheckUpload("image/gif", 1024))
	assert.Error(t, cfg.CheckUpload("image/png", 2<<20))
	assert.Equal(t, "http://localhost:8080/api/v1/images/abc.png", cfg.URL("abc.png"))
	assert.Equal(t, "image/png", ContentType("abc.png"))
}
