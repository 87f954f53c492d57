package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := NewLocalStorage(root, "http://localhost:8080/media/")
	require.NoError(t, err)

	key := "issue_images/1/abc.png"
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("png-bytes"), 9, "image/png"))

	content, err := os.ReadFile(filepath.Join(root, "issue_images", "1", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	assert.Equal(t, "http://localhost:8080/media/issue_images/1/abc.png", s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "issue_images", "1", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorage_KeyCannotEscapeRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := NewLocalStorage(filepath.Join(root, "media"), "http://localhost/media")
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "../../escape.txt", strings.NewReader("x"), 1, ""))

	_, err = os.Stat(filepath.Join(root, "media", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
