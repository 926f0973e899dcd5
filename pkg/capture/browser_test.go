package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIMEType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"shot.png", "image/png"},
		{"shot.PNG", "image/png"},
		{"shot.jpg", "image/jpeg"},
		{"shot.jpeg", "image/jpeg"},
		{"shot.webp", "image/webp"},
	}

	for _, tt := range tests {
		got, err := MIMEType(tt.path)
		require.NoError(t, err, "path %q", tt.path)
		assert.Equal(t, tt.want, got)
	}
}

func TestMIMEType_Unsupported(t *testing.T) {
	for _, path := range []string{"shot.gif", "shot.pdf", "shot"} {
		_, err := MIMEType(path)
		assert.Error(t, err, "path %q", path)
	}
}

func TestCaptureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0644))

	data, mime, err := CaptureFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", mime)
}

func TestCaptureFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := CaptureFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, _, err = CaptureFile(empty)
	assert.ErrorContains(t, err, "empty")

	_, _, err = CaptureFile(filepath.Join(dir, "shot.bmp"))
	assert.ErrorContains(t, err, "unsupported")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 1280, opts.WindowWidth)
	assert.Equal(t, 800, opts.WindowHeight)
	assert.True(t, opts.FullPage)
	assert.NotZero(t, opts.Timeout)
}
