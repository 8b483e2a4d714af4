package markdown

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(input, []byte("# Steering\n\nA *circle* and a [link](https://example.com).\n"), 0o644))

	output, err := ConvertFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.html"), output)

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Steering</h1>")
	assert.Contains(t, string(html), "<em>circle</em>")
	assert.Contains(t, string(html), `<a href="https://example.com">link</a>`)
}

func TestConvertFile_Missing(t *testing.T) {
	_, err := ConvertFile(filepath.Join(t.TempDir(), "absent.md"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "docs/index.html", OutputPath("docs/index.md"))
	assert.Equal(t, "README.html", OutputPath("README"))
	assert.Equal(t, "a.b.html", OutputPath("a.b.markdown"))
}

func TestConvertUTF8(t *testing.T) {
	html, err := Convert([]byte("naïve — θ"))
	require.NoError(t, err)
	assert.Equal(t, "<p>naïve — θ</p>\n", string(html))
}
