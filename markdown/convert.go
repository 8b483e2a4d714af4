// Package markdown renders Markdown files to HTML fragments.
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// Convert renders Markdown source to an HTML fragment.
func Convert(source []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := goldmark.Convert(source, &out); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return out.Bytes(), nil
}

// OutputPath is path with its extension replaced by .html.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
}

// ConvertFile renders the Markdown file at path to a sibling .html file and
// returns the output path.
func ConvertFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	html, err := Convert(source)
	if err != nil {
		return "", err
	}

	output := OutputPath(path)
	if err := os.WriteFile(output, html, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", output, err)
	}
	return output, nil
}
