// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManifestScanner_YAML(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "list.yaml", "- greet\n- farewell\n")
	tree := writeFile(t, dir, "tree.yml", `
nav:
  home: Home
  about:
    title: About
footer.copy:
buttons:
  - save
  - cancel
`)

	codes, err := NewManifestScanner(list, tree).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"buttons.cancel",
		"buttons.save",
		"farewell",
		"footer.copy",
		"greet",
		"nav.about.title",
		"nav.home",
	}, codes)
}

func TestManifestScanner_TextAndDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "codes.txt", "# header\n\ngreet\n  farewell  \ngreet\n")
	writeFile(t, dir, "nested/more.yaml", "[nav.home]")
	writeFile(t, dir, "nested/readme.md", "not a manifest")

	codes, err := NewManifestScanner(dir).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"farewell", "greet", "nav.home"}, codes)
}

func TestManifestScanner_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewManifestScanner(filepath.Join(dir, "missing.yaml")).Scan(context.Background())
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "nav: [unclosed")
	_, err = NewManifestScanner(bad).Scan(context.Background())
	assert.Error(t, err)
}

func TestMultiScanner(t *testing.T) {
	m := MultiScanner{
		NewStaticScanner("b", "a"),
		NewStaticScanner("c", "a"),
	}

	codes, err := m.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, codes)
}
