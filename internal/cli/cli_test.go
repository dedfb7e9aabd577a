package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[editor]
autosave_delay = "0"

[storage]
data_dir = "`+filepath.ToSlash(filepath.Join(dir, "data"))+`"

[log]
level = "error"
`), 0600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	// Flag variables are package-level; start every run from their defaults.
	configPath, logLevel = "", ""

	root := Root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCreateAndExport(t *testing.T) {
	cfg := writeConfig(t)
	body := filepath.Join(t.TempDir(), "body.md")
	require.NoError(t, os.WriteFile(body, []byte("# Welcome\n\nHello *world*"), 0644))

	out, err := run(t, cfg, "create", "Welcome", "--file", body)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, cfg, "export", id)
	require.NoError(t, err)
	assert.Equal(t, "# Welcome\n\nHello *world*\n", out)

	out, err = run(t, cfg, "export", id, "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<em>world</em>")

	_, err = run(t, cfg, "export", "missing")
	assert.Error(t, err)
}

func TestImportAndRevisions(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Release Notes.md"), []byte("# Release notes\n"), 0644))

	out, err := run(t, cfg, "import", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created\trelease-notes")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Release Notes.md"), []byte("# Release notes\n\nv2"), 0644))
	out, err = run(t, cfg, "import", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "updated\trelease-notes")

	out, err = run(t, cfg, "revisions", "list", "release-notes")
	require.NoError(t, err)
	assert.Contains(t, out, "import")

	out, err = run(t, cfg, "revisions", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Equal(t, "pruned 0 revision(s)\n", out)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\ndriver = \"oracle\"\n"), 0600))

	_, err := run(t, path, "export", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
