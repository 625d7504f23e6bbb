package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/store"
)

func newTestRuntime(t *testing.T) (*runtime, *bytes.Buffer) {
	t.Helper()
	cfg := &app.Config{StoreDriver: app.StoreMemory, BlobDriver: "memory", LogFormat: "pretty", BackupRetention: 2}
	services, err := app.Wire(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	rt := &runtime{
		stdout: out,
		open: func(context.Context) (*app.Config, *app.Services, error) {
			return cfg, services, nil
		},
	}
	return rt, out
}

func run(t *testing.T, rt *runtime, args ...string) error {
	t.Helper()
	return newApp(rt).RunContext(context.Background(), append([]string{"printdeskctl"}, args...))
}

func TestExportImportCommands(t *testing.T) {
	rt, out := newTestRuntime(t)
	path := filepath.Join(t.TempDir(), "backup.json")

	require.NoError(t, run(t, rt, "export", "--out", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0"`)

	require.NoError(t, run(t, rt, "import", path))
	assert.Contains(t, out.String(), "imported "+path)

	assert.Error(t, run(t, rt, "import"))
}

func TestClearRequiresConfirmation(t *testing.T) {
	rt, out := newTestRuntime(t)
	err := run(t, rt, "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	require.NoError(t, run(t, rt, "clear", "--yes"))
	assert.Contains(t, out.String(), "defaults seeded")
	n, err := rt.services.Store.Count(context.Background(), store.Services)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestBackupsCommands(t *testing.T) {
	rt, out := newTestRuntime(t)
	require.NoError(t, run(t, rt, "backups", "snapshot"))
	key := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(key, "backups/"))

	out.Reset()
	require.NoError(t, run(t, rt, "backups", "list"))
	assert.Contains(t, out.String(), key)

	out.Reset()
	require.NoError(t, run(t, rt, "backups", "restore", key))
	assert.Contains(t, out.String(), "restored "+key)

	out.Reset()
	require.NoError(t, run(t, rt, "jobs", "list"))
	assert.Contains(t, out.String(), "backup:snapshot")
}
