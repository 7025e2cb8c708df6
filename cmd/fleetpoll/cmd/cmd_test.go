package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpoll/internal/config"
	"fleetpoll/internal/domain"
	"fleetpoll/internal/repository/sqlite"
)

// run executes the root command with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile, inventoryFile, concurrency, debug, outputFormat = "", "", 0, false, "text"
		historyLimit, historyRun = 20, ""
		configForce = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleetpoll.yaml")
	content := "database:\n  path: " + dbPath + "\nlogging:\n  output: " + filepath.Join(t.TempDir(), "log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHistoryListsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "facts.db")
	store, err := sqlite.New(dbPath)
	require.NoError(t, err)

	start := time.Date(2026, 4, 7, 9, 0, 0, 0, time.UTC)
	r := domain.NewRun(domain.RunKindIdentity, 2, start)
	r.Finish(1, start.Add(2*time.Second))
	require.NoError(t, store.SaveRun(context.Background(), r))
	require.NoError(t, store.SaveIdentityFacts(context.Background(), r.ID, []domain.DeviceIdentityFact{{Device: "R1", Software: "x", Version: "y", Hardware: "z"}}))
	require.NoError(t, store.Close())

	cfg := writeConfig(t, dbPath)

	out, err := run(t, "history", "--config", cfg, "--output", "json")
	require.NoError(t, err)

	var runs []domain.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, r.ID, runs[0].ID)

	out, err = run(t, "history", "--config", cfg, "--run", r.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "R1")
}

func TestHistoryRequiresStore(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := run(t, "history", "--config", cfg)
	assert.ErrorContains(t, err, "no fact store")
}

func TestUnknownOutputFormat(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := run(t, "history", "--config", cfg, "--output", "csv")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestMissingInventory(t *testing.T) {
	cfg := writeConfig(t, "")

	_, err := run(t, "identity", "--config", cfg, "--inventory", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "read inventory")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetpoll.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, _, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, config.DefaultInventory, cfg.Inventory)

	_, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}
