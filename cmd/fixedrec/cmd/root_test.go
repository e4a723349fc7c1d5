package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ssargent/fixedrec/pkg/config"
	"github.com/ssargent/fixedrec/pkg/di"
	"github.com/ssargent/fixedrec/pkg/instrument"
	"github.com/ssargent/fixedrec/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// workspace holds the config and data paths shared by one test's commands
type workspace struct {
	configPath string
	dataDir    string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	SetContainer(di.NewContainer())
	dir := t.TempDir()
	return workspace{
		configPath: filepath.Join(dir, "config.yaml"),
		dataDir:    filepath.Join(dir, "data"),
	}
}

// run executes one command line and returns its output
func (ws workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCommand()
	t.Cleanup(func() { _ = a.close() })

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", ws.configPath, "--data-dir", ws.dataDir, "--log-format", "none"}, args...))
	err := root.Execute()
	closeErr := a.close()
	if err == nil {
		err = closeErr
	}
	return out.String(), err
}

func (ws workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := ws.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestPutGetDelete(t *testing.T) {
	ws := newWorkspace(t)

	out := ws.mustRun(t, "put", "1", "--security-id", "42", "--cusip", "912828U40", "--enabled", "--min-size", "1000")
	assert.Contains(t, out, "Created instrument 1")

	out = ws.mustRun(t, "get", "1", "-o", "json")
	var snap instrument.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, instrument.Snapshot{ID: 1, SecurityID: 42, Cusip: "912828U40", Enabled: true, MinSize: 1000}, snap)

	// only the given flags change on update
	out = ws.mustRun(t, "put", "1", "--min-size", "5")
	assert.Contains(t, out, "Updated instrument 1")

	out = ws.mustRun(t, "get", "1", "-o", "yaml")
	require.NoError(t, yaml.Unmarshal([]byte(out), &snap))
	assert.Equal(t, instrument.Snapshot{ID: 1, SecurityID: 42, Cusip: "912828U40", Enabled: true, MinSize: 5}, snap)

	out = ws.mustRun(t, "get", "1")
	assert.Contains(t, out, "912828U40")
	assert.Contains(t, out, "Min Size:")

	ws.mustRun(t, "delete", "1")
	_, err := ws.run(t, "get", "1")
	assert.Error(t, err)
}

func TestPutErrors(t *testing.T) {
	ws := newWorkspace(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "non numeric id", args: []string{"put", "abc"}},
		{name: "id overflow", args: []string{"put", "4294967296"}},
		{name: "cusip too long", args: []string{"put", "1", "--cusip", "0123456789"}},
		{name: "missing id", args: []string{"put"}},
		{name: "bad output format", args: []string{"get", "1", "-o", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ws.run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestListAndQuery(t *testing.T) {
	ws := newWorkspace(t)
	ws.mustRun(t, "put", "1", "--security-id", "10", "--cusip", "037833100", "--enabled")
	ws.mustRun(t, "put", "2", "--security-id", "20", "--cusip", "037833200")
	ws.mustRun(t, "put", "3", "--security-id", "30", "--cusip", "594918104", "--enabled")

	ids := func(out string) []int32 {
		var snaps []instrument.Snapshot
		require.NoError(t, json.Unmarshal([]byte(out), &snaps), out)
		result := make([]int32, 0, len(snaps))
		for _, s := range snaps {
			result = append(result, s.ID)
		}
		return result
	}

	assert.Equal(t, []int32{1, 2, 3}, ids(ws.mustRun(t, "list", "-o", "json")))
	assert.Equal(t, []int32{1}, ids(ws.mustRun(t, "list", "--limit", "1", "-o", "json")))
	assert.ElementsMatch(t, []int32{1, 3}, ids(ws.mustRun(t, "query", "enabled", "=", "true", "-o", "json")))
	assert.ElementsMatch(t, []int32{2, 3}, ids(ws.mustRun(t, "query", "securityId", ">", "10", "-o", "json")))
	assert.ElementsMatch(t, []int32{1, 2}, ids(ws.mustRun(t, "query", "cusip", "^=", "0378", "-o", "json")))
	assert.Empty(t, ids(ws.mustRun(t, "query", "cusip", "=", "NOPE", "-o", "json")))

	out := ws.mustRun(t, "list")
	assert.Contains(t, out, "SECURITY ID")
	assert.Equal(t, 4, strings.Count(out, "\n"))

	_, err := ws.run(t, "query", "minSize", "=", "1")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	ws := newWorkspace(t)
	ws.mustRun(t, "--capacity", "16", "put", "7", "--cusip", "A")

	out := ws.mustRun(t, "--capacity", "16", "stats")
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 1, stats["records"])
	assert.EqualValues(t, 16, stats["capacity"])
	assert.Equal(t, true, stats["mapped"])
}

func TestCheckpointRestore(t *testing.T) {
	ws := newWorkspace(t)
	ws.mustRun(t, "put", "1", "--cusip", "912828U40", "--enabled")

	out := ws.mustRun(t, "checkpoint")
	assert.Contains(t, out, "with 1 records")

	ws.mustRun(t, "delete", "1")
	ws.mustRun(t, "put", "2", "--cusip", "X")

	out = ws.mustRun(t, "checkpoint", "list", "-o", "json")
	var manifests []storage.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifests))
	require.Len(t, manifests, 1)

	ws.mustRun(t, "checkpoint", "restore", manifests[0].ID.String())
	out = ws.mustRun(t, "list", "-o", "json")
	var snaps []instrument.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, int32(1), snaps[0].ID)

	_, err := ws.run(t, "checkpoint", "restore", "bogus")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	src := newWorkspace(t)
	src.mustRun(t, "put", "1", "--security-id", "42", "--cusip", "912828U40", "--enabled")
	src.mustRun(t, "put", "2", "--security-id", "43", "--cusip", "912828U41")

	file := filepath.Join(t.TempDir(), "instruments.zst")
	out := src.mustRun(t, "export", file)
	assert.Contains(t, out, "Exported 2 instruments")

	dst := newWorkspace(t)
	out = dst.mustRun(t, "import", file)
	assert.Contains(t, out, "Imported 2 instruments")

	out = dst.mustRun(t, "get", "2", "-o", "json")
	var snap instrument.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, instrument.Snapshot{ID: 2, SecurityID: 43, Cusip: "912828U41"}, snap)

	_, err := dst.run(t, "import", filepath.Join(t.TempDir(), "missing.zst"))
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	ws := newWorkspace(t)

	out := ws.mustRun(t, "init", "--print-key")
	assert.Contains(t, out, "Configuration created")
	assert.Contains(t, out, "API Key: ")

	cfg, err := config.LoadConfig(ws.configPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Security.APIKey, 64)
	assert.Equal(t, ws.dataDir, cfg.DataDir)

	out = ws.mustRun(t, "init")
	assert.Contains(t, out, "already exists")

	ws.mustRun(t, "init", "--force")
	again, err := config.LoadConfig(ws.configPath)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Security.APIKey, again.Security.APIKey)
}

func TestServeRequiresAPIKey(t *testing.T) {
	ws := newWorkspace(t)
	_, err := ws.run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestServiceUnit(t *testing.T) {
	ws := newWorkspace(t)

	out := ws.mustRun(t, "service", "unit", "--user", "records")
	assert.Contains(t, out, "User=records")
	assert.Contains(t, out, "Group=records")
	assert.Contains(t, out, "serve --config "+ws.configPath)
	assert.Contains(t, out, "ReadWritePaths="+ws.dataDir)
}

func TestConfigFileValues(t *testing.T) {
	ws := newWorkspace(t)
	cfg := config.DefaultConfig()
	cfg.Store.Mmap = false
	cfg.Store.Capacity = 3
	require.NoError(t, config.SaveConfig(cfg, ws.configPath))

	ws.mustRun(t, "put", "1", "--cusip", "A")
	out := ws.mustRun(t, "stats")
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 3, stats["capacity"])
	assert.Equal(t, false, stats["mapped"])
	assert.EqualValues(t, 0, stats["records"], "heap slab does not outlive the command")
}
