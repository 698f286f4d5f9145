package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"opsdeck/internal/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".", cfg.ServerRoot)
	assert.Equal(t, contract.DefaultContract(), cfg.ContractSpec())
	assert.Equal(t, 720*time.Hour, cfg.GetRetention())
	assert.Equal(t, 300*time.Millisecond, cfg.GetDebounce())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("OPSDECK_SERVER_ROOT", "")
	t.Setenv("OPSDECK_DB", "")
	t.Setenv("OPSDECK_LOG_LEVEL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("OPSDECK_SERVER_ROOT", "")
	t.Setenv("OPSDECK_DB", "")

	path := filepath.Join(t.TempDir(), ".opsdeck", "config.yaml")

	cfg := DefaultConfig()
	cfg.ServerRoot = "services/server"
	cfg.Contract.Manifest = "package.yaml"
	cfg.Watch.Debounce = "1s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "services/server", loaded.ServerRoot)
	assert.Equal(t, "package.yaml", loaded.ContractSpec().Manifest)
	assert.Equal(t, time.Second, loaded.GetDebounce())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  debounce: 50ms\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.GetDebounce())
	assert.Equal(t, contract.DefaultScripts, cfg.Contract.Scripts)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":         "contract: [",
		"bad duration":     "history:\n  retention: forever\n",
		"absolute path":    "contract:\n  api_entrypoint: /srv/api.js\n",
		"duplicate script": "contract:\n  scripts: [\"dev:api\", \"dev:api\"]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoggingConfig_SettingsFollowEnvLevel(t *testing.T) {
	t.Setenv("OPSDECK_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  debug_mode: true\n  level: warn\n  categories:\n    store: false\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	settings := cfg.Logging.Settings()
	assert.True(t, settings.DebugMode)
	assert.Equal(t, "debug", settings.Level)
	assert.Equal(t, map[string]bool{"store": false}, settings.Categories)
}
