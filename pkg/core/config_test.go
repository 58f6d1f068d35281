package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aria "github.com/simonL79/aria-ops-ai-sub007/pkg/core"
)

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name         string
		envVars      map[string]string
		wantProvider string
	}{
		{
			name:         "defaults to sqlite",
			envVars:      map[string]string{},
			wantProvider: "sqlite",
		},
		{
			name: "sqlite with explicit path",
			envVars: map[string]string{
				"DATABASE_PROVIDER": "sqlite",
				"SQLITE_PATH":       "./custom.db",
			},
			wantProvider: "sqlite",
		},
		{
			name: "postgres",
			envVars: map[string]string{
				"DATABASE_PROVIDER": "postgres",
				"POSTGRES_HOST":     "db.internal",
				"POSTGRES_PORT":     "5433",
			},
			wantProvider: "postgres",
		},
		{
			name: "mysql",
			envVars: map[string]string{
				"DATABASE_PROVIDER": "mysql",
				"MYSQL_DATABASE":    "aria_test",
			},
			wantProvider: "mysql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				_ = os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					_ = os.Unsetenv(k)
				}
			}()

			config, err := aria.LoadConfigFromEnv()
			require.NoError(t, err)
			require.NotNil(t, config)
			assert.Equal(t, tt.wantProvider, config.Store.Provider)
			assert.NoError(t, config.Validate())

			if path, ok := tt.envVars["SQLITE_PATH"]; ok {
				assert.Equal(t, path, config.Store.Config["db_path"])
			}
			if _, ok := tt.envVars["POSTGRES_PORT"]; ok {
				assert.Equal(t, 5433, config.Store.Config["port"])
			}
			if db, ok := tt.envVars["MYSQL_DATABASE"]; ok {
				assert.Equal(t, db, config.Store.Config["db_name"])
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := &aria.Config{Store: aria.StoreConfig{Provider: "sqlite"}}
	assert.NoError(t, valid.Validate())

	invalid := &aria.Config{Store: aria.StoreConfig{Provider: "cassandra"}}
	err := invalid.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, aria.ErrInvalidConfig)
}

func TestLoadConfigFromJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"store": {
			"provider": "sqlite",
			"config": {
				"db_path": "./json.db",
				"memory_table": "custom_memories"
			}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := aria.LoadConfigFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.Store.Provider)
	assert.Equal(t, "./json.db", config.Store.Config["db_path"])
	assert.Equal(t, "custom_memories", config.Store.Config["memory_table"])
}

func TestLoadConfigFromJSONMissingFile(t *testing.T) {
	_, err := aria.LoadConfigFromJSON("/nonexistent/config.json")
	assert.Error(t, err)
}
