package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	config "github.com/berth-automation/berth/config"
)

func TestConfigInit(t *testing.T) {
	testCases := []struct {
		name      string
		existing  bool
		overwrite bool
		wantErr   bool
	}{
		{
			name: "successful config initialization",
		},
		{
			name:      "config initialization with overwrite",
			existing:  true,
			overwrite: true,
		},
		{
			name:     "existing file without overwrite",
			existing: true,
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".berth", "config.yaml")
			if tc.existing {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte("gate:\n  max_attempts: 3\n"), 0644))
			}

			var out bytes.Buffer
			err := initConfigFile(&out, path, tc.overwrite)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "already exists")
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out.String(), "Successfully created")

			cfg, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, config.DefaultConfig().Gate, cfg.Gate)
		})
	}
}

func TestConfigShow(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConfig(&out, cfg, "yaml"))
		assert.Contains(t, out.String(), "max_attempts: 10")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, showConfig(&out, cfg, "json"))
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Contains(t, decoded, "Gate")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, showConfig(&bytes.Buffer{}, cfg, "toml"))
	})
}
