package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {"port": 9090},
		"channels": [{"channel_id": 1, "enabled": true, "protocol_kind": "mock"}],
		"nodes": [{"global_id": 1, "channel_id": 1, "alias": "lamp"}],
		"scenes": []
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.WebServer.Port)
	assert.Len(t, cfg.Channels, 1)
	assert.Len(t, cfg.Nodes, 1)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadInvalidProtocolKindErrors(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {"port": 9090},
		"channels": [{"channel_id": 1, "enabled": true, "protocol_kind": "vendor_x"}],
		"nodes": [],
		"scenes": []
	}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDuplicateChannelIDErrors(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {"port": 9090},
		"channels": [
			{"channel_id": 1, "enabled": true, "protocol_kind": "mock"},
			{"channel_id": 1, "enabled": true, "protocol_kind": "mock"}
		],
		"nodes": [],
		"scenes": []
	}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDuplicateGlobalIDErrors(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {"port": 9090},
		"channels": [{"channel_id": 1, "enabled": true, "protocol_kind": "mock"}],
		"nodes": [
			{"global_id": 1, "channel_id": 1, "alias": "a"},
			{"global_id": 1, "channel_id": 1, "alias": "b"}
		],
		"scenes": []
	}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadNodeReferencingUnknownChannelErrors(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {"port": 9090},
		"channels": [],
		"nodes": [{"global_id": 1, "channel_id": 99, "alias": "a"}],
		"scenes": []
	}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingWebServerPortUsesDefault(t *testing.T) {
	path := writeConfig(t, `{
		"web_server": {},
		"channels": [],
		"nodes": [],
		"scenes": []
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultWebServerPort, cfg.WebServer.Port)
}
