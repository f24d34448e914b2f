package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDaemonConfig_MissingFileReturnsZeroValue(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)

	cfg, err := dir.ReadDaemonConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg)
}

func TestReadDaemonConfig_ParsesOverlay(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)

	yaml := "socket: \"127.0.0.1:5300\"\nforward: \"1.1.1.1:53\"\nthreads: 8\nno_cache: true\n"
	require.NoError(t, os.WriteFile(dir.DaemonConfigPath(), []byte(yaml), 0o600))

	cfg, err := dir.ReadDaemonConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5300", cfg.Socket)
	assert.Equal(t, "1.1.1.1:53", cfg.Forward)
	assert.Equal(t, 8, cfg.Threads)
	assert.True(t, cfg.NoCache)
}

func TestReadDaemonConfig_RejectsMalformedYAML(t *testing.T) {
	dir, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir.DaemonConfigPath(), []byte("not: [valid"), 0o600))

	_, err = dir.ReadDaemonConfig()
	assert.Error(t, err)
}
