package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{PipelinePath: "p.hcl"})
	require.NoError(t, err)

	require.Equal(t, "p.hcl", cfg.PipelinePath)
	require.Equal(t, 4, cfg.WorkerCount)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 0, cfg.HealthcheckPort)
}

func TestNewConfig_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{
		PipelinePath:    "dir",
		WorkerCount:     16,
		LogFormat:       "json",
		LogLevel:        "debug",
		HealthcheckPort: 8090,
	})
	require.NoError(t, err)

	require.Equal(t, 16, cfg.WorkerCount)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 8090, cfg.HealthcheckPort)
}

func TestNewConfig_RequiresPipelinePath(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.ErrorContains(t, err, "PipelinePath")
}
