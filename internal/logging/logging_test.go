package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad level", func(c *Config) { c.Level = "loud" }, "invalid level"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "invalid format"},
		{"no outputs", func(c *Config) { c.OutputPaths = nil }, "output path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	cfg := NewDefaultConfig()
	logger, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg.Format = "console"
	cfg.Level = "debug"
	logger, err = New(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1)) // debug enabled
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = "shouting"
	_, err := New(cfg)
	assert.Error(t, err)
}
