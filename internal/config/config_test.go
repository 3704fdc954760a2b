package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, "", cfg.ListenAddress)
	assert.Equal(t, 37778, cfg.Port)
	assert.Equal(t, 90.0, cfg.AlertThresholdPercent)
	assert.Equal(t, 6*time.Second, cfg.SampleInterval)
	assert.Equal(t, 3*time.Second, cfg.PushInterval)
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout)
	assert.Equal(t, SourceStatFile, cfg.CounterSource)
	assert.Equal(t, "/proc/stat", cfg.StatPath)
	assert.Equal(t, "", cfg.ListenHostPort())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HEALTHD_LISTEN", "127.0.0.1")
	t.Setenv("HEALTHD_PORT", "4000")
	t.Setenv("HEALTHD_SAMPLE_INTERVAL", "2s")
	t.Setenv("HEALTHD_IDLE_TIMEOUT", "1m")
	t.Setenv("HEALTHD_SOURCE", "procfs")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:4000", cfg.ListenHostPort())
	assert.Equal(t, 2*time.Second, cfg.SampleInterval)
	assert.Equal(t, time.Minute, cfg.IdleTimeout)
	assert.Equal(t, SourceProcFS, cfg.CounterSource)
}

func TestLoadIgnoresUnparsableEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HEALTHD_PORT", "not-a-port")
	t.Setenv("HEALTHD_PUSH_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 37778, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.PushInterval)
}

func TestParseFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Load()

	var out bytes.Buffer
	err := cfg.ParseFlags("healthd", []string{"-L", "0.0.0.0", "--port", "9000", "-r", "10.0.0.5", "-t", "75"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ListenHostPort())
	assert.Equal(t, "10.0.0.5", cfg.RemoteNotifyAddress)
	assert.Equal(t, 75.0, cfg.AlertThresholdPercent)
	assert.False(t, cfg.Help)
	require.NoError(t, cfg.Validate())
}

func TestParseFlagsHelp(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Load()

	var out bytes.Buffer
	require.NoError(t, cfg.ParseFlags("healthd", []string{"-h"}, &out))

	assert.True(t, cfg.Help)
	assert.Contains(t, out.String(), "Usage: healthd [OPTIONS]")
	assert.Contains(t, out.String(), "IP to listen on")
}

func TestParseFlagsUnknown(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Load()

	var out bytes.Buffer
	assert.Error(t, cfg.ParseFlags("healthd", []string{"--bogus"}, &out))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                  37778,
			AlertThresholdPercent: 90,
			SampleInterval:        time.Second,
			PushInterval:          time.Second,
			WriteTimeout:          time.Second,
			CounterSource:         SourceStatFile,
			StatPath:              "/proc/stat",
			ProcMount:             "/proc",
			LogLevel:              "info",
			LogFormat:             "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "remote host", mutate: func(c *Config) { c.RemoteNotifyAddress = "monitor.internal" }},
		{name: "remote host port", mutate: func(c *Config) { c.RemoteNotifyAddress = "10.0.0.1:9999" }},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: "Port"},
		{name: "port too big", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "Port"},
		{name: "threshold", mutate: func(c *Config) { c.AlertThresholdPercent = 101 }, wantErr: "AlertThresholdPercent"},
		{name: "sample interval", mutate: func(c *Config) { c.SampleInterval = 0 }, wantErr: "SampleInterval"},
		{name: "source", mutate: func(c *Config) { c.CounterSource = "wmi" }, wantErr: "CounterSource"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LogLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
