package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(64<<10), cfg.Server.MaxBodyBytes)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, DefaultDataDir, cfg.Datasets.Dir)
				assert.Equal(t, "evdash_session", cfg.Session.CookieName)
				assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
  read_timeout: 5s
datasets:
  dir: /srv/ev
session:
  ttl: 2h
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, "/srv/ev", cfg.Datasets.Dir)
				assert.Equal(t, DefaultSalesFile, cfg.Datasets.Sales)
				assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9090\nlogging:\n  level: warn\n",
			env: map[string]string{
				"EVDASH_SERVER_PORT":              "7070",
				"EVDASH_DATASETS_SALES":           "/tmp/sales.csv",
				"EVDASH_SECURITY_ALLOWED_ORIGINS": "http://a.test,http://b.test",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, "/tmp/sales.csv", cfg.Datasets.Sales)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"EVDASH_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "non positive body limit",
			env:     map[string]string{"EVDASH_SERVER_MAX_BODY_BYTES": "0"},
			wantErr: "max body bytes",
		},
		{
			name:    "invalid logging output",
			env:     map[string]string{"EVDASH_LOGGING_OUTPUT": "syslog"},
			wantErr: "invalid logging output",
		},
		{
			name:    "sample ratio out of range",
			file:    "telemetry:\n  sample_ratio: 2\n",
			wantErr: "sample ratio",
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: "failed to load config from file",
		},
		{
			name:    "non numeric env",
			env:     map[string]string{"EVDASH_SERVER_PORT": "eighty"},
			wantErr: "failed to load config from env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoggingFilePathDefaulted(t *testing.T) {
	t.Setenv("EVDASH_LOGGING_OUTPUT", "both")
	t.Setenv("EVDASH_LOGGING_FILE_PATH", "")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "logs/evdash.log", cfg.Logging.FilePath)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, ":8080", Default().Server.Addr())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}
