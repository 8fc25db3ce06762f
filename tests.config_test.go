package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const testConfigYAML = `
is_production: true
log_level: warn
log_folder: ./logs
ops_endpoints_enable: true
server:
  host: 127.0.0.1
  port: "8083"
  read_timeout: 5s
  request_timeout: 10s
database:
  driver: mysql
  host: localhost
  port: "3306"
  username: libros
  name: libros
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndInitConfigs(t *testing.T) {
	configFile := writeTestFile(t, "config.yml", testConfigYAML)

	t.Run("file values and defaults", func(t *testing.T) {
		config, err := LoadAndInitConfigs(configFile, filepath.Join(t.TempDir(), "missing.env"), "abc123", "", "2023-07-02")
		require.NoError(t, err)
		assert.True(t, config.IsProduction)
		assert.Equal(t, zapcore.WarnLevel, config.LogLevel)
		assert.Equal(t, "8083", config.Server.Port)
		assert.Equal(t, 5*time.Second, config.Server.ReadTimeout)
		assert.Equal(t, "*", config.Server.CORSOrigin)
		assert.Equal(t, 100, config.LogMaxSize)
		assert.Equal(t, defaultMaxOpenConns, config.Database.MaxOpenConns)
		assert.Equal(t, defaultMaxOpenConns, config.Database.MaxIdleConns)
		assert.Equal(t, "abc123", config.GitCommit)
		assert.Equal(t, "2023-07-02", config.BuildTime)
		assert.False(t, config.Events.Enabled)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("DLAP_SERVER_PORT", "9090")
		t.Setenv("DLAP_DATABASE_MAX_OPEN_CONNS", "25")
		config, err := LoadAndInitConfigs(configFile, filepath.Join(t.TempDir(), "missing.env"), "", "", "")
		require.NoError(t, err)
		assert.Equal(t, "9090", config.Server.Port)
		assert.Equal(t, 25, config.Database.MaxOpenConns)
	})

	t.Run("env file provides secrets", func(t *testing.T) {
		// registered for restore, then unset so the env file can set it.
		t.Setenv("DLAP_DATABASE_PASSWORD", "")
		require.NoError(t, os.Unsetenv("DLAP_DATABASE_PASSWORD"))
		envFile := writeTestFile(t, "config.env", "DLAP_DATABASE_PASSWORD=from-env-file\n")
		config, err := LoadAndInitConfigs(configFile, envFile, "", "", "")
		require.NoError(t, err)
		assert.Equal(t, "from-env-file", config.Database.Password)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := LoadAndInitConfigs(filepath.Join(t.TempDir(), "none.yml"), "", "", "", "")
		assert.Error(t, err)
	})
}

func TestInitConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "localhost", Port: "8083"},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "./libros.db"},
		}
	}

	t.Run("sqlite driver", func(t *testing.T) {
		assert.NoError(t, InitConfig(valid(), "", "", ""))
	})

	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing server port", func(c *Config) { c.Server.Port = "" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"mysql without credentials", func(c *Config) {
			c.Database = DatabaseConfig{Driver: DriverMySQL, Host: "localhost", Port: "3306"}
		}},
		{"events without redis", func(c *Config) {
			c.Events.Enabled = true
			c.BoltDB = BoltDBConfig{FilePath: "./events.db", BucketName: "events"}
		}},
		{"events without boltdb", func(c *Config) {
			c.Events.Enabled = true
			c.Redis = RedisConfig{Host: "localhost", Port: "6379"}
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid()
			tc.mutate(config)
			assert.Error(t, InitConfig(config, "", "", ""))
		})
	}

	t.Run("events default queue", func(t *testing.T) {
		config := valid()
		config.Events.Enabled = true
		config.Redis = RedisConfig{Host: "localhost", Port: "6379"}
		config.BoltDB = BoltDBConfig{FilePath: "./events.db", BucketName: "events"}
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, DefaultEventsQueue, config.Events.Queue)
	})

	t.Run("idle connections bounded by open connections", func(t *testing.T) {
		config := valid()
		config.Database.MaxOpenConns = 4
		config.Database.MaxIdleConns = 8
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, 4, config.Database.MaxIdleConns)
	})
}

func TestConfigRedacted(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{Password: "s3cr3t"},
		Redis:    RedisConfig{},
	}
	redacted := config.Redacted()
	assert.Equal(t, redactedValue, redacted.Database.Password)
	assert.Empty(t, redacted.Redis.Password)
	assert.Equal(t, "s3cr3t", config.Database.Password)
}
