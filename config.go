package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "DLAP"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultMaxOpenConns = 10
	redactedValue       = "******"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string         `yaml:"git_commit" json:"git_commit" envconfig:"DLAP_GIT_COMMIT"`
	GitTag                  string         `yaml:"git_tag" json:"git_tag" envconfig:"DLAP_GIT_TAG"`
	BuildTime               string         `yaml:"build_time" json:"build_time" envconfig:"DLAP_BUILD_TIME"`
	IsProduction            bool           `yaml:"is_production" json:"is_production" envconfig:"DLAP_IS_PRODUCTION"`
	LogLevel                zapcore.Level  `yaml:"log_level" json:"log_level" envconfig:"DLAP_LOG_LEVEL"`
	LogFolder               string         `yaml:"log_folder" json:"log_folder" envconfig:"DLAP_LOG_FOLDER"`
	LogMaxSize              int            `yaml:"log_max_size" json:"log_max_size" envconfig:"DLAP_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool           `yaml:"ops_endpoints_enable" json:"ops_endpoints_enable" envconfig:"DLAP_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool           `yaml:"profiler_endpoints_enable" json:"profiler_endpoints_enable" envconfig:"DLAP_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig   `yaml:"server" json:"server"`
	Database                DatabaseConfig `yaml:"database" json:"database"`
	Redis                   RedisConfig    `yaml:"redis" json:"redis"`
	BoltDB                  BoltDBConfig   `yaml:"boltdb" json:"boltdb"`
	Events                  EventsConfig   `yaml:"events" json:"events"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" envconfig:"DLAP_SERVER_HOST"`
	Port            string        `yaml:"port" json:"port" envconfig:"DLAP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"DLAP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"DLAP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout" envconfig:"DLAP_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" envconfig:"DLAP_SERVER_SHUTDOWN_TIMEOUT"`
	CORSOrigin      string        `yaml:"cors_origin" json:"cors_origin" envconfig:"DLAP_SERVER_CORS_ORIGIN"`
}

// DatabaseConfig holds the relational store settings. There is
// no default credential: user and password must be provided.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" json:"driver" envconfig:"DLAP_DATABASE_DRIVER"`
	Host            string        `yaml:"host" json:"host" envconfig:"DLAP_DATABASE_HOST"`
	Port            string        `yaml:"port" json:"port" envconfig:"DLAP_DATABASE_PORT"`
	Username        string        `yaml:"username" json:"username" envconfig:"DLAP_DATABASE_USERNAME"`
	Password        string        `yaml:"password" json:"password" envconfig:"DLAP_DATABASE_PASSWORD"`
	Name            string        `yaml:"name" json:"name" envconfig:"DLAP_DATABASE_NAME"`
	Path            string        `yaml:"path" json:"path" envconfig:"DLAP_DATABASE_PATH"`
	DialTimeout     time.Duration `yaml:"dial_timeout" json:"dial_timeout" envconfig:"DLAP_DATABASE_DIAL_TIMEOUT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"DLAP_DATABASE_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"DLAP_DATABASE_WRITE_TIMEOUT"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" envconfig:"DLAP_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" envconfig:"DLAP_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" envconfig:"DLAP_DATABASE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" envconfig:"DLAP_DATABASE_CONN_MAX_IDLE_TIME"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" json:"host" envconfig:"DLAP_REDIS_HOST"`
	Port          string        `yaml:"port" json:"port" envconfig:"DLAP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" json:"dial_timeout" envconfig:"DLAP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" json:"read_timeout" envconfig:"DLAP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" json:"write_timeout" envconfig:"DLAP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" json:"pool_size" envconfig:"DLAP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" json:"pool_timeout" envconfig:"DLAP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" json:"username" envconfig:"DLAP_REDIS_USERNAME"`
	Password      string        `yaml:"password" json:"password" envconfig:"DLAP_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" json:"db_index" envconfig:"DLAP_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" json:"filepath" envconfig:"DLAP_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" envconfig:"DLAP_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" json:"bucket_name" envconfig:"DLAP_BOLTDB_BUCKET_NAME"`
}

// EventsConfig toggles the book change events trail.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" envconfig:"DLAP_EVENTS_ENABLED"`
	Queue   string `yaml:"queue" json:"queue" envconfig:"DLAP_EVENTS_QUEUE"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if err := validateDatabaseConfig(&config.Database); err != nil {
		return err
	}

	if config.Events.Enabled {
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port when events are enabled")
		}
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket when events are enabled")
		}
		if len(config.Events.Queue) == 0 {
			config.Events.Queue = DefaultEventsQueue
		}
	}

	if len(config.Server.CORSOrigin) == 0 {
		config.Server.CORSOrigin = "*"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 100
	}

	return nil
}

func validateDatabaseConfig(db *DatabaseConfig) error {
	switch db.Driver {
	case DriverMySQL:
		if len(db.Host) == 0 || len(db.Port) == 0 {
			return errors.New("make sure to set valid database address and port in configuration")
		}
		if len(db.Username) == 0 || len(db.Name) == 0 {
			return errors.New("make sure to set database username and name in configuration")
		}
	case DriverSQLite:
		if len(db.Path) == 0 {
			return errors.New("make sure to set the sqlite database path in configuration")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", db.Driver)
	}

	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = defaultMaxOpenConns
	}
	if db.MaxIdleConns <= 0 || db.MaxIdleConns > db.MaxOpenConns {
		db.MaxIdleConns = db.MaxOpenConns
	}
	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}

// Redacted returns a copy of the configuration safe to expose on ops endpoints.
func (c *Config) Redacted() Config {
	cp := *c
	if len(cp.Database.Password) != 0 {
		cp.Database.Password = redactedValue
	}
	if len(cp.Redis.Password) != 0 {
		cp.Redis.Password = redactedValue
	}
	return cp
}
