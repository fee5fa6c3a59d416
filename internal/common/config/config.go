package config

import (
	"time"
)

type (
	// APIServerConfig is the root configuration for the backmeup apiserver.
	APIServerConfig struct {
		Port       int              `yaml:"port"`
		Database   DatabaseConfig   `yaml:"database"`
		Backup     BackupConfig     `yaml:"backup"`
		Logger     LoggerConfig     `yaml:"logger"`
		JWT        JWTConfig        `yaml:"jwt"`
		Metrics    MetricsConfig    `yaml:"metrics"`
		Tracing    TracingConfig    `yaml:"tracing"`
		TokenStore TokenStoreConfig `yaml:"token_store"`
		PID        string           `yaml:"pid"` // optional PID file path
	}

	// DatabaseConfig describes the system store connection. Type selects the
	// backend for the users/permissions schema; the managed MySQL server is
	// always addressed by host/port/user/password.
	DatabaseConfig struct {
		Type     string `yaml:"type"` // mysql, postgres, sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
	}

	// BackupConfig describes backup artifact handling and the external
	// dump/load binaries.
	BackupConfig struct {
		Dir           string        `yaml:"dir"`
		MysqldumpPath string        `yaml:"mysqldump_path"`
		MysqlPath     string        `yaml:"mysql_path"`
		Detection     string        `yaml:"detection"`     // poll or watch
		PollInterval  time.Duration `yaml:"poll_interval"` // default 5s
		ExecTimeout   time.Duration `yaml:"exec_timeout"`  // bound on dump/load processes
		Compress      bool          `yaml:"compress"`      // gzip dump output (.sql.gz)
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress rotated log files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps
		TimeFormat string `yaml:"time_format"` // time format for log timestamps
	}

	// JWTConfig represents the JWT signing configuration.
	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// MetricsConfig controls the prometheus registry.
	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	// TracingConfig controls OTLP trace export.
	TracingConfig struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		Endpoint    string  `yaml:"endpoint"` // e.g. localhost:4317 or http://localhost:4318
		Protocol    string  `yaml:"protocol"` // grpc or http
		Insecure    bool    `yaml:"insecure"`
		SamplerRate float64 `yaml:"sampler_rate"` // 0.0~1.0
		Environment string  `yaml:"environment"`
	}

	// TokenStoreConfig selects the revoked-token store backend.
	TokenStoreConfig struct {
		Type  string                `yaml:"type"` // memory or redis
		Redis TokenStoreRedisConfig `yaml:"redis"`
	}

	// TokenStoreRedisConfig is the Redis configuration for the token store.
	TokenStoreRedisConfig struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	}
)

// SetDefaults fills zero-valued fields with sane defaults.
func (c *APIServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 5335
	}
	if c.Database.Type == "" {
		c.Database.Type = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.DBName == "" {
		c.Database.DBName = "backmeup_system"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "./backups"
	}
	if c.Backup.MysqldumpPath == "" {
		c.Backup.MysqldumpPath = "mysqldump"
	}
	if c.Backup.MysqlPath == "" {
		c.Backup.MysqlPath = "mysql"
	}
	if c.Backup.Detection == "" {
		c.Backup.Detection = "poll"
	}
	if c.Backup.PollInterval <= 0 {
		c.Backup.PollInterval = 5 * time.Second
	}
	if c.Backup.ExecTimeout <= 0 {
		c.Backup.ExecTimeout = 30 * time.Minute
	}
	if c.TokenStore.Type == "" {
		c.TokenStore.Type = "memory"
	}
}
