// Package config loads the probing engine's configuration from a YAML file with environment
// variable overrides, applied load-then-override-then-validate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the global configuration for the probing engine.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler" json:"scheduler"`
	Hub       HubConfig       `yaml:"hub" json:"hub"`
	Postgres  PostgresConfig  `yaml:"postgres" json:"postgres"`
	Messaging MessagingConfig `yaml:"messaging" json:"messaging"`
	Consul    ConsulConfig    `yaml:"consul" json:"consul"`
	Logs      LogConfig       `yaml:"logs" json:"logs"`
}

type LogConfig struct {
	Level   string `yaml:"level" json:"level"`
	Console bool   `yaml:"console" json:"console"`
	File    string `yaml:"file" json:"file"`
}

type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

type DatabaseConfig struct {
	Path    string `yaml:"path" json:"path"`
	WALMode bool   `yaml:"wal_mode" json:"wal_mode"`
}

// SchedulerConfig controls the fixed-tick probe scheduler.
type SchedulerConfig struct {
	TickSec int `yaml:"tick_sec" json:"tick_sec"`
}

// HubConfig controls the broadcast hub's per-subscriber buffering.
type HubConfig struct {
	InboxCap int `yaml:"inbox_cap" json:"inbox_cap"`
}

// PostgresConfig carries connection parameters the postgres probe draws from process-wide
// configuration rather than the per-service ServiceSpec (the probe still supplies host/port).
type PostgresConfig struct {
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DB       string `yaml:"db" json:"db"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}

// MessagingConfig configures the optional AMQP transport adapter. Empty URL disables it.
type MessagingConfig struct {
	AMQPURL string `yaml:"amqp_url" json:"amqp_url"`
}

// ConsulConfig switches the ServiceSpec source from sqlite to a Consul service catalog.
type ConsulConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

var globalConfig *Config

// Load reads configuration from ./configs/<WEAVER_ENV>.yaml (default "development") and applies
// environment variable overrides per the external interface table.
func Load() (*Config, error) {
	environment := os.Getenv("WEAVER_ENV")
	if environment == "" {
		environment = "development"
	}

	configPath := fmt.Sprintf("./configs/%s.yaml", environment)

	config := defaultConfig()

	if fileExists(configPath) {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	overrideWithEnv(config)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration instance.
func Get() *Config {
	if globalConfig == nil {
		panic("configuration not loaded, call Load() first")
	}
	return globalConfig
}

func defaultConfig() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database:  DatabaseConfig{Path: "./weaver.db", WALMode: true},
		Scheduler: SchedulerConfig{TickSec: 5},
		Hub:       HubConfig{InboxCap: 100},
		Postgres:  PostgresConfig{User: "postgres", DB: "service_weaver", SSLMode: "disable"},
		Logs:      LogConfig{Level: "info", Console: true},
	}
}

// overrideWithEnv applies the probe-tuning environment variables named in the external
// interface table. Names intentionally have no shared prefix with each other; they match an
// existing deployment convention this engine slots into.
func overrideWithEnv(config *Config) {
	if val := os.Getenv("DB_USER"); val != "" {
		config.Postgres.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		config.Postgres.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		config.Postgres.DB = val
	}
	if val := os.Getenv("DB_SSLMODE"); val != "" {
		config.Postgres.SSLMode = val
	}
	if val := os.Getenv("SCHED_TICK_SEC"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Scheduler.TickSec = n
		}
	}
	if val := os.Getenv("HUB_INBOX_CAP"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			config.Hub.InboxCap = n
		}
	}

	if val := os.Getenv("WEAVER_SERVER_HOST"); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv("WEAVER_SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Server.Port = port
		}
	}
	if val := os.Getenv("WEAVER_DB_PATH"); val != "" {
		config.Database.Path = val
	}
	if val := os.Getenv("WEAVER_AMQP_URL"); val != "" {
		config.Messaging.AMQPURL = val
	}
	if val := os.Getenv("WEAVER_CONSUL_ENABLED"); val != "" {
		config.Consul.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("WEAVER_CONSUL_ADDR"); val != "" {
		config.Consul.Addr = val
	}
}

func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", config.Server.Port)
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if config.Scheduler.TickSec <= 0 {
		return fmt.Errorf("invalid scheduler.tick_sec: %d", config.Scheduler.TickSec)
	}
	if config.Hub.InboxCap <= 0 {
		return fmt.Errorf("invalid hub.inbox_cap: %d", config.Hub.InboxCap)
	}
	if config.Consul.Enabled && config.Consul.Addr == "" {
		return fmt.Errorf("consul.addr is required when consul.enabled is true")
	}
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
