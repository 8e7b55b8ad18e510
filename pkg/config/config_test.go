package config

import (
	"os"
	"path/filepath"
	"testing"
)

func createTestConfig(t *testing.T) string {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}

	configsDir := filepath.Join(tmpDir, "configs")
	err = os.MkdirAll(configsDir, 0755)
	if err != nil {
		t.Fatalf("Failed to create configs directory: %v", err)
	}

	configContent := `
server:
  host: "0.0.0.0"
  port: 8080

database:
  path: "./weaver.db"
  wal_mode: true

scheduler:
  tick_sec: 5

hub:
  inbox_cap: 100

postgres:
  user: "postgres"
  db: "service_weaver"
  sslmode: "disable"
`

	configFile := filepath.Join(configsDir, "development.yaml")
	err = os.WriteFile(configFile, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	return tmpDir
}

func TestLoad(t *testing.T) {
	tmpDir := createTestConfig(t)
	defer os.RemoveAll(tmpDir)

	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	globalConfig = nil

	config, err := Load()
	if err != nil {
		t.Errorf("Failed to load configuration: %v", err)
	}
	if config == nil {
		t.Fatal("Configuration should not be nil")
	}
	if config.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", config.Server.Port)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-nofile-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	globalConfig = nil

	config, err := Load()
	if err != nil {
		t.Errorf("Load should succeed with defaults when no file exists: %v", err)
	}
	if config.Scheduler.TickSec != 5 {
		t.Errorf("Expected default scheduler.tick_sec 5, got %d", config.Scheduler.TickSec)
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	tmpDir := createTestConfig(t)
	defer os.RemoveAll(tmpDir)

	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	globalConfig = nil

	os.Setenv("DB_USER", "probe_user")
	os.Setenv("DB_PASSWORD", "s3cret")
	os.Setenv("DB_NAME", "probes")
	os.Setenv("DB_SSLMODE", "require")
	os.Setenv("SCHED_TICK_SEC", "10")
	os.Setenv("HUB_INBOX_CAP", "250")
	defer func() {
		os.Unsetenv("DB_USER")
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("DB_SSLMODE")
		os.Unsetenv("SCHED_TICK_SEC")
		os.Unsetenv("HUB_INBOX_CAP")
	}()

	config, err := Load()
	if err != nil {
		t.Errorf("Failed to load configuration: %v", err)
	}

	if config.Postgres.User != "probe_user" {
		t.Errorf("Expected postgres user 'probe_user' from environment, got '%s'", config.Postgres.User)
	}
	if config.Postgres.Password != "s3cret" {
		t.Errorf("Expected postgres password override, got '%s'", config.Postgres.Password)
	}
	if config.Postgres.DB != "probes" {
		t.Errorf("Expected postgres db 'probes', got '%s'", config.Postgres.DB)
	}
	if config.Postgres.SSLMode != "require" {
		t.Errorf("Expected postgres sslmode 'require', got '%s'", config.Postgres.SSLMode)
	}
	if config.Scheduler.TickSec != 10 {
		t.Errorf("Expected scheduler.tick_sec 10 from environment, got %d", config.Scheduler.TickSec)
	}
	if config.Hub.InboxCap != 250 {
		t.Errorf("Expected hub.inbox_cap 250 from environment, got %d", config.Hub.InboxCap)
	}
}

func TestValidateConfiguration(t *testing.T) {
	config := defaultConfig()

	if err := validate(config); err != nil {
		t.Errorf("Valid configuration should pass validation: %v", err)
	}
}

func TestValidateInvalidConfiguration(t *testing.T) {
	config := defaultConfig()
	config.Server.Port = 0

	if err := validate(config); err == nil {
		t.Error("Invalid configuration should fail validation")
	}
}

func TestValidate_ConsulEnabledRequiresAddr(t *testing.T) {
	config := defaultConfig()
	config.Consul.Enabled = true
	config.Consul.Addr = ""

	if err := validate(config); err == nil {
		t.Error("consul.enabled without consul.addr should fail validation")
	}
}

func TestFileExists(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-*")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	if !fileExists(tmpFile.Name()) {
		t.Error("fileExists should return true for existing file")
	}
	if fileExists("/non/existing/file") {
		t.Error("fileExists should return false for non-existing file")
	}
}

func TestGet(t *testing.T) {
	globalConfig = nil

	defer func() {
		if r := recover(); r == nil {
			t.Error("Get() should panic when config not loaded")
		}
	}()

	Get()
}

func TestGetAfterLoad(t *testing.T) {
	tmpDir := createTestConfig(t)
	defer os.RemoveAll(tmpDir)

	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	globalConfig = nil

	config1, err := Load()
	if err != nil {
		t.Errorf("Failed to load configuration: %v", err)
	}

	config2 := Get()
	if config1 != config2 {
		t.Error("Get() should return the same instance as Load()")
	}
}
