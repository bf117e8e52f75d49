package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stockwise/stockwise/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOCKWISE_CONFIG", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != config.DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Port, config.DefaultPort)
	}
	if cfg.Model() != config.DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", cfg.Model(), config.DefaultOpenAIModel)
	}
	if !cfg.EnableAuth {
		t.Error("auth should be enabled by default")
	}
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockwise.yaml")
	body := "port: 9001\nstore_driver: memory\nllm_provider: anthropic\nagent_timeout: 45\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKWISE_CONFIG", path)
	t.Setenv("STOCKWISE_PORT", "9100")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("env should override file port, got %d", cfg.Port)
	}
	if cfg.StoreDriver != "memory" {
		t.Errorf("store_driver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.Model() != config.DefaultAnthropicModel {
		t.Errorf("model = %q, want anthropic default", cfg.Model())
	}
	if cfg.AgentTimeoutDuration().Seconds() != 45 {
		t.Errorf("agent timeout = %v", cfg.AgentTimeoutDuration())
	}
}

func TestLoadJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockwise.json")
	if err := os.WriteFile(path, []byte(`{"api_prefix":"/v2","enable_auth":false}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKWISE_CONFIG", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPrefix != "/v2" || cfg.EnableAuth {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STOCKWISE_CONFIG", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := config.Load(); err == nil {
		t.Error("expected error for unknown store driver")
	}
}
