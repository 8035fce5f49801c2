package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "config", "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return path
}

const validYAML = `
http:
  port: 8080
vault:
  secret: test-secret
identity:
  id: identity
  host: localhost
  port: 6379
corpora:
  - id: corpus-a
    host: localhost
    port: 6380
    database: leaks2019
    enabled: true
billing:
  enabled: true
  cost_per_search: 2
`

func TestLoad_Valid(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTP.Port)
	}
	if len(cfg.Corpora) != 1 || cfg.Corpora[0].ID != "corpus-a" {
		t.Fatalf("unexpected corpora: %+v", cfg.Corpora)
	}
	if cfg.Billing.CostPerSearch != 2 {
		t.Errorf("cost = %d, want 2", cfg.Billing.CostPerSearch)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("read timeout = %d, want 10", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Corpora[0].TimeoutSec != 30 {
		t.Errorf("corpus timeout = %d, want 30", cfg.Corpora[0].TimeoutSec)
	}
	if cfg.Corpora[0].Name != "corpus-a" {
		t.Errorf("corpus name = %q, want id fallback", cfg.Corpora[0].Name)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_VAULT_SECRET", "from-env")
	writeConfig(t, `
http:
  port: 8080
vault:
  secret: ${TEST_VAULT_SECRET}
identity:
  host: ${TEST_IDENTITY_HOST:-localhost}
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Secret != "from-env" {
		t.Errorf("secret = %q, want from-env", cfg.Vault.Secret)
	}
	if cfg.Identity.Host != "localhost" {
		t.Errorf("host = %q, want default localhost", cfg.Identity.Host)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() Config {
		return Config{
			HTTP:     HTTPConfig{Port: 8080},
			Vault:    VaultConfig{Secret: "s"},
			Identity: ConnectionConfig{Host: "localhost"},
		}
	}

	t.Run("missing vault secret", func(t *testing.T) {
		cfg := base()
		cfg.Vault.Secret = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("duplicate corpus id", func(t *testing.T) {
		cfg := base()
		cfg.Corpora = []ConnectionConfig{
			{ID: "a", Host: "h", Database: "d"},
			{ID: "a", Host: "h", Database: "d"},
		}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("corpus without database", func(t *testing.T) {
		cfg := base()
		cfg.Corpora = []ConnectionConfig{{ID: "a", Host: "h"}}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error")
		}
	})
}
