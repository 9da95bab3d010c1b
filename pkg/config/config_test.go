package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/silversixpence-crypto/dapol/pkg/dapol"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_InlineSecret(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entities.csv", "entity_id,liability\nalice,100\n")
	cfgPath := writeFile(t, dir, "config.toml", `
accumulator_type = "ndm-smt"
max_liability = 1000000
height = 32
max_thread_count = 4

[entities]
file_path = "entities.csv"

[secrets]
master_secret = "hunter2"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	secret, err := cfg.ResolveMasterSecret()
	if err != nil {
		t.Fatalf("ResolveMasterSecret: %v", err)
	}
	if secret != "hunter2" {
		t.Fatalf("master secret = %q, want hunter2", secret)
	}

	resolved := cfg.Resolve(cfg.Entities.FilePath)
	if resolved != filepath.Join(dir, "entities.csv") {
		t.Fatalf("Resolve = %q, want %q", resolved, filepath.Join(dir, "entities.csv"))
	}

	accType, err := cfg.AccumulatorTypeValue()
	if err != nil {
		t.Fatalf("AccumulatorTypeValue: %v", err)
	}
	if accType != dapol.NDMSMT {
		t.Fatalf("accumulator type = %q, want %q", accType, dapol.NDMSMT)
	}
}

func TestLoad_SecretsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "secrets.toml", `master_secret = "from-file"`)
	cfgPath := writeFile(t, dir, "config.toml", `
height = 32
max_liability = 500

[entities]
num_random_entities = 10

[secrets]
file_path = "secrets.toml"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	secret, err := cfg.ResolveMasterSecret()
	if err != nil {
		t.Fatalf("ResolveMasterSecret: %v", err)
	}
	if secret != "from-file" {
		t.Fatalf("master secret = %q, want from-file", secret)
	}
}

func TestLoad_RejectsAmbiguousEntitiesSection(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.toml", `
height = 32
max_liability = 500

[entities]
file_path = "x.csv"
num_random_entities = 10

[secrets]
master_secret = "s"
`)

	if _, err := Load(cfgPath); err != ErrBothEntitiesSet {
		t.Fatalf("expected ErrBothEntitiesSet, got %v", err)
	}
}

func TestLoad_RejectsMissingSecrets(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.toml", `
height = 32
max_liability = 500

[entities]
num_random_entities = 10
`)

	if _, err := Load(cfgPath); err != ErrNoSecretsSource {
		t.Fatalf("expected ErrNoSecretsSource, got %v", err)
	}
}
