package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("PROCESSING_BASE_URL", "")
	t.Setenv("PROCESSING_TIMEOUT_MS", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")
	t.Setenv("API_MAX_CONNS", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.ProcessingBaseURL != "http://localhost:3000/api" {
		t.Fatalf("expected default processing url, got %q", cfg.ProcessingBaseURL)
	}
	if cfg.ProcessingTimeoutMS != 60000 {
		t.Fatalf("expected default processing timeout 60000, got %d", cfg.ProcessingTimeoutMS)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected default rate limit 50, got %f", cfg.APIRateLimitRPS)
	}
	if cfg.APIMaxConns != 256 {
		t.Fatalf("expected default max conns 256, got %d", cfg.APIMaxConns)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("PROCESSING_TIMEOUT_MS", "15000")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "5")

	cfg := Load()
	if cfg.APIPort != "9000" {
		t.Fatalf("expected api port override, got %q", cfg.APIPort)
	}
	if cfg.ProcessingTimeoutMS != 15000 {
		t.Fatalf("expected timeout override, got %d", cfg.ProcessingTimeoutMS)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %f", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 5 {
		t.Fatalf("expected burst override, got %d", cfg.APIRateLimitBurst)
	}
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	t.Setenv("PROCESSING_TIMEOUT_MS", "not-a-number")

	cfg := Load()
	if cfg.ProcessingTimeoutMS != 60000 {
		t.Fatalf("expected fallback on bad number, got %d", cfg.ProcessingTimeoutMS)
	}
}

func TestLoadIntakeRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadIntakeRules("")
	if err != nil {
		t.Fatalf("LoadIntakeRules() error = %v", err)
	}
	if rules.MaxFilesPerBatch != 100 {
		t.Fatalf("expected default max files 100, got %d", rules.MaxFilesPerBatch)
	}
	if len(rules.AllowedExtensions) == 0 {
		t.Fatalf("expected default extensions")
	}
}

func TestLoadIntakeRulesMergesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "max_files_per_batch: 10\nallowed_extensions:\n  - .pdf\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadIntakeRules(path)
	if err != nil {
		t.Fatalf("LoadIntakeRules() error = %v", err)
	}
	if rules.MaxFilesPerBatch != 10 {
		t.Fatalf("expected max files override, got %d", rules.MaxFilesPerBatch)
	}
	if len(rules.AllowedExtensions) != 1 || rules.AllowedExtensions[0] != ".pdf" {
		t.Fatalf("expected extension override, got %v", rules.AllowedExtensions)
	}
	// Unset fields keep their defaults.
	if rules.MaxFileSizeBytes != 32<<20 {
		t.Fatalf("expected default size limit, got %d", rules.MaxFileSizeBytes)
	}
}

func TestLoadIntakeRulesMissingFile(t *testing.T) {
	_, err := LoadIntakeRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing rules file")
	}
}
