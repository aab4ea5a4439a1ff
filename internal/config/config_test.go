package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no config.json is picked up
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != DefaultAPIPort {
		t.Errorf("APIPort = %q", cfg.APIPort)
	}
	if cfg.CheckIntervalMinutes != DefaultCheckIntervalMinutes {
		t.Errorf("CheckIntervalMinutes = %d", cfg.CheckIntervalMinutes)
	}
	if cfg.LookbackDays != DefaultLookbackDays {
		t.Errorf("LookbackDays = %d", cfg.LookbackDays)
	}
	if cfg.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d", cfg.RetentionDays)
	}
	if cfg.AIProvider != DefaultAIProvider {
		t.Errorf("AIProvider = %q", cfg.AIProvider)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	fileContent := `{"api_port": "9000", "lookback_days": 7, "ai_provider": "openai"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(fileContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("JOB_PARSER_API_PORT", "9100")
	t.Setenv("JOB_PARSER_CHECK_INTERVAL_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Env beats file
	if cfg.APIPort != "9100" {
		t.Errorf("APIPort = %q, want env override", cfg.APIPort)
	}
	// File beats default
	if cfg.LookbackDays != 7 {
		t.Errorf("LookbackDays = %d, want file value", cfg.LookbackDays)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("AIProvider = %q, want file value", cfg.AIProvider)
	}
	// Env with no file value beats default
	if cfg.CheckIntervalMinutes != 5 {
		t.Errorf("CheckIntervalMinutes = %d, want env value", cfg.CheckIntervalMinutes)
	}
}

func TestLoadIgnoresMalformedEnvInt(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JOB_PARSER_RETENTION_DAYS", "ninety")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d, want default kept", cfg.RetentionDays)
	}
}
