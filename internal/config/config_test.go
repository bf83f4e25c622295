package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBPath != "sgtaxbot.db" {
		t.Errorf("DBPath default = %q", cfg.DBPath)
	}
	if cfg.CacheDir != ".cache" {
		t.Errorf("CacheDir default = %q", cfg.CacheDir)
	}
	if cfg.Portal.CropWidth != 380 || cfg.Portal.CropHeight != 100 {
		t.Errorf("crop region default = %dx%d", cfg.Portal.CropWidth, cfg.Portal.CropHeight)
	}
	if cfg.Portal.AssetPollTries != 5 || cfg.Portal.AssetPollEvery != time.Second {
		t.Errorf("asset poll defaults = %d x %v", cfg.Portal.AssetPollTries, cfg.Portal.AssetPollEvery)
	}
	if cfg.Portal.MaxRuntime != 5*time.Minute {
		t.Errorf("MaxRuntime default = %v", cfg.Portal.MaxRuntime)
	}
	if cfg.SweepMaxPages != 20 {
		t.Errorf("SweepMaxPages default = %d", cfg.SweepMaxPages)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "noisy")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL")
	}
}

func TestLoad_WarningNormalizedToWarn(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warn", cfg.LogLevel)
	}
}

func TestRequireBotCredentials(t *testing.T) {
	cfg := Config{}
	if err := cfg.RequireBotCredentials(); err == nil {
		t.Fatal("expected error when all credentials missing")
	}

	cfg = Config{TelegramToken: "t", CaptchaKey: "c", SerpAPIKey: "s"}
	if err := cfg.RequireBotCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetDur_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("PORTAL_SETTLE_DELAY", "not-a-duration")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Portal.SettleDelay != 1250*time.Millisecond {
		t.Errorf("SettleDelay = %v; want default", cfg.Portal.SettleDelay)
	}
}
