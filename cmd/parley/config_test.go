package main

import (
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/config"
)

func TestGetConfigValue(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.Model = "claude-sonnet-4-20250514"

	got, err := getConfigValue(cfg, "anthropic.model")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if got != "claude-sonnet-4-20250514" {
		t.Errorf("anthropic.model = %q", got)
	}

	if _, err := getConfigValue(cfg, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetConfigValueMasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if got == cfg.Anthropic.APIKey {
		t.Error("API key should be masked in display output")
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "agents.planner", "TaskPlannerAgent"); err != nil {
		t.Fatalf("setConfigValue: %v", err)
	}
	if cfg.Agents.Planner != "TaskPlannerAgent" {
		t.Errorf("planner = %q", cfg.Agents.Planner)
	}

	if err := setConfigValue(cfg, "tui.refresh_rate", "250ms"); err != nil {
		t.Fatalf("setConfigValue: %v", err)
	}
	if cfg.TUI.RefreshRate != 250*time.Millisecond {
		t.Errorf("refresh_rate = %s", cfg.TUI.RefreshRate)
	}

	if err := setConfigValue(cfg, "tui.refresh_rate", "bogus"); err == nil {
		t.Error("expected error for invalid duration")
	}
	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}
