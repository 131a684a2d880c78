package core

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_GOAL_MODEL",
		"AI_TIMEOUT_SECONDS", "MAX_CONCURRENT", "CLASSIFY_PAGES",
		"REFERENCE_FILE", "LOG_FILE", "DEV_MODE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.GoalModel != "gpt-4o" {
		t.Errorf("GoalModel = %q, want gpt-4o", cfg.GoalModel)
	}
	if cfg.AITimeout != 60*time.Second {
		t.Errorf("AITimeout = %v, want 60s", cfg.AITimeout)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.MaxConcurrent)
	}
	if cfg.ClassifyPages != 2 {
		t.Errorf("ClassifyPages = %d, want 2", cfg.ClassifyPages)
	}
	if cfg.LogFilePath != "noteaudit.log" {
		t.Errorf("LogFilePath = %q, want noteaudit.log", cfg.LogFilePath)
	}
	if cfg.DevMode {
		t.Error("DevMode = true, want false")
	}
}

func TestLoadConfigClampsWorkerCount(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("CLASSIFY_PAGES", "-1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", cfg.MaxConcurrent)
	}
	if cfg.ClassifyPages != 1 {
		t.Errorf("ClassifyPages = %d, want 1", cfg.ClassifyPages)
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue int
		want         int
	}{
		{"unset uses default", "", 7, 7},
		{"valid integer", "12", 7, 12},
		{"negative integer", "-3", 7, -3},
		{"garbage uses default", "twelve", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_VAR", tt.value)
			if got := ParseIntEnv("TEST_INT_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("ParseIntEnv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"yes", "yes", false, true},
		{"on", "on", false, true},
		{"one", "1", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"mixed case", "TRUE", false, true},
		{"whitespace", " true ", false, true},
		{"garbage uses default", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.value)
			if got := ParseBoolEnv("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION_VAR", "30")
	if got := ParseDurationEnv("TEST_DURATION_VAR", 60); got != 30*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want 30s", got)
	}

	t.Setenv("TEST_DURATION_VAR", "")
	if got := ParseDurationEnv("TEST_DURATION_VAR", 60); got != 60*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want 60s", got)
	}
}
