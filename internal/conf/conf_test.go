package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VERIFY_TOKEN", "verify")
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("PHONE_NUMBER_ID", "12345")
	t.Setenv("ADMIN_PHONE", "+593911111111")
	t.Setenv("MESSAGES_CONFIG_PATH", "")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUDIT_DB_PATH", "")
	t.Setenv("MAX_SLOTS", "")
	t.Setenv("TZ", "")

	cfg := LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("Expected port 3000, got %s", cfg.Server.Port)
	}
	if cfg.Agent.Phone != "593911111111" {
		t.Errorf("Expected '+' stripped from admin phone, got %s", cfg.Agent.Phone)
	}
	if cfg.Handoff.MaxSlots != 20 || cfg.Handoff.MaxPending != 5 {
		t.Errorf("Unexpected handoff defaults: %+v", cfg.Handoff)
	}
	if filepath.Base(cfg.Audit.DBPath) != "audit.db" || !cfg.AuditEnabled() {
		t.Errorf("Expected default audit path, got %s", cfg.Audit.DBPath)
	}
	if cfg.ClassifierEnabled() {
		t.Error("Expected classifier disabled without API key")
	}
	if cfg.Location == nil {
		t.Error("Expected a display location")
	}

	hc := cfg.Handoff.ToHandoffConfig()
	if hc.ReminderAfter != 5*time.Minute || hc.AutoCloseAfter != 30*time.Minute {
		t.Errorf("Unexpected durations: %+v", hc)
	}
	if cfg.Handoff.SweepInterval() != time.Minute {
		t.Errorf("Expected 60s sweep, got %v", cfg.Handoff.SweepInterval())
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_SLOTS", "3")
	t.Setenv("REMINDER_MINUTES", "not-a-number")
	t.Setenv("AUDIT_DB_PATH", "OFF")
	t.Setenv("WHATSAPP_API_BASE_URL", "http://localhost:8080/")

	cfg := LoadFromEnv()

	if cfg.Handoff.MaxSlots != 3 {
		t.Errorf("Expected 3 slots, got %d", cfg.Handoff.MaxSlots)
	}
	if cfg.Handoff.ReminderMinutes != 5 {
		t.Errorf("Expected invalid value to keep default, got %d", cfg.Handoff.ReminderMinutes)
	}
	if cfg.AuditEnabled() {
		t.Error("Expected audit disabled")
	}
	if cfg.WhatsApp.BaseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.WhatsApp.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		field string
	}{
		{"missing verify token", "VERIFY_TOKEN", "VERIFY_TOKEN"},
		{"missing whatsapp token", "WHATSAPP_TOKEN", "WHATSAPP_TOKEN/PHONE_NUMBER_ID"},
		{"missing admin phone", "ADMIN_PHONE", "ADMIN_PHONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			err := LoadFromEnv().Validate()

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestLoadMessagesConfig_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	content := "customer:\n  fallback: \"No entiendo\"\nagent:\n  help: \"ayuda\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadMessagesConfig(path)
	if err != nil {
		t.Fatalf("LoadMessagesConfig failed: %v", err)
	}

	catalog := cfg.ToCatalog()
	if catalog.Fallback != "No entiendo" || catalog.AgentHelp != "ayuda" {
		t.Errorf("Expected overrides applied, got %q / %q", catalog.Fallback, catalog.AgentHelp)
	}
	if catalog.Menu != DefaultMessagesConfig().Customer.Menu {
		t.Error("Expected menu filled from defaults")
	}
	if cfg.LoadedFrom != path {
		t.Errorf("Expected LoadedFrom %s, got %s", path, cfg.LoadedFrom)
	}
}

func TestLoadMessagesConfig_Errors(t *testing.T) {
	if _, err := LoadMessagesConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for explicit missing path")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("customer: [unclosed"), 0o644)
	if _, err := LoadMessagesConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}
