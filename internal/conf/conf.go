package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

// AuditDisabled turns the sqlite audit log off when used as AUDIT_DB_PATH
const AuditDisabled = "off"

// Config represents application configuration
type Config struct {
	// Runtime environment (dev/prod)
	Env string

	// HTTP listeners
	Server ServerConfig

	// WhatsApp Cloud API configuration
	WhatsApp WhatsAppConfig

	// Agent (admin) configuration
	Agent AgentConfig

	// Product documents
	Documents DocumentsConfig

	// Handoff configuration
	Handoff HandoffConfig

	// Audit log configuration
	Audit AuditConfig

	// Intent classifier configuration (optional)
	Classifier ClassifierConfig

	// Canned texts (loaded from YAML)
	Messages *MessagesConfig

	// Display time zone
	Location *time.Location
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	Port        string
	APIAddr     string
	VerifyToken string
	DedupTTL    time.Duration
}

// WhatsAppConfig contains Graph API configuration
type WhatsAppConfig struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
	SendRPS       int
}

// AgentConfig contains the human agent's identity and notification fallback
type AgentConfig struct {
	Phone        string
	TemplateName string // Empty disables the template fallback
	TemplateLang string
}

// DocumentsConfig contains document links
type DocumentsConfig struct {
	KhumicLink  string
	SeaweedLink string
}

// HandoffConfig contains handoff timing and capacity
type HandoffConfig struct {
	MaxSlots         int
	MaxPending       int
	ReminderMinutes  int
	AutoCloseMinutes int
	SweepSeconds     int
}

// AuditConfig contains audit log configuration
type AuditConfig struct {
	DBPath string
}

// ClassifierConfig contains the OpenAI-compatible classifier configuration
type ClassifierConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Audit DB path
	auditDBPath := os.Getenv("AUDIT_DB_PATH")
	if auditDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		auditDBPath = filepath.Join(homeDir, ".procampo-bot", "audit.db")
	}

	// Display time zone
	tz := envOr("TZ", "America/Guayaquil")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	// Load canned texts from YAML
	messagesConfig, err := LoadMessagesConfig(os.Getenv("MESSAGES_CONFIG_PATH"))
	if err != nil {
		messagesConfig = DefaultMessagesConfig()
	}

	return &Config{
		Env: envOr("APP_ENV", "dev"),
		Server: ServerConfig{
			Port:        envOr("PORT", "3000"),
			APIAddr:     envOr("API_ADDR", "127.0.0.1:9876"),
			VerifyToken: os.Getenv("VERIFY_TOKEN"),
			DedupTTL:    time.Duration(envInt("DEDUP_MINUTES", 5)) * time.Minute,
		},
		WhatsApp: WhatsAppConfig{
			Token:         os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("PHONE_NUMBER_ID"),
			APIVersion:    envOr("WHATSAPP_API_VERSION", "v20.0"),
			BaseURL:       strings.TrimRight(envOr("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"), "/"),
			SendRPS:       envInt("WHATSAPP_SEND_RPS", 20),
		},
		Agent: AgentConfig{
			Phone:        strings.TrimPrefix(os.Getenv("ADMIN_PHONE"), "+"),
			TemplateName: os.Getenv("NOTIFY_TEMPLATE_NAME"),
			TemplateLang: envOr("NOTIFY_TEMPLATE_LANG", "es"),
		},
		Documents: DocumentsConfig{
			KhumicLink:  os.Getenv("KHUMIC_PDF_LINK"),
			SeaweedLink: os.Getenv("SEAWEED_PDF_LINK"),
		},
		Handoff: HandoffConfig{
			MaxSlots:         envInt("MAX_SLOTS", 20),
			MaxPending:       envInt("MAX_PENDING_PREVIEW", 5),
			ReminderMinutes:  envInt("REMINDER_MINUTES", 5),
			AutoCloseMinutes: envInt("AUTO_CLOSE_MINUTES", 30),
			SweepSeconds:     envInt("SWEEP_SECONDS", 60),
		},
		Audit: AuditConfig{
			DBPath: auditDBPath,
		},
		Classifier: ClassifierConfig{
			APIKey:  os.Getenv("CLASSIFIER_API_KEY"),
			BaseURL: os.Getenv("CLASSIFIER_BASE_URL"),
			Model:   os.Getenv("CLASSIFIER_MODEL"),
		},
		Messages: messagesConfig,
		Location: loc,
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// ToHandoffConfig converts to domain handoff configuration
func (c *HandoffConfig) ToHandoffConfig() domain.HandoffConfig {
	return domain.HandoffConfig{
		MaxSlots:       c.MaxSlots,
		MaxPending:     c.MaxPending,
		ReminderAfter:  time.Duration(c.ReminderMinutes) * time.Minute,
		AutoCloseAfter: time.Duration(c.AutoCloseMinutes) * time.Minute,
	}
}

// SweepInterval returns the idle sweep period
func (c *HandoffConfig) SweepInterval() time.Duration {
	if c.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.SweepSeconds) * time.Second
}

// ToCatalog converts the YAML texts to the usecase catalogue
func (c *Config) ToCatalog() usecase.Catalog {
	if c.Messages == nil {
		return usecase.DefaultCatalog
	}
	return c.Messages.ToCatalog()
}

// AuditEnabled reports whether the sqlite audit log should be opened
func (c *Config) AuditEnabled() bool {
	return c.Audit.DBPath != "" && !strings.EqualFold(c.Audit.DBPath, AuditDisabled)
}

// ClassifierEnabled reports whether the LLM intent classifier is configured
func (c *Config) ClassifierEnabled() bool {
	return c.Classifier.APIKey != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.VerifyToken == "" {
		return &ConfigError{Field: "VERIFY_TOKEN", Message: "required"}
	}
	if c.WhatsApp.Token == "" || c.WhatsApp.PhoneNumberID == "" {
		return &ConfigError{Field: "WHATSAPP_TOKEN/PHONE_NUMBER_ID", Message: "required"}
	}
	if c.Agent.Phone == "" {
		return &ConfigError{Field: "ADMIN_PHONE", Message: "required"}
	}
	if c.Handoff.MaxSlots < 1 {
		return &ConfigError{Field: "MAX_SLOTS", Message: "must be at least 1"}
	}
	if c.WhatsApp.SendRPS < 1 {
		return &ConfigError{Field: "WHATSAPP_SEND_RPS", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
