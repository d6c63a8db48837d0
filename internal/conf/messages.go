package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

// MessagesConfig contains all canned texts loaded from YAML
type MessagesConfig struct {
	Customer CustomerMessages `yaml:"customer"`
	Agent    AgentMessages    `yaml:"agent"`

	// Path the texts were loaded from, empty for built-in defaults
	LoadedFrom string `yaml:"-"`
}

// CustomerMessages contains texts sent to customers
type CustomerMessages struct {
	Menu           string `yaml:"menu"`
	Products       string `yaml:"products"`
	Catalogue      string `yaml:"catalogue"`
	Prices         string `yaml:"prices"`
	Location       string `yaml:"location"`
	Sheets         string `yaml:"sheets"`
	KhumicCaption  string `yaml:"khumic_caption"`
	SeaweedCaption string `yaml:"seaweed_caption"`
	NotAvailable   string `yaml:"not_available"`
	Fallback       string `yaml:"fallback"`
	HandoffStart   string `yaml:"handoff_start"`
	HandoffBusy    string `yaml:"handoff_busy"`
	HandoffEnd     string `yaml:"handoff_end"`
	HandoffTimeout string `yaml:"handoff_timeout"`
}

// AgentMessages contains texts sent to the agent
type AgentMessages struct {
	NewHandoff   string `yaml:"new_handoff"`
	Forward      string `yaml:"forward"`
	Reminder     string `yaml:"reminder"`
	AutoClosed   string `yaml:"auto_closed"`
	CapacityFull string `yaml:"capacity_full"`
	ListHeader   string `yaml:"list_header"`
	ListEmpty    string `yaml:"list_empty"`
	Help         string `yaml:"help"`
	Use          string `yaml:"use"`
	Who          string `yaml:"who"`
	WhoNone      string `yaml:"who_none"`
	Stop         string `yaml:"stop"`
	ClosedEnd    string `yaml:"closed_end"`
	ClosedBot    string `yaml:"closed_bot"`
	NotActive    string `yaml:"not_active"`
	Sent         string `yaml:"sent"`
	SendFailed   string `yaml:"send_failed"`
	SlotEmpty    string `yaml:"slot_empty"`
	Unknown      string `yaml:"unknown"`
	NoActive     string `yaml:"no_active"`
}

// LoadMessagesConfig loads canned texts from a YAML file
func LoadMessagesConfig(configPath string) (*MessagesConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/procampo-bot/messages.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("read %s: not found", configPath)
		}
		return DefaultMessagesConfig(), nil
	}

	var config MessagesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse messages.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()
	config.LoadedFrom = loadedPath

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *MessagesConfig) fillDefaults() {
	d := DefaultMessagesConfig()

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}

	fill(&c.Customer.Menu, d.Customer.Menu)
	fill(&c.Customer.Products, d.Customer.Products)
	fill(&c.Customer.Catalogue, d.Customer.Catalogue)
	fill(&c.Customer.Prices, d.Customer.Prices)
	fill(&c.Customer.Location, d.Customer.Location)
	fill(&c.Customer.Sheets, d.Customer.Sheets)
	fill(&c.Customer.KhumicCaption, d.Customer.KhumicCaption)
	fill(&c.Customer.SeaweedCaption, d.Customer.SeaweedCaption)
	fill(&c.Customer.NotAvailable, d.Customer.NotAvailable)
	fill(&c.Customer.Fallback, d.Customer.Fallback)
	fill(&c.Customer.HandoffStart, d.Customer.HandoffStart)
	fill(&c.Customer.HandoffBusy, d.Customer.HandoffBusy)
	fill(&c.Customer.HandoffEnd, d.Customer.HandoffEnd)
	fill(&c.Customer.HandoffTimeout, d.Customer.HandoffTimeout)

	fill(&c.Agent.NewHandoff, d.Agent.NewHandoff)
	fill(&c.Agent.Forward, d.Agent.Forward)
	fill(&c.Agent.Reminder, d.Agent.Reminder)
	fill(&c.Agent.AutoClosed, d.Agent.AutoClosed)
	fill(&c.Agent.CapacityFull, d.Agent.CapacityFull)
	fill(&c.Agent.ListHeader, d.Agent.ListHeader)
	fill(&c.Agent.ListEmpty, d.Agent.ListEmpty)
	fill(&c.Agent.Help, d.Agent.Help)
	fill(&c.Agent.Use, d.Agent.Use)
	fill(&c.Agent.Who, d.Agent.Who)
	fill(&c.Agent.WhoNone, d.Agent.WhoNone)
	fill(&c.Agent.Stop, d.Agent.Stop)
	fill(&c.Agent.ClosedEnd, d.Agent.ClosedEnd)
	fill(&c.Agent.ClosedBot, d.Agent.ClosedBot)
	fill(&c.Agent.NotActive, d.Agent.NotActive)
	fill(&c.Agent.Sent, d.Agent.Sent)
	fill(&c.Agent.SendFailed, d.Agent.SendFailed)
	fill(&c.Agent.SlotEmpty, d.Agent.SlotEmpty)
	fill(&c.Agent.Unknown, d.Agent.Unknown)
	fill(&c.Agent.NoActive, d.Agent.NoActive)
}

// DefaultMessagesConfig returns the built-in texts
func DefaultMessagesConfig() *MessagesConfig {
	d := usecase.DefaultCatalog
	return &MessagesConfig{
		Customer: CustomerMessages{
			Menu:           d.Menu,
			Products:       d.Products,
			Catalogue:      d.Catalogue,
			Prices:         d.Prices,
			Location:       d.Location,
			Sheets:         d.Sheets,
			KhumicCaption:  d.KhumicCaption,
			SeaweedCaption: d.SeaweedCaption,
			NotAvailable:   d.NotAvailable,
			Fallback:       d.Fallback,
			HandoffStart:   d.HandoffStart,
			HandoffBusy:    d.HandoffBusy,
			HandoffEnd:     d.HandoffEnd,
			HandoffTimeout: d.HandoffTimeout,
		},
		Agent: AgentMessages{
			NewHandoff:   d.AgentNewHandoff,
			Forward:      d.AgentForward,
			Reminder:     d.AgentReminder,
			AutoClosed:   d.AgentAutoClosed,
			CapacityFull: d.AgentCapacityFull,
			ListHeader:   d.AgentListHeader,
			ListEmpty:    d.AgentListEmpty,
			Help:         d.AgentHelp,
			Use:          d.AgentUse,
			Who:          d.AgentWho,
			WhoNone:      d.AgentWhoNone,
			Stop:         d.AgentStop,
			ClosedEnd:    d.AgentClosedEnd,
			ClosedBot:    d.AgentClosedBot,
			NotActive:    d.AgentNotActive,
			Sent:         d.AgentSent,
			SendFailed:   d.AgentSendFailed,
			SlotEmpty:    d.AgentSlotEmpty,
			Unknown:      d.AgentUnknown,
			NoActive:     d.AgentNoActive,
		},
	}
}

// ToCatalog converts to the usecase catalogue
func (c *MessagesConfig) ToCatalog() usecase.Catalog {
	return usecase.Catalog{
		Menu:           c.Customer.Menu,
		Products:       c.Customer.Products,
		Catalogue:      c.Customer.Catalogue,
		Prices:         c.Customer.Prices,
		Location:       c.Customer.Location,
		Sheets:         c.Customer.Sheets,
		KhumicCaption:  c.Customer.KhumicCaption,
		SeaweedCaption: c.Customer.SeaweedCaption,
		NotAvailable:   c.Customer.NotAvailable,
		Fallback:       c.Customer.Fallback,
		HandoffStart:   c.Customer.HandoffStart,
		HandoffBusy:    c.Customer.HandoffBusy,
		HandoffEnd:     c.Customer.HandoffEnd,
		HandoffTimeout: c.Customer.HandoffTimeout,

		AgentNewHandoff:   c.Agent.NewHandoff,
		AgentForward:      c.Agent.Forward,
		AgentReminder:     c.Agent.Reminder,
		AgentAutoClosed:   c.Agent.AutoClosed,
		AgentCapacityFull: c.Agent.CapacityFull,
		AgentListHeader:   c.Agent.ListHeader,
		AgentListEmpty:    c.Agent.ListEmpty,
		AgentHelp:         c.Agent.Help,
		AgentUse:          c.Agent.Use,
		AgentWho:          c.Agent.Who,
		AgentWhoNone:      c.Agent.WhoNone,
		AgentStop:         c.Agent.Stop,
		AgentClosedEnd:    c.Agent.ClosedEnd,
		AgentClosedBot:    c.Agent.ClosedBot,
		AgentNotActive:    c.Agent.NotActive,
		AgentSent:         c.Agent.Sent,
		AgentSendFailed:   c.Agent.SendFailed,
		AgentSlotEmpty:    c.Agent.SlotEmpty,
		AgentUnknown:      c.Agent.Unknown,
		AgentNoActive:     c.Agent.NoActive,
	}
}
