package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

// commandRule maps a pattern to a command builder
type commandRule struct {
	pattern *regexp.Regexp
	build   func(m []string) domain.Command
}

const targetPattern = `(\d+|#\s*[0-9a-z]+|[0-9a-z]+)`

// Rules are evaluated top to bottom, first match wins
var commandRules = []commandRule{
	{
		pattern: regexp.MustCompile(`(?i)^(?:chats|list)$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandList}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^use\s+` + targetPattern + `$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandUse, Target: parseTarget(m[1])}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^who$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandWho}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^stop$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandStop}
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)^(bot|end)(?:\s+` + targetPattern + `)?$`),
		build: func(m []string) domain.Command {
			return domain.Command{
				Kind:   domain.CommandClose,
				Target: parseTarget(m[2]),
				Notify: strings.EqualFold(m[1], "end"),
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(\d+)\s*\?$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandDetail, Target: parseTarget(m[1])}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)^(\d+)\s+(.+)$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandReply, Target: parseTarget(m[1]), Text: m[2]}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)^r\s+(#\s*[0-9a-z]+|\d+)\s+(.+)$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandReply, Target: parseTarget(m[1]), Text: m[2]}
		},
	},
	{
		pattern: regexp.MustCompile(`(?is)^r\s+(.+)$`),
		build: func(m []string) domain.Command {
			return domain.Command{Kind: domain.CommandReply, Text: m[1]}
		},
	},
}

// ParseCommand turns one line typed by the agent into a command.
// Keywords are case-insensitive; reply text is kept as typed.
func ParseCommand(text string) domain.Command {
	raw := strings.TrimSpace(text)
	for _, rule := range commandRules {
		if m := rule.pattern.FindStringSubmatch(raw); m != nil {
			cmd := rule.build(m)
			cmd.Text = strings.TrimSpace(cmd.Text)
			cmd.Raw = raw
			return cmd
		}
	}
	return domain.Command{Kind: domain.CommandHelp, Raw: raw}
}

// parseTarget reads "3", "#AB12CD" or "ab12cd". An empty string means the active ticket.
func parseTarget(s string) domain.Target {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Target{}
	}
	if strings.HasPrefix(s, "#") {
		return domain.Target{TicketCode: domain.NormalizeTicketCode(s)}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			// Slots start at 1; keep "0" distinct from an omitted target
			n = -1
		}
		return domain.Target{Slot: n}
	}
	return domain.Target{TicketCode: domain.NormalizeTicketCode(s)}
}
