package domain

// CommandKind identifies an agent console command
type CommandKind string

const (
	CommandList   CommandKind = "list"
	CommandUse    CommandKind = "use"
	CommandWho    CommandKind = "who"
	CommandStop   CommandKind = "stop"
	CommandClose  CommandKind = "close"
	CommandReply  CommandKind = "reply"
	CommandDetail CommandKind = "detail"
	CommandHelp   CommandKind = "help"
)

// Target addresses a session by slot, by ticket code, or by the agent's
// active ticket when both are empty
type Target struct {
	Slot       int
	TicketCode string
}

// IsActive reports whether the target means "the active ticket"
func (t Target) IsActive() bool {
	return t.Slot == 0 && t.TicketCode == ""
}

// Command is a parsed agent console line
type Command struct {
	Kind   CommandKind
	Target Target
	Text   string // reply text for CommandReply
	Notify bool   // CommandClose: "end" thanks the customer, "bot" does not
	Raw    string
}
