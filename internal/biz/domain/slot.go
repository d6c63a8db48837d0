package domain

// SlotEntry is one occupied slot
type SlotEntry struct {
	Slot       int
	TicketCode string
}

// SlotTable maps slot numbers 1..N to ticket codes, unique in both directions.
// Not safe for concurrent use.
type SlotTable struct {
	slots    []string // index i holds slot i+1, "" when free
	byTicket map[string]int
}

// NewSlotTable creates a table with the given capacity
func NewSlotTable(capacity int) *SlotTable {
	if capacity < 1 {
		capacity = 1
	}
	return &SlotTable{
		slots:    make([]string, capacity),
		byTicket: make(map[string]int),
	}
}

// Assign returns the ticket's slot, claiming the lowest free number if it
// has none. ok is false when every slot is taken.
func (t *SlotTable) Assign(ticketCode string) (slot int, ok bool) {
	if n, held := t.byTicket[ticketCode]; held {
		return n, true
	}
	for i, occupant := range t.slots {
		if occupant == "" {
			t.slots[i] = ticketCode
			t.byTicket[ticketCode] = i + 1
			return i + 1, true
		}
	}
	return 0, false
}

// Release frees the ticket's slot, if any
func (t *SlotTable) Release(ticketCode string) (slot int, ok bool) {
	n, held := t.byTicket[ticketCode]
	if !held {
		return 0, false
	}
	t.slots[n-1] = ""
	delete(t.byTicket, ticketCode)
	return n, true
}

// TicketAt returns the ticket occupying a slot
func (t *SlotTable) TicketAt(slot int) (string, bool) {
	if slot < 1 || slot > len(t.slots) || t.slots[slot-1] == "" {
		return "", false
	}
	return t.slots[slot-1], true
}

// SlotOf returns the slot held by a ticket
func (t *SlotTable) SlotOf(ticketCode string) (int, bool) {
	n, ok := t.byTicket[ticketCode]
	return n, ok
}

// Occupied lists occupied slots in ascending order
func (t *SlotTable) Occupied() []SlotEntry {
	entries := make([]SlotEntry, 0, len(t.byTicket))
	for i, occupant := range t.slots {
		if occupant != "" {
			entries = append(entries, SlotEntry{Slot: i + 1, TicketCode: occupant})
		}
	}
	return entries
}

// Capacity returns N
func (t *SlotTable) Capacity() int {
	return len(t.slots)
}

// Len returns the number of occupied slots
func (t *SlotTable) Len() int {
	return len(t.byTicket)
}
