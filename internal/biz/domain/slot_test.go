package domain

import "testing"

func TestSlotTable_AssignLowestFree(t *testing.T) {
	table := NewSlotTable(3)

	for i, code := range []string{"A", "B", "C"} {
		slot, ok := table.Assign(code)
		if !ok || slot != i+1 {
			t.Fatalf("Assign(%s) = %d, %v; want %d, true", code, slot, ok, i+1)
		}
	}

	if _, ok := table.Assign("D"); ok {
		t.Error("Expected capacity to be exhausted")
	}
}

func TestSlotTable_AssignIsIdempotent(t *testing.T) {
	table := NewSlotTable(3)
	table.Assign("A")
	table.Assign("B")

	slot, ok := table.Assign("B")
	if !ok || slot != 2 {
		t.Errorf("Expected B to keep slot 2, got %d", slot)
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 occupied slots, got %d", table.Len())
	}
}

func TestSlotTable_ReleaseReusesLowest(t *testing.T) {
	table := NewSlotTable(3)
	table.Assign("A")
	table.Assign("B")
	table.Assign("C")

	if slot, ok := table.Release("A"); !ok || slot != 1 {
		t.Fatalf("Release(A) = %d, %v; want 1, true", slot, ok)
	}
	table.Release("C")

	slot, _ := table.Assign("D")
	if slot != 1 {
		t.Errorf("Expected D to get slot 1, got %d", slot)
	}
	slot, _ = table.Assign("E")
	if slot != 3 {
		t.Errorf("Expected E to get slot 3, got %d", slot)
	}
}

func TestSlotTable_ReleaseUnknown(t *testing.T) {
	table := NewSlotTable(2)
	if _, ok := table.Release("X"); ok {
		t.Error("Expected release of unknown ticket to report false")
	}
}

func TestSlotTable_Exclusivity(t *testing.T) {
	table := NewSlotTable(5)
	codes := []string{"A", "B", "C", "D", "E"}
	for _, c := range codes {
		table.Assign(c)
	}
	table.Release("B")
	table.Release("D")
	table.Assign("F")
	table.Assign("A")

	seen := make(map[int]string)
	for _, e := range table.Occupied() {
		if other, dup := seen[e.Slot]; dup {
			t.Fatalf("Slot %d held by both %s and %s", e.Slot, other, e.TicketCode)
		}
		seen[e.Slot] = e.TicketCode

		back, ok := table.SlotOf(e.TicketCode)
		if !ok || back != e.Slot {
			t.Errorf("SlotOf(%s) = %d, want %d", e.TicketCode, back, e.Slot)
		}
		code, _ := table.TicketAt(e.Slot)
		if code != e.TicketCode {
			t.Errorf("TicketAt(%d) = %s, want %s", e.Slot, code, e.TicketCode)
		}
	}
	if len(seen) != table.Len() {
		t.Errorf("Occupied() returned %d entries, Len() = %d", len(seen), table.Len())
	}
}

func TestSlotTable_TicketAtOutOfRange(t *testing.T) {
	table := NewSlotTable(2)
	for _, slot := range []int{-1, 0, 3} {
		if _, ok := table.TicketAt(slot); ok {
			t.Errorf("Expected TicketAt(%d) to be empty", slot)
		}
	}
}
