package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TicketCodeLength is the number of hex characters in a ticket code
const TicketCodeLength = 6

// Ticket represents one customer's conversation, addressed by a short code
type Ticket struct {
	Code        string
	CustomerID  string // WhatsApp id (phone number)
	DisplayName string
	CreatedAt   time.Time
}

// Label formats the ticket for the agent
func (t *Ticket) Label() string {
	if t.DisplayName == "" {
		return fmt.Sprintf("#%s (%s)", t.Code, t.CustomerID)
	}
	return fmt.Sprintf("#%s %s (%s)", t.Code, t.DisplayName, t.CustomerID)
}

// TicketCodeFor derives a ticket code from a seed
func TicketCodeFor(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:TicketCodeLength])
}

// NormalizeTicketCode accepts "#ab12cd", "AB12CD" or " ab12cd "
func NormalizeTicketCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(code), "#")))
}

// TicketRegistry maps customers to stable ticket codes.
// Not safe for concurrent use; callers hold their own lock.
type TicketRegistry struct {
	byCustomer map[string]*Ticket
	byCode     map[string]*Ticket
}

// NewTicketRegistry creates an empty registry
func NewTicketRegistry() *TicketRegistry {
	return &TicketRegistry{
		byCustomer: make(map[string]*Ticket),
		byCode:     make(map[string]*Ticket),
	}
}

// Ensure returns the customer's ticket, creating it on first sight.
// seed defaults to customerID; on a code collision with another customer
// the seed is suffixed and rehashed until the code is unique.
func (r *TicketRegistry) Ensure(customerID, displayName, seed string, now time.Time) *Ticket {
	if t, ok := r.byCustomer[customerID]; ok {
		if t.DisplayName == "" && displayName != "" {
			t.DisplayName = displayName
		}
		return t
	}

	if seed == "" {
		seed = customerID
	}
	code := TicketCodeFor(seed)
	for i := 1; ; i++ {
		existing, taken := r.byCode[code]
		if !taken || existing.CustomerID == customerID {
			break
		}
		code = TicketCodeFor(fmt.Sprintf("%s#%d", seed, i))
	}

	t := &Ticket{
		Code:        code,
		CustomerID:  customerID,
		DisplayName: displayName,
		CreatedAt:   now,
	}
	r.byCustomer[customerID] = t
	r.byCode[code] = t
	return t
}

// ByCode finds a ticket by its code
func (r *TicketRegistry) ByCode(code string) (*Ticket, bool) {
	t, ok := r.byCode[NormalizeTicketCode(code)]
	return t, ok
}

// ByCustomer finds a ticket by customer id
func (r *TicketRegistry) ByCustomer(customerID string) (*Ticket, bool) {
	t, ok := r.byCustomer[customerID]
	return t, ok
}

// Len returns the number of known tickets
func (r *TicketRegistry) Len() int {
	return len(r.byCustomer)
}
