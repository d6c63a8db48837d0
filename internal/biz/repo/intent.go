package repo

import "context"

// IntentRepo classifies free text the keyword table did not match
type IntentRepo interface {
	// WantsHuman determines whether the customer is asking for a person
	WantsHuman(ctx context.Context, message string) (bool, error)
}
