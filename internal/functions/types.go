// Package functions turns candidate messages into structured facts using
// the oracle plus deterministic local rules.
package functions

import (
	"time"
)

// CandidateFact is the structured extraction result for one relevant
// message, not yet reconciled into an application record. A fact without a
// company name is never persisted.
type CandidateFact struct {
	CompanyName   string
	JobTitle      string
	Platform      string
	Status        string
	AppliedOn     *time.Time
	MessageID     string
	Subject       string
	Body          string
	MessageSentAt time.Time
}

// Oracle is the single-turn completion contract the classifier and
// extractor depend on. Responses are plain text and never trusted to be
// well formed.
type Oracle interface {
	Complete(prompt string) (string, error)
}
