package domain

import (
	"time"
)

// MetadataActorKey is the metadata field callers use to record who initiated
// a transaction. Identity is resolved upstream; the ledger stores the value
// verbatim and echoes it into audit events.
const MetadataActorKey = "actor"

// Transaction groups the entries of one atomic posting. A transaction with a
// nil PostedAt is a draft; drafts never survive outside the posting commit,
// so every transaction visible through queries is posted.
type Transaction struct {
	ID          string
	Description string
	Metadata    map[string]any
	EffectiveAt time.Time
	RecordedAt  time.Time
	PostedAt    *time.Time
	Entries     []Entry
}

// IsPosted reports whether the transaction has been posted.
func (t *Transaction) IsPosted() bool {
	return t.PostedAt != nil
}

// Actor returns the actor recorded in metadata, or "" when absent.
func (t *Transaction) Actor() string {
	if t.Metadata == nil {
		return ""
	}
	if actor, ok := t.Metadata[MetadataActorKey].(string); ok {
		return actor
	}
	return ""
}
