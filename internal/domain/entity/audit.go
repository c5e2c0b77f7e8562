package entity

import (
	"time"

	"github.com/cmcs/claims-api/internal/domain/claim"
	"github.com/cmcs/claims-api/internal/domain/event"
)

// AuditEntry is one immutable record in a claim's audit trail. ActorID is
// empty for system-originated actions. FromStatus/ToStatus are populated
// only for status-change events.
type AuditEntry struct {
	ID         int64         `json:"id"`
	ClaimID    int64         `json:"claim_id"`
	ActorID    string        `json:"actor_id,omitempty"`
	ActorName  string        `json:"actor_name"`
	Kind       event.Kind    `json:"kind"`
	FromStatus *claim.Status `json:"from_status,omitempty"`
	ToStatus   *claim.Status `json:"to_status,omitempty"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
}

// IsTerminalDecision reports whether the entry records the claim reaching
// Approved or Rejected. Processing-time aggregation matches on this, not
// on message text.
func (e *AuditEntry) IsTerminalDecision() bool {
	if e.Kind != event.KindStatusChanged || e.ToStatus == nil {
		return false
	}
	return e.ToStatus.IsTerminal()
}

// TimelineItem is the presentation-neutral shape of one audit trail entry
type TimelineItem struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
}
