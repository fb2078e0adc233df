package models

import (
	"time"
)

// TransitionEvent is the JSON payload delivered to configured webhook URLs
// after every successful workflow transition. Delivery is asynchronous and
// best-effort; it never blocks or fails the transition itself.
type TransitionEvent struct {
	DocumentID string        `json:"documentId"`
	Action     AuditAction   `json:"action"`
	FromState  WorkflowState `json:"fromState"`
	ToState    WorkflowState `json:"toState"`
	Version    int64         `json:"version"`
	SnapshotID *string       `json:"snapshotId,omitempty"`
	ActorID    string        `json:"actorId"`
	OccurredAt time.Time     `json:"occurredAt"`
}
