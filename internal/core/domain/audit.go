package domain

import "time"

// AuditEvent records a single auth or mutation action for the audit trail.
type AuditEvent struct {
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
