package domain

import "time"

// RFPStatus represents the lifecycle state of an RFP.
type RFPStatus string

const (
	StatusDraft     RFPStatus = "draft"
	StatusSubmitted RFPStatus = "submitted"
	StatusInReview  RFPStatus = "in_review"
	StatusWon       RFPStatus = "won"
	StatusLost      RFPStatus = "lost"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[RFPStatus][]RFPStatus{
	StatusDraft:     {StatusSubmitted, StatusLost},
	StatusSubmitted: {StatusInReview, StatusLost},
	StatusInReview:  {StatusWon, StatusLost},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s RFPStatus) CanTransitionTo(next RFPStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusHistoryEntry records a single status transition on an RFP.
type StatusHistoryEntry struct {
	Status    RFPStatus `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	ActorID   string    `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// RFP is the request-for-proposal aggregate root.
type RFP struct {
	ID            string               `json:"id" bson:"_id"`
	OwnerID       string               `json:"owner_id" bson:"owner_id"`
	Title         string               `json:"title" bson:"title"`
	ClientName    string               `json:"client_name" bson:"client_name"`
	Description   string               `json:"description,omitempty" bson:"description,omitempty"`
	DueDate       time.Time            `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Status        RFPStatus            `json:"status" bson:"status"`
	StatusHistory []StatusHistoryEntry `json:"status_history" bson:"status_history"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}
