package models

import "time"

// Reaction is one member's reaction on one message. The store enforces
// uniqueness per (message, member, value); toggling an existing triple
// removes it.
type Reaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	MemberID  string    `json:"member_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionGroup is the aggregated view of one emoji on one message.
type ReactionGroup struct {
	Value     string   `json:"value"`
	Count     int      `json:"count"`
	MemberIDs []string `json:"member_ids"`
}

type ToggleReactionRequest struct {
	MessageID string `json:"message_id"`
	Value     string `json:"value"`
}
