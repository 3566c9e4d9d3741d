package models

import "time"

type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a direct message context between exactly two members.
type Conversation struct {
	ID          string    `json:"id"`
	MemberOneID string    `json:"member_one_id"`
	MemberTwoID string    `json:"member_two_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateChannelRequest struct {
	Name string `json:"name"`
}

type CreateConversationRequest struct {
	MemberID string `json:"member_id"`
}
