package models

import "time"

// Message is a single chat message. Body is an opaque serialized document
// blob owned by the rendering layer; the server stores and returns it
// untouched. Exactly one of ChannelID or ConversationID is set.
type Message struct {
	ID             string     `json:"id"`
	ChannelID      *string    `json:"channel_id,omitempty"`
	ConversationID *string    `json:"conversation_id,omitempty"`
	ParentID       *string    `json:"parent_id,omitempty"`
	MemberID       string     `json:"member_id"`
	Body           string     `json:"body"`
	Image          *string    `json:"image,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// ReplySummary is the projection of a thread reply joined onto its parent
// for rollup rendering.
type ReplySummary struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	AuthorName  string    `json:"author_name"`
	AuthorImage string    `json:"author_image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedMessage is a message as delivered in a snapshot: the record plus
// joined author identity, raw reaction records and the reply set.
type FeedMessage struct {
	Message
	Author    MemberSummary  `json:"author"`
	Reactions []Reaction     `json:"reactions"`
	Replies   []ReplySummary `json:"replies,omitempty"`
}

type CreateMessageRequest struct {
	ChannelID      *string `json:"channel_id,omitempty"`
	ConversationID *string `json:"conversation_id,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
	Body           string  `json:"body"`
	Image          *string `json:"image,omitempty"`
}

type UpdateMessageRequest struct {
	Body string `json:"body"`
}

// WSMessage is the event envelope pushed to websocket subscribers.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeMessageCreated = "message_created"
	WSTypeMessageUpdated = "message_updated"
	WSTypeMessageDeleted = "message_deleted"
	WSTypeReactionUpdate = "reaction_update"
)

// MessageEventPayload carries enough scope for a subscriber to decide
// whether it must re-query.
type MessageEventPayload struct {
	MessageID      string  `json:"message_id"`
	ChannelID      *string `json:"channel_id,omitempty"`
	ConversationID *string `json:"conversation_id,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
}
