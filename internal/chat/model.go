package chat

import "time"

const maxContentLength = 2000

type Message struct {
	ID          int64     `json:"id" db:"id"`
	ListingID   int64     `json:"listing_id" db:"listing_id"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserMessage is a message joined with its listing's title. The title is nil
// when the listing no longer exists.
type UserMessage struct {
	Message
	ListingTitle *string `db:"listing_title"`
}

// Conversation is derived from messages; it is never stored.
type Conversation struct {
	ListingID          int64     `json:"listing_id"`
	CounterpartyID     string    `json:"counterparty_id"`
	ListingTitle       string    `json:"listing_title"`
	LastMessageContent string    `json:"last_message_content"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

type SendRequest struct {
	ListingID   int64  `json:"listing_id"`
	RecipientID string `json:"recipient_id,omitempty"`
	Content     string `json:"content"`
}
