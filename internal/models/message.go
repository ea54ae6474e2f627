package models

import "time"

// Message is a simple inbox row between two users.
type Message struct {
	ID         string     `db:"id" json:"id"`
	SenderID   string     `db:"sender_id" json:"sender_id"`
	ReceiverID string     `db:"receiver_id" json:"receiver_id"`
	Subject    string     `db:"subject" json:"subject"`
	Body       string     `db:"body" json:"body"`
	Read       bool       `db:"is_read" json:"is_read"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// MessageDetail adds the sender's display name.
type MessageDetail struct {
	Message
	SenderName string `db:"sender_name" json:"sender_name"`
}

// MessageFilter narrows the inbox listing.
type MessageFilter struct {
	ReceiverID string
	UnreadOnly bool
	Limit      uint64
}
