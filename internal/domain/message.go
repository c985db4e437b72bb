package domain

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Body       string
	SentAt     time.Time
	Read       bool
}

// Conversation summarizes the latest exchange with one partner.
type Conversation struct {
	PartnerID   int64
	PartnerName string
	LastBody    string
	LastSentAt  time.Time
	UnreadCount int64
}
