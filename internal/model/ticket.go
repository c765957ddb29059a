package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

type MessageStatus string

const (
	MessageStatusUnread MessageStatus = "unread"
	MessageStatusRead   MessageStatus = "read"
)

// ConversationLog is the backend's stored shape for one support conversation:
// a single document whose Content array grows for the life of the conversation.
// SenderID and ReceiverID describe the two parties of the document, not the
// author of any individual entry.
type ConversationLog struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    []string  `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Message is one projected conversation entry. Entries do not carry their own
// timestamps upstream, so Timestamp is inherited from the parent log.
type Message struct {
	ID                 string        `json:"id"`
	FromID             string        `json:"fromId"`
	ToID               string        `json:"toId"`
	Content            string        `json:"content"`
	Timestamp          time.Time     `json:"timestamp"`
	IsFromCounterparty bool          `json:"isFromCounterparty"`
	Status             MessageStatus `json:"status"`
}

// Ticket is the client-side projection of one ConversationLog.
type Ticket struct {
	ID               string       `json:"id"`
	CounterpartyID   string       `json:"counterpartyId"`
	CounterpartyName string       `json:"counterpartyName"`
	Subject          string       `json:"subject"`
	Status           TicketStatus `json:"status"`
	Messages         []Message    `json:"messages"`
	UnreadCount      int          `json:"unreadCount"`
	LastActivity     time.Time    `json:"lastActivity"`
}
