package model

const (
	FrameTypeInit                = "init"
	FrameTypeChatMessage         = "chat_message"
	FrameTypeCloseTicket         = "close_support_ticket"
	FrameTypeCreateTicket        = "create_support_ticket"
	FrameTypeSupportMessage      = "support_message"
	FrameTypeMessageSent         = "message_sent"
	FrameTypeTicketClosed        = "ticket_closed"
	FrameTypeTicketClosedByOther = "ticket_closed_by_other"
	FrameTypeTicketCloseError    = "ticket_close_error"
)

// InitFrame is sent once right after the socket opens, before any chat
// traffic, so the backend can associate the connection with a user session.
type InitFrame struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}

type ChatFrame struct {
	Type      string `json:"type"`
	TicketID  string `json:"ticketId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type CloseTicketFrame struct {
	Type     string `json:"type"`
	TicketID string `json:"ticketId"`
	FromID   string `json:"fromId"`
	ToID     string `json:"toId"`
}

// InboundFrame is the envelope for everything the backend pushes. Fields
// beyond Type are populated depending on the frame type; absent fields stay
// zero-valued.
type InboundFrame struct {
	Type           string   `json:"type"`
	TicketID       string   `json:"ticketId"`
	From           string   `json:"from"`
	Message        string   `json:"message"`
	UpdatedContent []string `json:"updatedContent,omitempty"`
}
