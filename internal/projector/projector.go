// Package projector rebuilds structured support tickets from the backend's
// denormalized conversation logs. Everything here is a pure function of its
// input: no I/O, no clocks, no randomness, so re-running a projection over the
// same fetch result always yields the same ticket list.
package projector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"support-sync/internal/model"
	"support-sync/utils"
)

const (
	fallbackSubjectLimit = 40
	fallbackSubject      = "Không có chủ đề"
)

// Project turns a batch of conversation logs into tickets ordered by most
// recent activity. viewerID is the local user; authorship of every entry is
// resolved relative to it.
func Project(logs []model.ConversationLog, viewerID string) []model.Ticket {
	tickets := make([]model.Ticket, 0, len(logs))
	for _, l := range logs {
		tickets = append(tickets, projectLog(l, viewerID))
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].LastActivity.After(tickets[j].LastActivity)
	})
	return tickets
}

func projectLog(l model.ConversationLog, viewerID string) model.Ticket {
	counterpartyID := l.SenderID
	if strings.EqualFold(l.SenderID, viewerID) {
		counterpartyID = l.ReceiverID
	}

	ticket := model.Ticket{
		ID:               l.ID,
		CounterpartyID:   counterpartyID,
		CounterpartyName: placeholderName(counterpartyID),
		Subject:          fallbackSubject,
		Status:           model.TicketStatusOpen,
		Messages:         make([]model.Message, 0, len(l.Content)),
		LastActivity:     lastActivity(l),
	}

	entryStatus := model.MessageStatusUnread
	if l.Read {
		entryStatus = model.MessageStatusRead
	}

	first := true
	for i, raw := range l.Content {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		entry := parseEntry(raw, first)
		if first {
			if entry.kind == entryCreationMarker {
				ticket.CounterpartyName = entry.CounterpartyName
				ticket.Subject = entry.Subject
			} else {
				ticket.Subject = utils.Truncate(entry.Text, fallbackSubjectLimit)
			}
			first = false
		}

		from, to, fromCounterparty := resolveAuthor(l, entry, viewerID)
		ticket.Messages = append(ticket.Messages, model.Message{
			ID:                 fmt.Sprintf("%s_%d", l.ID, i),
			FromID:             from,
			ToID:               to,
			Content:            entry.Text,
			Timestamp:          lastActivity(l),
			IsFromCounterparty: fromCounterparty,
			Status:             entryStatus,
		})
	}

	for _, m := range ticket.Messages {
		if m.Status == model.MessageStatusUnread && m.IsFromCounterparty {
			ticket.UnreadCount++
		}
	}
	return ticket
}

// resolveAuthor decides who wrote one entry. An authored prefix wins over the
// document-level sender/receiver; an id that belongs to neither party is still
// honored as the author, addressed to the viewer.
func resolveAuthor(l model.ConversationLog, entry parsedEntry, viewerID string) (from, to string, fromCounterparty bool) {
	if entry.kind == entryAuthored {
		from = entry.AuthorID
		switch {
		case strings.EqualFold(from, l.SenderID):
			to = l.ReceiverID
		case strings.EqualFold(from, l.ReceiverID):
			to = l.SenderID
		default:
			to = viewerID
		}
		return from, to, !strings.EqualFold(from, viewerID)
	}

	return l.SenderID, l.ReceiverID, !strings.EqualFold(l.SenderID, viewerID)
}

func lastActivity(l model.ConversationLog) time.Time {
	if !l.UpdatedAt.IsZero() {
		return l.UpdatedAt
	}
	return l.CreatedAt
}

func placeholderName(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "Người dùng " + short
}
