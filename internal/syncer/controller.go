// Package syncer keeps the in-memory ticket model consistent with the
// backend: it classifies pushed frames, decides when a history refetch and
// reprojection is warranted, applies optimistic local updates for outbound
// sends, and debounces refetch storms. The ticket list is only ever replaced
// wholesale, so readers see either the previous or the next complete
// projection.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"support-sync/internal/history"
	"support-sync/internal/model"
	"support-sync/internal/notify"
	"support-sync/internal/projector"
	"support-sync/internal/queue"

	"github.com/google/uuid"
)

// Sender is the outbound half of the connection manager.
type Sender interface {
	Send(frame interface{}) error
}

const (
	defaultDebounceWindow   = 2 * time.Second
	defaultMessageSentGrace = time.Second
	defaultQueueSize        = 16
)

const (
	titleNewMessage  = "Tin nhắn hỗ trợ mới"
	titleTicketDone  = "Yêu cầu hỗ trợ đã đóng"
	titleCloseFailed = "Không thể đóng yêu cầu hỗ trợ"
)

type Config struct {
	Conn     Sender
	Fetcher  history.Fetcher
	Bridge   *notify.Bridge
	ViewerID string

	// Now is the clock used for debounce decisions and optimistic
	// timestamps. Defaults to time.Now.
	Now func() time.Time

	// DebounceWindow is the minimum interval between refetches triggered
	// by support_message frames.
	DebounceWindow time.Duration

	// MessageSentGrace delays the refetch after a message_sent echo so the
	// backend's read-after-write has settled.
	MessageSentGrace time.Duration

	// OnTicketsUpdated receives a snapshot after every state change. Called
	// outside the controller lock.
	OnTicketsUpdated func([]model.Ticket)
}

type Controller struct {
	conn     Sender
	fetcher  history.Fetcher
	bridge   *notify.Bridge
	viewerID string
	now      func() time.Time
	window   time.Duration
	grace    time.Duration
	onUpdate func([]model.Ticket)

	jobs *queue.Manager

	mu               sync.RWMutex
	tickets          []model.Ticket
	selectedTicketID string
	lastRefetchAt    time.Time
	closedIDs        map[string]bool
	graceTimer       *time.Timer
	stopped          bool
}

func New(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaultDebounceWindow
	}
	if cfg.MessageSentGrace <= 0 {
		cfg.MessageSentGrace = defaultMessageSentGrace
	}
	return &Controller{
		conn:     cfg.Conn,
		fetcher:  cfg.Fetcher,
		bridge:   cfg.Bridge,
		viewerID: cfg.ViewerID,
		now:      cfg.Now,
		window:   cfg.DebounceWindow,
		grace:    cfg.MessageSentGrace,
		onUpdate: cfg.OnTicketsUpdated,
		// One worker: reprojection runs must never overlap.
		jobs:      queue.NewManager(defaultQueueSize, 1),
		closedIDs: make(map[string]bool),
	}
}

// HandleFrame classifies one inbound frame. The connection manager delivers
// frames from a single goroutine, so frames are processed to completion in
// arrival order.
func (c *Controller) HandleFrame(f model.InboundFrame) {
	switch f.Type {
	case model.FrameTypeCreateTicket:
		c.touchRefetchAt()
		c.enqueueRefetch()

	case model.FrameTypeTicketClosed, model.FrameTypeTicketClosedByOther:
		c.markClosed(f.TicketID)
		c.publish(titleTicketDone, "Cuộc hội thoại đã kết thúc.")

	case model.FrameTypeTicketCloseError:
		c.publish(titleCloseFailed, "Vui lòng thử lại sau.")

	case model.FrameTypeSupportMessage:
		if c.shouldRefetch() {
			c.enqueueRefetch()
		} else {
			log.Printf("syncer: support_message within debounce window, skipping refetch")
		}
		c.publish(titleNewMessage, f.Message)

	case model.FrameTypeMessageSent:
		if f.TicketID == "" || len(f.UpdatedContent) == 0 {
			return
		}
		c.scheduleGraceRefetch()

	default:
		log.Printf("syncer: ignoring frame type %q", f.Type)
	}
}

// Refresh runs an unconditional refetch and waits for it, for user-initiated
// pull-to-refresh.
func (c *Controller) Refresh(ctx context.Context) error {
	c.touchRefetchAt()

	errc := make(chan error, 1)
	if !c.jobs.Enqueue(queue.Job{Fn: c.refetch, Errc: errc}) {
		return newError(ErrorCodeInternal, "refresh queue is full", nil)
	}
	select {
	case err := <-errc:
		if err != nil {
			return newError(ErrorCodeInternal, "history refetch failed", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage applies the optimistic local append and hands the wire frame to
// the connection. The optimistic message is never rolled back; the next
// successful refetch is the consistency backstop, including when the send
// itself fails.
func (c *Controller) SendMessage(ticketID, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, newError(ErrorCodeValidation, "message content is required", nil)
	}

	c.mu.Lock()
	idx := c.indexOfLocked(ticketID)
	if idx < 0 {
		c.mu.Unlock()
		return model.Message{}, newError(ErrorCodeNotFound, "ticket not found", nil)
	}
	ticket := &c.tickets[idx]
	if ticket.Status == model.TicketStatusClosed {
		c.mu.Unlock()
		return model.Message{}, newError(ErrorCodeConflict, "ticket is closed", nil)
	}

	now := c.now()
	msg := model.Message{
		ID:                 fmt.Sprintf("%s_local_%s", ticketID, uuid.NewString()),
		FromID:             c.viewerID,
		ToID:               ticket.CounterpartyID,
		Content:            content,
		Timestamp:          now,
		IsFromCounterparty: false,
		Status:             model.MessageStatusRead,
	}
	ticket.Messages = append(ticket.Messages, msg)
	ticket.LastActivity = now
	if ticket.Status == model.TicketStatusOpen {
		ticket.Status = model.TicketStatusInProgress
	}

	frame := model.ChatFrame{
		Type:      model.FrameTypeChatMessage,
		TicketID:  ticketID,
		From:      c.viewerID,
		To:        ticket.CounterpartyID,
		Message:   content,
		Timestamp: now.UnixMilli(),
	}

	c.sortLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.conn.Send(frame); err != nil {
		log.Printf("syncer: send failed, optimistic message kept: %v", err)
	}
	c.notifyUpdate(snapshot)
	return msg, nil
}

// CloseTicket transmits a close request and optimistically marks the ticket
// closed. A later ticket_close_error is reported via the bridge only; the
// local status is intentionally not rolled back.
func (c *Controller) CloseTicket(ticketID string) error {
	c.mu.Lock()
	idx := c.indexOfLocked(ticketID)
	if idx < 0 {
		c.mu.Unlock()
		return newError(ErrorCodeNotFound, "ticket not found", nil)
	}
	ticket := &c.tickets[idx]
	if ticket.Status == model.TicketStatusClosed {
		c.mu.Unlock()
		return newError(ErrorCodeConflict, "ticket is already closed", nil)
	}

	frame := model.CloseTicketFrame{
		Type:     model.FrameTypeCloseTicket,
		TicketID: ticketID,
		FromID:   c.viewerID,
		ToID:     ticket.CounterpartyID,
	}
	ticket.Status = model.TicketStatusClosed
	c.closedIDs[ticketID] = true
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.conn.Send(frame); err != nil {
		log.Printf("syncer: close frame send failed, local close kept: %v", err)
	}
	c.notifyUpdate(snapshot)
	return nil
}

// MarkTicketRead clears local unread state when the user opens a ticket. The
// next projection recomputes from the backend's read flag.
func (c *Controller) MarkTicketRead(ticketID string) {
	c.mu.Lock()
	idx := c.indexOfLocked(ticketID)
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	ticket := &c.tickets[idx]
	for i := range ticket.Messages {
		ticket.Messages[i].Status = model.MessageStatusRead
	}
	ticket.UnreadCount = 0
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notifyUpdate(snapshot)
}

func (c *Controller) SelectTicket(ticketID string) {
	c.mu.Lock()
	c.selectedTicketID = ticketID
	c.mu.Unlock()
}

func (c *Controller) SelectedTicket() (model.Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tickets {
		if t.ID == c.selectedTicketID {
			return copyTicket(t), true
		}
	}
	return model.Ticket{}, false
}

// Tickets returns a snapshot of the current projection, newest activity
// first.
func (c *Controller) Tickets() []model.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Shutdown cancels any pending grace timer and drains the refetch queue. The
// controller must not receive frames afterwards.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.stopped = true
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	c.mu.Unlock()

	c.jobs.Shutdown()
}

// scheduleGraceRefetch arms the delayed refetch for a message_sent echo. The
// timer is a single slot: a new echo rearms it instead of stacking refetches,
// and firing stamps the debounce clock so a support_message right after the
// echo does not refetch twice.
func (c *Controller) scheduleGraceRefetch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if c.graceTimer != nil {
		c.graceTimer.Stop()
	}
	c.graceTimer = time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		c.graceTimer = nil
		if c.stopped {
			c.mu.Unlock()
			return
		}
		c.lastRefetchAt = c.now()
		c.mu.Unlock()

		c.enqueueRefetch()
	})
}

func (c *Controller) enqueueRefetch() {
	c.jobs.Enqueue(queue.Job{Fn: c.refetch})
}

// refetch pulls the full conversation history and swaps in the reprojection.
// On failure the previous ticket list stays untouched; the next trigger is
// the retry.
func (c *Controller) refetch() error {
	logs, err := c.fetcher.FetchLogs(context.Background(), c.viewerID)
	if err != nil {
		log.Printf("syncer: history refetch failed, keeping current tickets: %v", err)
		return err
	}

	tickets := projector.Project(logs, c.viewerID)

	c.mu.Lock()
	// Locally closed tickets stay closed even when the backend log has no
	// notion of closure.
	for i := range tickets {
		if c.closedIDs[tickets[i].ID] {
			tickets[i].Status = model.TicketStatusClosed
		}
	}
	c.tickets = tickets
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notifyUpdate(snapshot)
	return nil
}

// shouldRefetch applies the debounce rule for support_message bursts and
// stamps lastRefetchAt when the refetch is allowed.
func (c *Controller) shouldRefetch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastRefetchAt) < c.window {
		return false
	}
	c.lastRefetchAt = now
	return true
}

func (c *Controller) touchRefetchAt() {
	c.mu.Lock()
	c.lastRefetchAt = c.now()
	c.mu.Unlock()
}

func (c *Controller) markClosed(ticketID string) {
	if ticketID == "" {
		return
	}
	c.mu.Lock()
	c.closedIDs[ticketID] = true
	if idx := c.indexOfLocked(ticketID); idx >= 0 {
		c.tickets[idx].Status = model.TicketStatusClosed
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notifyUpdate(snapshot)
}

func (c *Controller) publish(title, body string) {
	if c.bridge == nil {
		return
	}
	c.bridge.Publish(context.Background(), title, body)
}

func (c *Controller) notifyUpdate(snapshot []model.Ticket) {
	if c.onUpdate != nil {
		c.onUpdate(snapshot)
	}
}

func (c *Controller) indexOfLocked(ticketID string) int {
	for i := range c.tickets {
		if c.tickets[i].ID == ticketID {
			return i
		}
	}
	return -1
}

func (c *Controller) sortLocked() {
	sort.SliceStable(c.tickets, func(i, j int) bool {
		return c.tickets[i].LastActivity.After(c.tickets[j].LastActivity)
	})
}

func (c *Controller) snapshotLocked() []model.Ticket {
	snapshot := make([]model.Ticket, len(c.tickets))
	for i, t := range c.tickets {
		snapshot[i] = copyTicket(t)
	}
	return snapshot
}

func copyTicket(t model.Ticket) model.Ticket {
	out := t
	out.Messages = make([]model.Message, len(t.Messages))
	copy(out.Messages, t.Messages)
	return out
}
