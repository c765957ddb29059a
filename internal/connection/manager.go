// Package connection owns the persistent websocket session to the messaging
// backend: dialing, the init handshake, outbound writes, the inbound read
// loop, and reconnection with linear backoff after unexpected closures. It
// carries no message semantics; decoded frames are handed to a single callback
// one at a time.
package connection

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"support-sync/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var ErrNotConnected = errors.New("connection: not connected")

type Config struct {
	URL string

	// BaseDelay is multiplied by the attempt number for each retry wait.
	BaseDelay time.Duration

	// MaxAttempts caps consecutive failed reconnects before giving up.
	MaxAttempts int

	HandshakeTimeout time.Duration
	PingInterval     time.Duration
}

const (
	defaultBaseDelay        = time.Second
	defaultMaxAttempts      = 5
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
)

type Manager struct {
	cfg Config

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	attempts   int
	retryTimer *time.Timer
	userClosed bool

	userID    string
	sessionID string
	onOpen    func()
	onFrame   func(model.InboundFrame)
}

func NewManager(cfg Config) *Manager {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	return &Manager{cfg: cfg, state: StateDisconnected}
}

// Connect opens the session for userID. If the session is already open the
// call is a no-op apart from invoking onOpen immediately. Dial and transport
// failures are never returned; they surface through ConnectionState.
func (m *Manager) Connect(userID string, onOpen func(), onFrame func(model.InboundFrame)) {
	m.mu.Lock()
	if m.state == StateConnected {
		m.mu.Unlock()
		if onOpen != nil {
			onOpen()
		}
		return
	}
	if m.state == StateConnecting {
		// A dial or retry is already in flight for this session.
		m.mu.Unlock()
		return
	}

	m.userID = userID
	m.sessionID = uuid.NewString()
	m.onOpen = onOpen
	m.onFrame = onFrame
	m.userClosed = false
	m.attempts = 0
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.dial()
}

func (m *Manager) dial() {
	m.mu.Lock()
	if m.userClosed {
		m.mu.Unlock()
		return
	}
	url := m.cfg.URL
	m.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		log.Printf("connection: dial %s failed: %v", url, err)
		m.mu.Lock()
		m.scheduleRetryLocked()
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.userClosed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.attempts = 0
	m.setStateLocked(StateConnected)
	onOpen := m.onOpen

	init := model.InitFrame{
		Type:      model.FrameTypeInit,
		UserID:    m.userID,
		SessionID: m.sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(init); err != nil {
		log.Printf("connection: init frame write failed: %v", err)
	} else {
		framesSent.Inc()
	}

	done := make(chan struct{})
	go m.readLoop(conn, done)
	go m.keepAlive(conn, done)
	m.mu.Unlock()

	log.Printf("connection: established session to %s", url)
	if onOpen != nil {
		onOpen()
	}
}

// Send writes one frame if the session is open. There is no offline queue:
// callers own the offline case.
func (m *Manager) Send(frame interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.conn == nil {
		framesDropped.Inc()
		log.Printf("connection: dropping outbound frame, state=%s", m.state)
		return ErrNotConnected
	}
	if err := m.conn.WriteJSON(frame); err != nil {
		log.Printf("connection: write failed: %v", err)
		return err
	}
	framesSent.Inc()
	return nil
}

// Disconnect closes the session with a normal-closure code and cancels any
// pending retry. A later Connect starts a fresh session.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userClosed = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.conn != nil {
		m.setStateLocked(StateClosing)
		deadline := time.Now().Add(time.Second)
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := m.conn.WriteControl(websocket.CloseMessage, closeMsg, deadline); err != nil {
			log.Printf("connection: close handshake failed: %v", err)
		}
		m.conn.Close()
		m.conn = nil
	}
	m.attempts = 0
	m.onOpen = nil
	m.onFrame = nil
	m.setStateLocked(StateClosed)
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

func (m *Manager) ConnectionState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts reports the current consecutive-failure count.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *Manager) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(conn, err)
			return
		}

		var frame model.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			framesDropped.Inc()
			log.Printf("connection: dropping malformed frame: %v", err)
			continue
		}
		framesReceived.Inc()

		m.mu.Lock()
		onFrame := m.onFrame
		m.mu.Unlock()
		if onFrame != nil {
			onFrame(frame)
		}
	}
}

func (m *Manager) handleClosed(conn *websocket.Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.userClosed || m.conn != conn {
		return
	}
	m.conn.Close()
	m.conn = nil

	log.Printf("connection: closed unexpectedly: %v", err)
	m.scheduleRetryLocked()
}

func (m *Manager) scheduleRetryLocked() {
	if m.userClosed {
		return
	}
	if m.attempts >= m.cfg.MaxAttempts {
		log.Printf("connection: giving up after %d attempts", m.attempts)
		m.setStateLocked(StateDisconnected)
		return
	}

	m.attempts++
	connAttempts.Inc()
	m.setStateLocked(StateConnecting)

	delay := m.cfg.BaseDelay * time.Duration(m.attempts)
	log.Printf("connection: retrying in %v (attempt %d/%d)", delay, m.attempts, m.cfg.MaxAttempts)
	m.retryTimer = time.AfterFunc(delay, m.dial)
}

// keepAlive pings on an interval so intermediaries keep the socket open. A
// failed ping lets the read loop observe the broken connection.
func (m *Manager) keepAlive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.mu.Lock()
			current := m.conn
			m.mu.Unlock()
			if current != conn {
				return
			}
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Printf("connection: ping failed: %v", err)
				return
			}
		}
	}
}

func (m *Manager) setStateLocked(s State) {
	m.state = s
	setStateMetric(s)
}
