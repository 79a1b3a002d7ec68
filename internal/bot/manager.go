package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sitechat/sitechat/internal/chat"
	"github.com/sitechat/sitechat/internal/store"
)

// LaunchError reports that a bot could not be brought online for a token.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("failed to launch bot: %v", e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

// RecordSource yields the dataset a conversation is bound to. Each message
// re-reads the record so edits to stored data take effect immediately.
type RecordSource interface {
	GetRecord(ctx context.Context, id string) (store.Record, error)
}

// Responder answers a caller's question over a dataset.
type Responder interface {
	Ask(ctx context.Context, dataset map[string]any, query string) (string, error)
}

// Manager keeps at most one live Connection per bot token.
type Manager struct {
	mu          sync.Mutex
	conns       map[string]*Connection
	dialer      Dialer
	records     RecordSource
	responder   Responder
	pollTimeout time.Duration
	logger      *log.Logger
}

func NewManager(dialer Dialer, records RecordSource, responder Responder, pollTimeout time.Duration, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stdout, "[BOT] ", log.LstdFlags)
	}
	return &Manager{
		conns:       make(map[string]*Connection),
		dialer:      dialer,
		records:     records,
		responder:   responder,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Connect binds a token to a dataset and brings the bot online. A live
// connection for the same token is stopped and replaced.
func (m *Manager) Connect(ctx context.Context, token, datasetID string) error {
	if token == "" || datasetID == "" {
		return fmt.Errorf("token and dataset id are required")
	}
	if _, err := m.records.GetRecord(ctx, datasetID); err != nil {
		return fmt.Errorf("resolve dataset: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.conns[token]; ok {
		m.logger.Printf("replacing existing connection for token %s", redactToken(token))
		prev.stop()
		delete(m.conns, token)
	}

	transport, err := m.dialer(ctx, token, m.pollTimeout)
	if err != nil {
		return &LaunchError{Err: err}
	}

	conn := newConnection(transport, datasetID, m.records, m.responder, m.logger)
	m.conns[token] = conn
	go conn.run()
	m.logger.Printf("bot connected for token %s, dataset %s", redactToken(token), datasetID)
	return nil
}

// Disconnect stops the connection for a token if one is live.
func (m *Manager) Disconnect(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.conns[token]; ok {
		conn.stop()
		delete(m.conns, token)
	}
}

// StopAll stops every live connection. Used on process shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for token, conn := range m.conns {
		conns = append(conns, conn)
		delete(m.conns, token)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		conn.stop()
	}
}

// Active reports how many connections are live.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

func redactToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:8] + "****"
}

// Connection is one live bot serving one dataset. Every caller gets a
// session bound to the connection's dataset.
type Connection struct {
	transport Transport
	datasetID string
	records   RecordSource
	responder Responder
	logger    *log.Logger

	sessionMu sync.Mutex
	sessions  map[int64]string

	stopOnce sync.Once
	done     chan struct{}
}

func newConnection(transport Transport, datasetID string, records RecordSource, responder Responder, logger *log.Logger) *Connection {
	return &Connection{
		transport: transport,
		datasetID: datasetID,
		records:   records,
		responder: responder,
		logger:    logger,
		sessions:  make(map[int64]string),
		done:      make(chan struct{}),
	}
}

func (c *Connection) run() {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-c.transport.Updates():
			if !ok {
				return
			}
			c.handle(msg)
		}
	}
}

func (c *Connection) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.transport.Stop()
	})
}

const greeting = "Hello! Ask me anything about this website and I'll do my best to help."

func (c *Connection) handle(msg Message) {
	ctx := context.Background()

	datasetID := c.ensureSession(msg.CallerID)

	if msg.Text == "/start" {
		if err := c.transport.SendMessage(ctx, msg.ChatID, greeting); err != nil {
			c.logger.Printf("send greeting: %v", err)
		}
		return
	}

	if err := c.transport.SendTyping(ctx, msg.ChatID); err != nil {
		c.logger.Printf("send typing: %v", err)
	}

	reply := c.answer(ctx, datasetID, msg.Text)
	if err := c.transport.SendMessage(ctx, msg.ChatID, reply); err != nil {
		c.logger.Printf("send reply: %v", err)
	}
}

// answer resolves the caller's dataset and dispatches the question. Any
// failure degrades to the fixed fallback text so the conversation survives.
func (c *Connection) answer(ctx context.Context, datasetID, query string) string {
	rec, err := c.records.GetRecord(ctx, datasetID)
	if err != nil {
		c.logger.Printf("fetch dataset %s: %v", datasetID, err)
		return chat.FallbackText
	}

	var dataset map[string]any
	if err := json.Unmarshal(rec.Data, &dataset); err != nil {
		c.logger.Printf("decode dataset %s: %v", datasetID, err)
		return chat.FallbackText
	}

	reply, err := c.responder.Ask(ctx, dataset, query)
	if err != nil {
		c.logger.Printf("dispatch query: %v", err)
		return chat.FallbackText
	}
	return reply
}

func (c *Connection) ensureSession(callerID int64) string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if id, ok := c.sessions[callerID]; ok {
		return id
	}
	c.sessions[callerID] = c.datasetID
	return c.datasetID
}
