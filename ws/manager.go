package ws

import (
	"sync"
	"time"

	"health-monitor/entities"
	"health-monitor/logging"
	"health-monitor/metrics"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// EventReadingAdded is pushed after a reading is stored.
const EventReadingAdded = "reading_added"

// Event is the message sent to dashboard connections.
type Event struct {
	Type    string              `json:"type"`
	Reading entities.HealthData `json:"reading"`
}

// Client is one open dashboard connection.
type Client struct {
	ID     string
	UserID uint
	conn   *websocket.Conn
	mu     sync.Mutex
}

func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{ID: uuid.New().String(), UserID: userID, conn: conn}
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of open connections per user.
type Manager struct {
	mu      sync.RWMutex
	clients map[uint]map[string]*Client // userID -> clientID -> client
}

func NewManager() *Manager {
	return &Manager{clients: make(map[uint]map[string]*Client)}
}

// Register adds a connection for its user.
func (m *Manager) Register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clients[c.UserID] == nil {
		m.clients[c.UserID] = make(map[string]*Client)
	}
	m.clients[c.UserID][c.ID] = c
	metrics.LiveConnections.Inc()
}

// Unregister removes and closes a connection.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	set, ok := m.clients[c.UserID]
	if ok {
		if _, present := set[c.ID]; present {
			delete(set, c.ID)
			metrics.LiveConnections.Dec()
		}
		if len(set) == 0 {
			delete(m.clients, c.UserID)
		}
	}
	m.mu.Unlock()
	_ = c.conn.Close()
}

// SendToUser pushes v as JSON to every connection of userID and returns
// how many received it. Connections that fail to write are dropped.
func (m *Manager) SendToUser(userID uint, v any) int {
	payload, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode live update")
		return 0
	}

	m.mu.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for _, c := range m.clients[userID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(payload); err != nil {
			logging.Warn().Err(err).Str("client", c.ID).Msg("dropping live connection")
			m.Unregister(c)
			continue
		}
		sent++
	}
	return sent
}

// Count returns the number of open connections for userID.
func (m *Manager) Count(userID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

// ReadingAdded pushes a reading_added event to the user's connections.
func (m *Manager) ReadingAdded(userID uint, data entities.HealthData) {
	n := m.SendToUser(userID, Event{Type: EventReadingAdded, Reading: data})
	if n > 0 {
		logging.Debug().Uint("user_id", userID).Int("connections", n).Msg("live update sent")
	}
}
