// Package hud implements HudBroadcaster: a localhost, throttled
// WebSocket publisher for scroll, touch, and camera events consumed by an
// external visualizer.
package hud

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Publisher is the interface VelocityDispatcher publishes HUD events through.
type Publisher interface {
	Publish(msg any)
}

// Config holds the broadcaster's throttling parameters and the overlay
// placement sent to clients in the initial config message.
type Config struct {
	SessionToken    string
	HudHz           float64
	CameraHz        float64
	CameraFrameSkip int
	Position        string
	Opacity         float64
}

// Broadcaster is a localhost WebSocket publisher with per-message-type
// throttling. Zero or one client, or many; events are dropped entirely when no
// client is connected, and a message is dropped for a client whose send queue
// is full.
type Broadcaster struct {
	cfg Config

	mu      sync.RWMutex
	clients map[*hudClient]bool

	throttleMu sync.Mutex
	lastSentAt map[MessageType]time.Time
	cameraTick int
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(cfg Config) *Broadcaster {
	return &Broadcaster{
		cfg:        cfg,
		clients:    make(map[*hudClient]bool),
		lastSentAt: make(map[MessageType]time.Time),
	}
}

// Publish fans a typed HUD event out to every connected client, throttled per
// message type to hud_hz (scroll/touchproof) or camera_hz (camera), and gated
// on at least one client having announced both expanded mode and
// camera_enabled for camera frames.
func (b *Broadcaster) Publish(msg any) {
	var data []byte

	switch m := msg.(type) {
	case ScrollMessage:
		if !b.allow(MsgScroll, b.cfg.HudHz) {
			return
		}
		data = encode(MsgScroll, m)
	case HideMessage:
		data = encode(MsgHide, m)
	case TouchProofMessage:
		if !b.allow(MsgTouchProof, b.cfg.HudHz) {
			return
		}
		data = encode(MsgTouchProof, m)
	case CameraMessage:
		if !b.allowCamera() {
			return
		}
		data = encode(MsgCamera, m)
	case ConfigMessage:
		data = encode(MsgConfig, m)
	default:
		return
	}

	b.broadcast(data)
}

func (b *Broadcaster) allow(t MessageType, hz float64) bool {
	if hz <= 0 {
		return true
	}
	interval := time.Duration(float64(time.Second) / hz)

	b.throttleMu.Lock()
	defer b.throttleMu.Unlock()

	now := time.Now()
	if last, ok := b.lastSentAt[t]; ok && now.Sub(last) < interval {
		return false
	}
	b.lastSentAt[t] = now
	return true
}

func (b *Broadcaster) allowCamera() bool {
	if !b.anyExpanded() {
		return false
	}
	if !b.allow(MsgCamera, b.cfg.CameraHz) {
		return false
	}
	if b.cfg.CameraFrameSkip > 1 {
		b.throttleMu.Lock()
		b.cameraTick++
		skip := b.cameraTick%b.cfg.CameraFrameSkip != 0
		b.throttleMu.Unlock()
		if skip {
			return false
		}
	}
	return true
}

func (b *Broadcaster) anyExpanded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		if c.expanded() {
			return true
		}
	}
	return false
}

func (b *Broadcaster) broadcast(data []byte) {
	if data == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		c.send(data)
	}
}

// ServeHTTP upgrades the request to a WebSocket connection, validating
// the session-token query parameter if one is configured, and emits a config
// message first.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if b.cfg.SessionToken != "" && r.URL.Query().Get("token") != b.cfg.SessionToken {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hud: websocket upgrade error: %v", err)
		return
	}

	c := &hudClient{
		conn:   conn,
		sendCh: make(chan []byte, 64),
	}

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	c.sendRaw(encode(MsgConfig, ConfigMessage{
		Position: b.cfg.Position,
		Opacity:  b.cfg.Opacity,
	}))

	go c.writePump()
	go b.readPump(c)
}

func (b *Broadcaster) readPump(c *hudClient) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, c)
		b.mu.Unlock()
		c.close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "mode":
			if msg.Expanded != nil {
				c.setExpanded(*msg.Expanded)
			}
		case "camera_enabled":
			if msg.Enabled != nil {
				c.setCameraEnabled(*msg.Enabled)
			}
		}
	}
}

// hudClient is a single connected WebSocket client.
type hudClient struct {
	conn   *websocket.Conn
	sendCh chan []byte

	mu            sync.Mutex
	modeExpanded  bool
	cameraEnabled bool
	closed        bool
}

func (c *hudClient) expanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeExpanded && c.cameraEnabled
}

func (c *hudClient) setExpanded(expanded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modeExpanded = expanded
}

func (c *hudClient) setCameraEnabled(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cameraEnabled = v
}

func (c *hudClient) send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.sendCh <- data:
	default:
	}
}

func (c *hudClient) sendRaw(data []byte) {
	if data == nil {
		return
	}
	c.send(data)
}

func (c *hudClient) writePump() {
	defer c.conn.Close()
	for data := range c.sendCh {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (c *hudClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
}
