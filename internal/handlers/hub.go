// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 32
	writeTimeout = 3 * time.Second
)

// client is one operator socket. Its writer goroutine drains send in order.
// send is only closed by the hub, with the hub lock held, after removing the client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans game events out to every socket of one game. broadcast is called with the
// game lock held, so it never blocks and never touches the game.
type hub struct {
	gameID uuid.UUID
	log    *logrus.Entry

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(gameID uuid.UUID, logger *logrus.Logger) *hub {
	return &hub{
		gameID:  gameID,
		log:     logger.WithField("game", gameID),
		clients: make(map[*client]struct{}),
	}
}

// add registers conn with initial as its first queued message and starts its writer.
func (h *hub) add(conn *websocket.Conn, initial []byte) *client {
	c := h.attach(conn, initial)
	go h.writeLoop(c)
	return c
}

// attach registers a client without starting its writer. initial is queued before the
// client becomes visible to broadcast.
func (h *hub) attach(conn *websocket.Conn, initial []byte) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- initial
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// drop removes c and stops its writer. Safe to call more than once.
func (h *hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *hub) dropLocked(c *client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	close(c.send)
	return true
}

// broadcast implements game.Game.BroadcastFn. A client too slow to keep up is disconnected.
func (h *hub) broadcast(ev game.GameEvent) {
	if ev.State != nil {
		s := publicState(*ev.State)
		ev.State = &s
	}
	data := game.EventBytes(ev)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("client send buffer full, disconnecting")
			h.dropLocked(c)
			go c.conn.Close(websocket.StatusPolicyViolation, "too slow")
		}
	}
}

// sendTo queues a private message for one client. Dropped if its buffer is full.
func (h *hub) sendTo(c *client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("client send buffer full, dropping private message")
	}
}

func (h *hub) writeLoop(c *client) {
	for data := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.log.WithError(err).Debug("socket write failed")
			h.drop(c)
			_ = c.conn.Close(websocket.StatusInternalError, "write failed")
			for range c.send {
			}
			return
		}
	}
}

func (h *hub) closeAll(reason string) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
		h.dropLocked(c)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusNormalClosure, reason)
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// publicState hides the PIN hash from clients.
func publicState(s game.State) game.State {
	s.PinHash = ""
	return s
}
