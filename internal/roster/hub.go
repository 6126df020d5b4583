// AngelaMos | 2026
// hub.go

package roster

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Dramos02/employee-directory/internal/employee"
	"github.com/Dramos02/employee-directory/internal/middleware"
)

const (
	authTimeout    = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	clientBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Bearer auth happens in-band after the upgrade, so origin
		// checks add nothing here.
		return true
	},
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type snapshotPayload struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
}

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
	detach func()
}

// Hub streams the roster to connected administrators. A viewer
// connects, authenticates with its first message, receives one
// snapshot, then one message per subsequent addition.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*client
	projection *Projection
	verifier   middleware.TokenVerifier
	logger     *slog.Logger
}

func NewHub(
	projection *Projection,
	verifier middleware.TokenVerifier,
	logger *slog.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		projection: projection,
		verifier:   verifier,
		logger:     logger,
	}
}

func (h *Hub) ConnectedViewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and runs the viewer session. The first
// client message must be {"token": "..."} carrying an admin access
// token; anything else closes the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	claims, ok := h.authenticate(r.Context(), conn)
	if !ok {
		//nolint:errcheck // connection is being abandoned
		_ = conn.Close()
		return
	}

	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, clientBuffer),
		logger: h.logger,
	}
	c.detach = func() { h.remove(c) }

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("roster viewer connected",
		"client_id", c.id,
		"employee_id", claims.EmployeeID,
	)

	// Snapshot and watcher registration are atomic, so the viewer sees
	// every roster entry exactly once.
	snapshot, additions, cancelWatch := h.projection.SnapshotAndWatch(clientBuffer)

	c.enqueue(wsMessage{
		Type: "snapshot",
		Data: snapshotPayload{Entries: snapshot, Count: len(snapshot)},
	})

	go c.writePump()
	go c.forwardAdditions(additions)
	go c.readPump(cancelWatch)
}

func (h *Hub) authenticate(
	ctx context.Context,
	conn *websocket.Conn,
) (*middleware.AccessTokenClaims, bool) {
	claims, ok := authenticateConn(ctx, conn, h.verifier)
	if !ok {
		return nil, false
	}

	if claims.Role != employee.RoleAdmin {
		//nolint:errcheck // best-effort error report
		_ = conn.WriteJSON(wsMessage{Type: "error", Data: "admin role required"})
		return nil, false
	}

	return claims, true
}

// authenticateConn runs the in-band handshake shared by the roster and
// profile endpoints: the first client message must be {"token": "..."}
// carrying a valid access token. On success the read deadline switches
// to the pong cycle.
func authenticateConn(
	ctx context.Context,
	conn *websocket.Conn,
	verifier middleware.TokenVerifier,
) (*middleware.AccessTokenClaims, bool) {
	//nolint:errcheck // deadline failure surfaces on the read
	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))

	var authMsg struct {
		Token string `json:"token"`
	}
	if err := conn.ReadJSON(&authMsg); err != nil {
		//nolint:errcheck // best-effort close frame
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.ClosePolicyViolation, "authentication required"))
		return nil, false
	}

	claims, err := verifier.VerifyAccessToken(ctx, authMsg.Token)
	if err != nil {
		//nolint:errcheck // best-effort error report
		_ = conn.WriteJSON(wsMessage{Type: "error", Data: "invalid token"})
		return nil, false
	}

	//nolint:errcheck // deadline failure surfaces on the read
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return claims, true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

func (c *client) enqueue(msg wsMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal stream message failed", "error", err)
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("stream client send buffer full, dropping",
			"client_id", c.id,
			"type", msg.Type,
		)
	}
}

// forwardAdditions is the sole sender on c.send after the snapshot
// and therefore owns closing it. The watch cancel closes additions;
// entries still buffered there are relayed before c.send closes, and
// only then does writePump emit the close frame.
func (c *client) forwardAdditions(additions <-chan Entry) {
	defer close(c.send)

	for entry := range additions {
		c.enqueue(wsMessage{Type: "added", Data: entry})
	}
}

// readPump drains client frames and tears the session down when the
// connection drops. Clients send nothing after the auth message, so
// inbound frames beyond pings are ignored.
func (c *client) readPump(cancelWatch func()) {
	defer func() {
		cancelWatch()
		if c.detach != nil {
			c.detach()
		}
		//nolint:errcheck // connection already failing
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("stream client read error",
					"client_id", c.id,
					"error", err,
				)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // connection being torn down
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			//nolint:errcheck // write error surfaces on WriteMessage
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // best-effort close frame
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			//nolint:errcheck // write error surfaces on WriteMessage
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
