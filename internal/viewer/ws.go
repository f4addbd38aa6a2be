package viewer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rlviz/internal/logging"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsSendBufferSize = 8
)

// eventStoreReplaced tells clients to drop cached attribute and timestep
// metadata and re-fetch it.
const eventStoreReplaced = "store_replaced"

type wsEvent struct {
	Type         string `json:"type"`
	StorePath    string `json:"store_path,omitempty"`
	NumTimesteps int    `json:"num_timesteps,omitempty"`
	Timestamp    string `json:"timestamp"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// wsHub tracks connected clients and fans events out to them. Slow clients
// are dropped rather than blocking the broadcaster.
type wsHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *slog.Logger
}

func newWSHub(logger *slog.Logger) *wsHub {
	return &wsHub{
		clients: make(map[*wsClient]struct{}),
		logger:  logging.NewComponentLogger(logger, "ws"),
	}
}

func (h *wsHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", slog.Int("total", total))

	go h.writePump(client)
	go h.readPump(client)
}

func (h *wsHub) remove(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

// readPump discards client messages; it exists to observe disconnects and
// answer pings.
func (h *wsHub) readPump(client *wsClient) {
	defer h.remove(client)
	client.conn.SetReadLimit(1024)
	_ = client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *wsHub) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcastStoreReplaced notifies every connected client of the new store.
func (h *wsHub) broadcastStoreReplaced(path string, numTimesteps int) {
	payload, err := json.Marshal(wsEvent{
		Type:         eventStoreReplaced,
		StorePath:    path,
		NumTimesteps: numTimesteps,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Buffer full; the write pump is stuck, drop the client.
			delete(h.clients, client)
			close(client.send)
			_ = client.conn.Close()
		}
	}
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		_ = client.conn.Close()
	}
}
