package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
	"github.com/coindeck/coindeck_backend/internal/dto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the HTTP layer.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second // must be less than wsPongWait

	// wsTopLimit bounds how many rows each snapshot broadcast carries.
	wsTopLimit = 50
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// PriceHub fans newly published listing snapshots out to connected
// dashboard clients. It subscribes to MarketService.OnRefresh.
type PriceHub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewPriceHub creates an empty hub.
func NewPriceHub(logger *slog.Logger) *PriceHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceHub{
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// Broadcast pushes the top slice of a snapshot to every connected client.
// Slow clients are dropped rather than allowed to block the broadcast.
func (h *PriceHub) Broadcast(snap *domain.Snapshot) {
	payload, err := json.Marshal(gin.H{
		"type":      "snapshot",
		"fetchedAt": snap.FetchedAt.UnixMilli(),
		"records":   dto.ToListCurrencyResponse(snap.Top(wsTopLimit)),
	})
	if err != nil {
		h.logger.Error("Failed to marshal snapshot broadcast", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// HandlePrices upgrades the connection and streams snapshot broadcasts
// until the client goes away.
func (h *PriceHub) HandlePrices(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Price stream client connected", slog.Int("total_clients", total))

	go h.writePump(client)
	go h.readPump(client)
}

func (h *PriceHub) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// readPump discards inbound messages; the stream is one-way. It exists to
// process pong frames and notice disconnects.
func (h *PriceHub) readPump(client *wsClient) {
	defer h.drop(client)

	client.conn.SetReadLimit(512)
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

func (h *PriceHub) drop(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.conn.Close()
	h.logger.Info("Price stream client disconnected", slog.Int("total_clients", total))
}
