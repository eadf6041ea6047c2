package feed

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

// ClientMsg é a mensagem do cliente: subscribe | unsubscribe | ping.
// PredictionID é obrigatório em subscribe/unsubscribe.
type ClientMsg struct {
	Type         string `json:"type"`
	PredictionID uint64 `json:"predictionId"`
}

// Hub mantém as conexões WebSocket inscritas por previsão
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[uint64]map[*conn]struct{}
}

// conn serializa escritas: gorilla não aceita writers concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[uint64]map[*conn]struct{}),
	}
}

// HandleWS atende uma conexão até o cliente desconectar
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.PredictionID]; !ok {
				h.subs[msg.PredictionID] = make(map[*conn]struct{})
			}
			h.subs[msg.PredictionID][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.unsubscribe(msg.PredictionID, c)
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(id uint64, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[id]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
}

// Subscribers conta as conexões inscritas numa previsão
func (h *Hub) Subscribers(id uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[id])
}

// Broadcast envia o envelope para quem assina a previsão
func (h *Hub) Broadcast(e events.Envelope) {
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.subs[e.PredictionID]))
	for c := range h.subs[e.PredictionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, c := range targets {
		_ = c.write(b)
	}
}
