package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Envelope сообщение в ленте: тип позволяет фронтенду выбрать обработчик.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub держит подключения по пользователям. Один пользователь может быть
// подключён с нескольких вкладок.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	byUser map[uint64]map[*Client]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		byUser:     make(map[uint64]map[*Client]struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию до отмены ctx, затем закрывает все подключения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.byUser[c.UserID] == nil {
				h.byUser[c.UserID] = make(map[*Client]struct{})
			}
			h.byUser[c.UserID][c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("WebSocket: клиент зарегистрирован", zap.Uint64("userID", c.UserID))
		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()
			h.logger.Debug("WebSocket: клиент отключён", zap.Uint64("userID", c.UserID))
		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.byUser {
				for c := range clients {
					h.drop(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop вызывается под h.mu.
func (h *Hub) drop(c *Client) {
	clients, ok := h.byUser[c.UserID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.byUser, c.UserID)
	}
}

// Register добавляет клиента. После остановки hub возвращает false.
func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ConnectedUsers: id пользователей, у которых есть хотя бы одно подключение.
func (h *Hub) ConnectedUsers() []uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint64, 0, len(h.byUser))
	for id := range h.byUser {
		ids = append(ids, id)
	}
	return ids
}

// SendToUser кладёт сообщение во все подключения пользователя. Медленный
// клиент с полным буфером пропускает сообщение, остальных это не задерживает.
func (h *Hub) SendToUser(userID uint64, messageType string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Type: messageType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("WebSocket: буфер клиента переполнен, сообщение пропущено",
				zap.Uint64("userID", userID), zap.String("type", messageType))
		}
	}
	return nil
}
