// websocket/hub.go
package websocket

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeImportProgress MessageType = "IMPORT_PROGRESS"
	MessageTypeError          MessageType = "ERROR"
)

type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	BatchID   string      `json:"batchId,omitempty"`
}

// ImportProgressPayload is pushed to subscribers as the importer walks a
// batch's rows.
type ImportProgressPayload struct {
	BatchID   string `json:"batch_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

type Client struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Conn    *websocket.Conn
	Hub     *Hub
	Send    chan WebSocketMessage
	Batches map[string]bool
	mu      sync.RWMutex
}

// Hub fans import-progress events out to connected clients. Each client
// subscribes to the batches it is watching.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan WebSocketMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan WebSocketMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// PublishImportProgress implements the importer's progress publisher. Only
// clients subscribed to the batch receive the event.
func (h *Hub) PublishImportProgress(batchID uuid.UUID, processed, total int, status string) {
	h.BroadcastToBatch(batchID.String(), WebSocketMessage{
		Type: MessageTypeImportProgress,
		Payload: ImportProgressPayload{
			BatchID:   batchID.String(),
			Processed: processed,
			Total:     total,
			Status:    status,
		},
		Timestamp: time.Now(),
		BatchID:   batchID.String(),
	})
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message WebSocketMessage) {
	h.broadcast <- message
}

// BroadcastToBatch sends a message to clients subscribed to a specific batch.
// Broadcasts run concurrently from the import workers, so eviction of slow
// clients is deferred until the read lock is released.
func (h *Hub) BroadcastToBatch(batchID string, message WebSocketMessage) {
	var doomed []*Client

	h.mu.RLock()
	for client := range h.clients {
		client.mu.RLock()
		_, isSubscribed := client.Batches[batchID]
		client.mu.RUnlock()

		if isSubscribed {
			select {
			case client.Send <- message:
			default:
				doomed = append(doomed, client)
			}
		}
	}
	h.mu.RUnlock()

	h.evict(doomed)
}

// broadcastToAll sends a message to all connected clients
func (h *Hub) broadcastToAll(message WebSocketMessage) {
	var doomed []*Client

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			doomed = append(doomed, client)
		}
	}
	h.mu.RUnlock()

	h.evict(doomed)
}

// evict drops clients whose send buffers stayed full. Membership is
// re-checked under the write lock so a concurrent unregister or another
// broadcast cannot close Send twice.
func (h *Hub) evict(doomed []*Client) {
	if len(doomed) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range doomed {
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.Send)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscribeToBatch adds a batch to the client's subscription
func (c *Client) SubscribeToBatch(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Batches == nil {
		c.Batches = make(map[string]bool)
	}
	c.Batches[batchID] = true
}

// UnsubscribeFromBatch removes a batch from the client's subscription
func (c *Client) UnsubscribeFromBatch(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Batches, batchID)
}
