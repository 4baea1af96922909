package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"evlogger/internal/models"
)

// Hub tracks live stream clients and fans persisted log entries out to
// them. The stream is one-way: inbound messages are only read to detect
// closed connections.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*client]bool
	logger       *zap.Logger
	pingInterval time.Duration
}

// NewHub builds the stream hub.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		clients:      make(map[*client]bool),
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// Start begins the ping loop to keep connections alive.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			for c := range h.clients {
				_ = c.ping()
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastLog pushes a persisted log entry to every connected client.
func (h *Hub) BroadcastLog(entry *models.LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		h.logger.Warn("failed to encode log entry for stream", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.send(data)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}
