package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout   = 10 * time.Second
	readDeadline   = 60 * time.Second
	sendBufferSize = 16
)

type client struct {
	ws     *websocket.Conn
	out    chan []byte
	logger *zap.Logger
}

func (c *client) send(msg []byte) {
	select {
	case c.out <- msg:
	default:
		c.logger.Warn("dropping stream message, client buffer full")
	}
}

func (c *client) ping() error {
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.PingMessage, []byte("ping"))
}

func (c *client) writePump() {
	for msg := range c.out {
		c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump drains inbound frames so close and pong handling work.
func (c *client) readPump(onClose func()) {
	defer onClose()
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(readDeadline))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// Server upgrades HTTP connections for the live status stream.
type Server struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for the /ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		ws:     conn,
		out:    make(chan []byte, sendBufferSize),
		logger: s.logger,
	}
	s.hub.add(c)
	s.logger.Info("stream client connected", zap.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump(func() {
		s.hub.remove(c)
		close(c.out)
		_ = conn.Close()
	})
}
