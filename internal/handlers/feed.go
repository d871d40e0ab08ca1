package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"zeus-backend/internal/infrastructure/logging"
	"zeus-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

// FeedHandler streams category snapshots over a websocket. Every message is
// the full, sorted list.
type FeedHandler struct {
	feed     CategoryFeed
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewFeedHandler creates a handler. checkOrigin may be nil to accept any origin.
func NewFeedHandler(feed CategoryFeed, checkOrigin func(*http.Request) bool, logger *zap.Logger) *FeedHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.Named("category_stream"),
	}
}

// Stream handles GET /api/v1/categories/feed
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sub, err := h.feed.Subscribe(r.Context())
	if err != nil {
		api.Error(w, http.StatusServiceUnavailable, "category feed unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	logger := logging.WithContext(r.Context(), h.logger).With(zap.String("connection_id", uuid.New().String()))
	logger.Debug("feed client connected")

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, sub.C, closed, logger)

	sub.Close()
	conn.Close()
	logger.Debug("feed client disconnected")
}

// readPump discards client messages and keeps the read deadline fresh. It
// closes done when the peer goes away.
func (h *FeedHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards snapshots until the subscription ends or the peer leaves.
func (h *FeedHandler) writePump(conn *websocket.Conn, snapshots <-chan []string, peerGone <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case names, ok := <-snapshots:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The feed stopped.
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}

			msg, err := json.Marshal(api.CategoryListResponse{Categories: names})
			if err != nil {
				logger.Error("failed to encode snapshot", zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("failed to write snapshot", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("failed to send ping", zap.Error(err))
				return
			}

		case <-peerGone:
			return
		}
	}
}
