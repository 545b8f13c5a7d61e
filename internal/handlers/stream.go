package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/search"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamMessage is what clients send; search text is debounced before it runs.
type streamMessage struct {
	Search *string `json:"search"`
}

// StreamHandler handles GET /api/stream, pushing every hub event to the socket.
func StreamHandler(hub *events.Hub, sr *search.State, debounce time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log := logger.With(zap.String("request_id", c.GetString(requestIDKey)))
		debouncer := search.NewDebouncer(debounce, func(text string) {
			if err := sr.Search(ctx, text); err != nil && !errors.Is(err, search.ErrSuperseded) {
				log.Debug("stream search failed", zap.String("query", text), zap.Error(err))
			}
		})
		defer debouncer.Stop()

		evs, unsubscribe := hub.Subscribe(32)
		defer unsubscribe()

		go readPump(conn, debouncer, cancel, log)

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case e, ok := <-evs:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					log.Debug("stream write failed", zap.Error(err))
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}

// readPump feeds inbound search text to the debouncer until the peer goes away.
func readPump(conn *websocket.Conn, debouncer *search.Debouncer, done context.CancelFunc, log *zap.Logger) {
	defer done()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("stream read failed", zap.Error(err))
			}
			return
		}
		if msg.Search != nil {
			debouncer.Push(*msg.Search)
		}
	}
}
