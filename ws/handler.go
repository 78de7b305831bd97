package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleCommentsWebSocket subscribes the caller to change signals. It blocks
// until the peer disconnects.
func (h *Hub) HandleCommentsWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.Register(conn)
	hello, _ := json.Marshal(Event{Type: EventConnected, Message: "subscribed to comment changes"})
	h.sendTo(conn, hello)

	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("subscriber connected")
	h.readPump(conn)
	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("subscriber disconnected")
}
