package display

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Displays live on the checkpoint's own network segment.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans rendered markup out to every connected display client.
// Clients that are no longer writable are dropped, never queued: a display
// that reconnects should show the next read, not a backlog.
type Hub struct {
	conns   sync.Map // client id -> *websocket.Conn
	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{}
}

// HandleWS upgrades an HTTP request into a display connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("display upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	h.conns.Store(id, conn)
	log.Infof("display connected (%s), %d total", id, h.ClientCount())

	// Displays never send application data; the read loop just notices
	// when they go away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(id, conn)
				return
			}
		}
	}()
}

// Broadcast pushes markup to every open client.
func (h *Hub) Broadcast(markup string) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	payload := []byte(markup)
	h.conns.Range(func(key, value any) bool {
		conn := value.(*websocket.Conn)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(key.(string), conn)
		}
		return true
	})
}

func (h *Hub) ClientCount() int {
	n := 0
	h.conns.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func (h *Hub) drop(id string, conn *websocket.Conn) {
	if _, loaded := h.conns.LoadAndDelete(id); loaded {
		_ = conn.Close()
		log.Infof("display disconnected (%s), %d remain", id, h.ClientCount())
	}
}
