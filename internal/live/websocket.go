package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"todos/internal/todo"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LoadFunc returns the current collection.
type LoadFunc func(ctx context.Context) ([]todo.Todo, error)

// ServeWS upgrades the request to a websocket, sends the current
// collection, then streams every published snapshot until either side
// closes. Messages from the client are read and discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, load LoadFunc) {
	// Subscribe before loading so no publish between the two is lost.
	updates, cancel := h.Subscribe()
	defer cancel()

	todos, err := load(r.Context())
	if err != nil {
		h.logger.Error("live: load initial snapshot", "err", err)
		fetchFailed(w)
		return
	}
	if todos == nil {
		todos = []todo.Todo{}
	}
	initial, err := json.Marshal(todos)
	if err != nil {
		fetchFailed(w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Debug("live: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	if err := write(conn, websocket.TextMessage, initial); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-updates:
			if !ok {
				// Dropped as a slow subscriber.
				_ = write(conn, websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"))
				return
			}
			if err := write(conn, websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readPump consumes client frames so pongs and close frames are handled.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}

func fetchFailed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"Failed to fetch todos"}` + "\n"))
}
