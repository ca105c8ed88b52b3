package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/projection"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WatchHandler streams board snapshots over a websocket.
//
// Each message is the COMPLETE sorted board, not a diff — the same
// contract the projection has with the store. A client that misses an
// intermediate snapshot loses nothing, because the next message fully
// replaces it. That is also why the subscription channel can drop
// stale snapshots instead of queueing them.
type WatchHandler struct {
	list   *projection.EventList
	logger *slog.Logger
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(list *projection.EventList, logger *slog.Logger) *WatchHandler {
	return &WatchHandler{list: list, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API serves CLI devices, not browsers; there is no cookie
	// credential for a hostile page to ride on.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWatch upgrades the connection and streams snapshots until the
// client disconnects.
//
// HTTP: GET /api/events/watch
func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	updates, cancel := h.list.Subscribe()
	defer cancel()

	// Reader goroutine: the client sends nothing meaningful, but we must
	// keep reading to process pong frames and notice the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// The subscription only fires on change, so send the current board
	// first — a fresh client should not wait for someone else's write.
	if err := h.writeSnapshot(conn, h.list.Snapshot()); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case records, ok := <-updates:
			if !ok {
				// Projection shut down; tell the client we're going away.
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := h.writeSnapshot(conn, records); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WatchHandler) writeSnapshot(conn *websocket.Conn, records []model.EventRecord) error {
	out := make([]eventResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toEventResponse(rec))
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(out); err != nil {
		h.logger.Debug("watch client gone", slog.String("error", err.Error()))
		return err
	}
	return nil
}
