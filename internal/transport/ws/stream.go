// Package ws streams the session view to websocket clients.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
	"github.com/heartmarshall/notesync-backend/internal/transport/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// viewSource is the part of notesync.Session the stream observes.
type viewSource interface {
	Snapshot() notesync.View
	Subscribe(listener func(notesync.View)) func()
}

// Message is one frame sent to the client: the full view after a change.
type Message struct {
	Version uint64                   `json:"version"`
	Notes   map[string][]NoteMessage `json:"notes"`
	CanUndo bool                     `json:"canUndo"`
	CanRedo bool                     `json:"canRedo"`
	Status  string                   `json:"status"`
}

// NoteMessage is a note inside a Message.
type NoteMessage struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func toMessage(v notesync.View) Message {
	msg := Message{
		Version: v.Version,
		Notes:   make(map[string][]NoteMessage, len(domain.Categories())),
		CanUndo: v.CanUndo,
		CanRedo: v.CanRedo,
		Status:  v.Status.String(),
	}
	for _, c := range domain.Categories() {
		notes := make([]NoteMessage, 0, len(v.Notes[c]))
		for _, n := range v.Notes[c] {
			notes = append(notes, NoteMessage{
				ID:         n.ID.String(),
				Title:      n.Title,
				Content:    n.Content,
				Attributes: n.Attributes,
				CreatedAt:  n.CreatedAt,
				UpdatedAt:  n.UpdatedAt,
			})
		}
		msg.Notes[c.String()] = notes
	}
	return msg
}

// StreamHandler upgrades GET /v1/stream and pushes a Message on connect and
// after every view change. Slow clients only ever receive the latest view.
type StreamHandler struct {
	source   viewSource
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a StreamHandler that accepts upgrades from the
// given origins. Requests without an Origin header are not from a browser
// and are always accepted.
func NewStreamHandler(source viewSource, log *slog.Logger, origins middleware.Origins) *StreamHandler {

	return &StreamHandler{
		source: source,
		log:    log.With("handler", "stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Allows(origin)
			},
		},
	}
}

// Register mounts the stream route on mux.
func (h *StreamHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/stream", h.ServeHTTP)
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	streamClients.Inc()
	defer streamClients.Dec()

	latest := make(chan notesync.View, 1)
	unsubscribe := h.source.Subscribe(func(v notesync.View) {
		// Replace a pending view instead of blocking the publisher.
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- v:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	if err := h.write(conn, h.source.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case v := <-latest:
			if err := h.write(conn, v); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and signals when the connection closes.
func (h *StreamHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("stream client gone", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, v notesync.View) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := conn.WriteJSON(toMessage(v)); err != nil {
		h.log.Debug("stream write failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
