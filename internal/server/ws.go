package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pibbleclicker/internal/game"
)

const wsWriteWait = 10 * time.Second

// EventSocket streams notification events to the browser over a websocket,
// so the presentation layer does not have to poll /api/game/events.
type EventSocket struct {
	app      *App
	upgrader websocket.Upgrader
}

func NewEventSocket(app *App, allowedOrigins []string) *EventSocket {
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &EventSocket{
		app: app,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				return allowed[origin]
			},
		},
	}
}

func (es *EventSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := es.app.Manager.Current()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}

	events, cancel, err := sess.Subscribe()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}

	conn, err := es.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		return
	}

	go es.writeLoop(conn, events, cancel)

	// Drain client frames so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
}

// writeLoop forwards session events until the session ends (channel close)
// or the client goes away (write error).
func (es *EventSocket) writeLoop(conn *websocket.Conn, events <-chan game.Event, cancel func()) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()

	for ev := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
}
