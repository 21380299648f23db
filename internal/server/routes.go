package server

import (
	"net/http"
	"time"
)

// RegisterRoutes wires the API surface onto the mux.
func RegisterRoutes(mux *http.ServeMux, app *App, allowedOrigins []string) {
	mux.HandleFunc("/api/slots", app.SlotsRoot)
	mux.HandleFunc("/api/slots/", app.SlotsSub)

	mux.HandleFunc("/api/session/begin", app.SessionBegin)
	mux.HandleFunc("/api/session/load", app.SessionLoad)
	mux.HandleFunc("/api/session/quit", app.SessionQuit)

	mux.HandleFunc("/api/game/click", app.GameClick)
	mux.HandleFunc("/api/game/purchase", app.GamePurchase)
	mux.HandleFunc("/api/game/state", app.GameState)
	mux.HandleFunc("/api/game/events", app.GameEvents)

	mux.HandleFunc("/api/stats", app.Stats)

	mux.Handle("/ws", NewEventSocket(app, allowedOrigins))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "pibbleclicker",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := app.Gateway.ListSlots(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "save storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "pibbleclicker",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
}
