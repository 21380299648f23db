package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"pibbleclicker/internal/save"
	"pibbleclicker/internal/session"
	"pibbleclicker/internal/telemetry"
)

// App bundles everything the handlers need.
type App struct {
	Manager  *session.Manager
	Gateway  *save.Gateway
	Recorder telemetry.Recorder
	Logger   *log.Logger
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func (a *App) active(w http.ResponseWriter) (*session.Session, bool) {
	sess, err := a.Manager.Current()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return nil, false
	}
	return sess, true
}

// GET /api/slots
func (a *App) SlotsRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idx, err := a.Gateway.ListSlots(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "slot storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": idx})
}

// DELETE /api/slots/{slot}?confirm=true
func (a *App) SlotsSub(w http.ResponseWriter, r *http.Request) {
	slot := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/slots/"), "/")
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeErr(w, http.StatusBadRequest, "deletion requires confirm=true")
		return
	}
	if err := a.Manager.Delete(slot); err != nil {
		if errors.Is(err, save.ErrUnknownSlot) {
			writeErr(w, http.StatusNotFound, "unknown slot: "+slot)
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": slot})
}

type slotRequest struct {
	Slot string `json:"slot"`
}

// POST /api/session/begin
func (a *App) SessionBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req slotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := a.Manager.Begin(req.Slot)
	if err != nil {
		if errors.Is(err, save.ErrUnknownSlot) {
			writeErr(w, http.StatusNotFound, "unknown slot: "+req.Slot)
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": snap, "fresh": true})
}

// POST /api/session/load
func (a *App) SessionLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req slotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, fresh, err := a.Manager.Load(req.Slot)
	if err != nil {
		if errors.Is(err, save.ErrUnknownSlot) {
			writeErr(w, http.StatusNotFound, "unknown slot: "+req.Slot)
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": snap, "fresh": fresh})
}

// POST /api/session/quit
func (a *App) SessionQuit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := a.Manager.Quit(); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			writeErr(w, http.StatusConflict, "no active game")
			return
		}
		// Session is over either way; tell the user the save did not stick.
		writeErr(w, http.StatusInternalServerError, "save failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// POST /api/game/click
func (a *App) GameClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := a.active(w)
	if !ok {
		return
	}
	res, err := sess.Click()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"awarded":     res.Awarded,
		"critical":    res.Critical,
		"pibbles":     snap.Pibbles,
		"totalClicks": snap.TotalClicks,
	})
}

type purchaseRequest struct {
	ID int `json:"id"`
}

// POST /api/game/purchase
func (a *App) GamePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, ok := a.active(w)
	if !ok {
		return
	}
	res, err := sess.Purchase(req.ID)
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": res.Applied,
		"upgrade": res.Upgrade,
		"pibbles": snap.Pibbles,
	})
}

// GET /api/game/state
func (a *App) GameState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := a.active(w)
	if !ok {
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /api/game/events
func (a *App) GameEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := a.active(w)
	if !ok {
		return
	}
	events, err := sess.DrainEvents()
	if err != nil {
		writeErr(w, http.StatusConflict, "no active game")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// GET /api/stats
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats := telemetry.CalculateStats(a.Recorder.Events(time.Time{}), time.Time{})
	writeJSON(w, http.StatusOK, stats)
}
