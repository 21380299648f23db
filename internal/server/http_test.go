package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pibbleclicker/internal/catalog"
	"pibbleclicker/internal/game"
	"pibbleclicker/internal/save"
	"pibbleclicker/internal/session"
	"pibbleclicker/internal/telemetry"
)

func newServerForTest(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := game.NewFakeClock(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	engine := &game.Engine{
		Catalog:      catalog.Defaults(),
		Achievements: catalog.Achievements(),
		Tiers:        catalog.Tiers(),
		Roll:         game.FixedRoller{Sample: 1},
		Clock:        clock,
	}
	gw := save.NewGateway(store, engine.Catalog, engine.Achievements, clock)
	rec := telemetry.NewMemoryRecorder()
	manager := session.NewManager(session.ManagerOptions{
		Engine:   engine,
		Gateway:  gw,
		Recorder: rec,
	})
	t.Cleanup(func() { _ = manager.Close() })

	app := &App{Manager: manager, Gateway: gw, Recorder: rec}
	mux := http.NewServeMux()
	RegisterRoutes(mux, app, nil)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestSlots_EmptyList(t *testing.T) {
	ts := newServerForTest(t)

	resp, err := http.Get(ts.URL + "/api/slots")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	slots, ok := body["slots"].(map[string]any)
	require.True(t, ok)
	require.Len(t, slots, 3)
	assert.Nil(t, slots["slot1"])
	assert.Nil(t, slots["slot2"])
	assert.Nil(t, slots["slot3"])
}

func TestFullPlaySession(t *testing.T) {
	ts := newServerForTest(t)

	// Begin a new game in slot1.
	resp := postJSON(t, ts.URL+"/api/session/begin", map[string]string{"slot": "slot1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["fresh"])

	// Click once.
	resp = postJSON(t, ts.URL+"/api/game/click", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(1), body["awarded"])
	assert.Equal(t, false, body["critical"])
	assert.Equal(t, float64(1), body["pibbles"])
	assert.Equal(t, float64(1), body["totalClicks"])

	// The click unlocked first_click; the event buffer drains once.
	resp, err := http.Get(ts.URL + "/api/game/events")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	events, ok := body["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, "achievement_unlocked", ev["type"])
	assert.Equal(t, "first_click", ev["achievementId"])

	resp, err = http.Get(ts.URL + "/api/game/events")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Empty(t, body["events"])

	// State reflects the click.
	resp, err = http.Get(ts.URL + "/api/game/state")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, "slot1", body["slot"])
	assert.Equal(t, float64(1), body["pibbles"])

	// Quit saves; the slot index now shows progress.
	resp = postJSON(t, ts.URL+"/api/session/quit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp, err = http.Get(ts.URL + "/api/slots")
	require.NoError(t, err)
	body = decodeBody(t, resp)
	slots := body["slots"].(map[string]any)
	entry, ok := slots["slot1"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), entry["pibbles"])
}

func TestPurchase_RejectedWithoutFunds(t *testing.T) {
	ts := newServerForTest(t)

	resp := postJSON(t, ts.URL+"/api/session/begin", map[string]string{"slot": "slot1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp = postJSON(t, ts.URL+"/api/game/purchase", map[string]int{"id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["applied"])
	assert.Equal(t, float64(0), body["pibbles"])
}

func TestGameEndpoints_RequireActiveSession(t *testing.T) {
	ts := newServerForTest(t)

	resp := postJSON(t, ts.URL+"/api/game/click", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/game/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/session/quit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestBegin_UnknownSlotIs404(t *testing.T) {
	ts := newServerForTest(t)

	resp := postJSON(t, ts.URL+"/api/session/begin", map[string]string{"slot": "slot42"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSlot_NeedsConfirm(t *testing.T) {
	ts := newServerForTest(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/slots/slot1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/slots/slot1?confirm=true", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSlot_Unknown404(t *testing.T) {
	ts := newServerForTest(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/slots/nope?confirm=true", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestLoad_ResumesAcrossSessions(t *testing.T) {
	ts := newServerForTest(t)

	resp := postJSON(t, ts.URL+"/api/session/begin", map[string]string{"slot": "slot2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	for i := 0; i < 3; i++ {
		resp = postJSON(t, ts.URL+"/api/game/click", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp = postJSON(t, ts.URL+"/api/session/quit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/session/load", map[string]string{"slot": "slot2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["fresh"])
	state := body["state"].(map[string]any)
	assert.Equal(t, float64(3), state["pibbles"])
	assert.Equal(t, float64(3), state["totalClicks"])
}

func TestStatsEndpoint(t *testing.T) {
	ts := newServerForTest(t)

	resp := postJSON(t, ts.URL+"/api/session/begin", map[string]string{"slot": "slot1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp)

	resp = postJSON(t, ts.URL+"/api/game/click", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["clicks"])
}

func TestHealthEndpoints(t *testing.T) {
	ts := newServerForTest(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
