package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pibbleclicker/internal/catalog"
	"pibbleclicker/internal/game"
	"pibbleclicker/internal/save"
	"pibbleclicker/internal/telemetry"
)

func newManagerForTest(t *testing.T) (*Manager, *save.Gateway, *telemetry.MemoryRecorder) {
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
	m := NewManager(ManagerOptions{
		Engine:   engine,
		Gateway:  gw,
		Recorder: rec,
		// AutosaveEvery left zero: mutation saves cover the tests.
	})
	t.Cleanup(func() { _ = m.Close() })
	return m, gw, rec
}

func TestBegin_SavesFreshGame(t *testing.T) {
	m, gw, _ := newManagerForTest(t)

	sess, err := m.Begin("slot1")
	require.NoError(t, err)
	assert.Equal(t, "slot1", sess.Slot())

	got, err := gw.Load(context.Background(), "slot1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, 1, got.PerClick)
}

func TestBegin_UnknownSlot(t *testing.T) {
	m, _, _ := newManagerForTest(t)

	_, err := m.Begin("slot7")
	assert.ErrorIs(t, err, save.ErrUnknownSlot)

	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClick_MutatesAndAutosaves(t *testing.T) {
	m, gw, rec := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	res, err := sess.Click()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Awarded)
	assert.False(t, res.Critical)

	got, err := gw.Load(context.Background(), "slot1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, got.TotalClicks)
	assert.True(t, got.Unlocked["first_click"])

	stats := telemetry.CalculateStats(rec.Events(time.Time{}), time.Now())
	assert.Equal(t, 1, stats.Clicks)
	assert.Equal(t, 1, stats.Unlocks)
	assert.GreaterOrEqual(t, stats.Saves, 1)
}

func TestPurchase_AppliedAndRejected(t *testing.T) {
	m, _, rec := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := sess.Click()
		require.NoError(t, err)
	}

	res, err := sess.Purchase(1)
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.Equal(t, 1, res.Upgrade.Level)
	assert.Equal(t, 75, res.Upgrade.Cost)

	// Broke now, second buy is rejected without error.
	res, err = sess.Purchase(1)
	require.NoError(t, err)
	assert.False(t, res.Applied)

	stats := telemetry.CalculateStats(rec.Events(time.Time{}), time.Now())
	assert.Equal(t, 1, stats.Purchases)
	assert.Equal(t, 1, stats.RejectedBuys)
}

func TestSnapshot(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot2")
	require.NoError(t, err)

	_, err = sess.Click()
	require.NoError(t, err)

	snap, err := sess.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, "slot2", snap.Slot)
	assert.Equal(t, 1, snap.Pibbles)
	assert.Equal(t, 1, snap.PerClick)
	assert.Equal(t, 1, snap.TotalClicks)
	assert.Equal(t, "Pup", snap.Tier.Name)
	assert.Equal(t, []string{"first_click"}, snap.Unlocked)
	assert.Equal(t, 1, snap.UnlockedCount)
	assert.Equal(t, 8, snap.AchievementMax)
	assert.Equal(t, int64(1000), snap.TickIntervalMS)
	require.Len(t, snap.Upgrades, len(catalog.Defaults()))
	assert.False(t, snap.Upgrades[0].Affordable)
	assert.Equal(t, 50, snap.Upgrades[0].Cost)
}

func TestDrainEvents(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	_, err = sess.Click()
	require.NoError(t, err)

	events, err := sess.DrainEvents()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, game.EventAchievementUnlocked, events[0].Type)
	assert.Equal(t, "first_click", events[0].AchievementID)

	events, err = sess.DrainEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSubscribe_ReceivesEventsAndClosesOnQuit(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	ch, cancel, err := sess.Subscribe()
	require.NoError(t, err)
	defer cancel()

	_, err = sess.Click()
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, game.EventAchievementUnlocked, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	require.NoError(t, m.Quit())

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after quit")
	}
}

func TestQuit_SavesAndEndsSession(t *testing.T) {
	m, gw, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	_, err = sess.Click()
	require.NoError(t, err)

	require.NoError(t, m.Quit())

	_, err = sess.Click()
	assert.ErrorIs(t, err, ErrClosed)

	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	got, err := gw.Load(context.Background(), "slot1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestLoad_ResumesSavedGame(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot3")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := sess.Click()
		require.NoError(t, err)
	}
	require.NoError(t, m.Quit())

	sess, fresh, err := m.Load("slot3")
	require.NoError(t, err)
	assert.False(t, fresh)

	snap, err := sess.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Pibbles)
	assert.Equal(t, 5, snap.TotalClicks)
}

func TestLoad_EmptySlotStartsFresh(t *testing.T) {
	m, _, _ := newManagerForTest(t)

	sess, fresh, err := m.Load("slot2")
	require.NoError(t, err)
	assert.True(t, fresh)

	snap, err := sess.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Pibbles)
}

func TestLoad_CorruptSlotStartsFresh(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "pibble_game_slot1", []byte("garbage")))

	clock := game.NewFakeClock(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	engine := &game.Engine{
		Catalog:      catalog.Defaults(),
		Achievements: catalog.Achievements(),
		Tiers:        catalog.Tiers(),
		Roll:         game.FixedRoller{Sample: 1},
		Clock:        clock,
	}
	gw := save.NewGateway(store, engine.Catalog, engine.Achievements, clock)
	m := NewManager(ManagerOptions{Engine: engine, Gateway: gw})
	t.Cleanup(func() { _ = m.Close() })

	sess, fresh, err := m.Load("slot1")
	require.NoError(t, err)
	assert.True(t, fresh)

	snap, err := sess.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Pibbles)
}

func TestDelete_ActiveSlotEndsSessionWithoutSaving(t *testing.T) {
	m, gw, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)
	_, err = sess.Click()
	require.NoError(t, err)

	require.NoError(t, m.Delete("slot1"))

	_, err = sess.Click()
	assert.ErrorIs(t, err, ErrClosed)

	_, err = gw.Load(context.Background(), "slot1")
	assert.ErrorIs(t, err, save.ErrNotFound)

	idx, err := gw.ListSlots(context.Background())
	require.NoError(t, err)
	assert.Nil(t, idx["slot1"])
}

func TestBegin_SameSlotDiscardsOldSave(t *testing.T) {
	m, gw, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := sess.Click()
		require.NoError(t, err)
	}

	// Beginning over the active slot must leave a fresh record, not the
	// outgoing session's final save.
	_, err = m.Begin("slot1")
	require.NoError(t, err)

	got, err := gw.Load(context.Background(), "slot1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.Equal(t, 0, got.TotalClicks)
}

func TestBegin_UnknownSlotKeepsCurrentSession(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	_, err = m.Begin("slot9")
	require.ErrorIs(t, err, save.ErrUnknownSlot)

	cur, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, sess, cur)

	_, err = sess.Click()
	assert.NoError(t, err)
}

func TestBegin_ReplacesActiveSession(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	first, err := m.Begin("slot1")
	require.NoError(t, err)

	second, err := m.Begin("slot2")
	require.NoError(t, err)

	_, err = first.Click()
	assert.ErrorIs(t, err, ErrClosed)

	cur, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)
}

func TestPurchase_SpeedUpgradeRestartsTicker(t *testing.T) {
	m, _, _ := newManagerForTest(t)
	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	var cadence time.Duration
	require.NoError(t, sess.do(func() { cadence = sess.tickEvery }))
	require.Equal(t, time.Second, cadence)

	require.NoError(t, sess.do(func() { sess.state.Count = 1000 }))

	// A click upgrade leaves the cadence alone.
	res, err := sess.Purchase(1)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.NoError(t, sess.do(func() { cadence = sess.tickEvery }))
	assert.Equal(t, time.Second, cadence)

	// A speed upgrade swaps the ticker: 1s / (1 + 0.25) = 800ms.
	res, err = sess.Purchase(6)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.NoError(t, sess.do(func() { cadence = sess.tickEvery }))
	assert.Equal(t, 800*time.Millisecond, cadence)
}

func TestPassiveTick_CreditsIncome(t *testing.T) {
	store, err := save.NewFileStore(t.TempDir())
	require.NoError(t, err)

	clock := game.NewFakeClock(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	engine := &game.Engine{
		Catalog:      catalog.Defaults(),
		Achievements: catalog.Achievements(),
		Tiers:        catalog.Tiers(),
		BaseTick:     20 * time.Millisecond,
		MinTick:      5 * time.Millisecond,
		Roll:         game.FixedRoller{Sample: 1},
		Clock:        clock,
	}
	gw := save.NewGateway(store, engine.Catalog, engine.Achievements, clock)
	m := NewManager(ManagerOptions{Engine: engine, Gateway: gw})
	t.Cleanup(func() { _ = m.Close() })

	sess, err := m.Begin("slot1")
	require.NoError(t, err)

	// Hand the session enough pibbles for an income upgrade.
	for i := 0; i < 100; i++ {
		_, err := sess.Click()
		require.NoError(t, err)
	}
	res, err := sess.Purchase(4) // 1 pps
	require.NoError(t, err)
	require.True(t, res.Applied)

	require.Eventually(t, func() bool {
		snap, err := sess.Snapshot()
		return err == nil && snap.Pibbles > 0
	}, 2*time.Second, 10*time.Millisecond)
}
