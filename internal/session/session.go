package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pibbleclicker/internal/catalog"
	"pibbleclicker/internal/game"
	"pibbleclicker/internal/save"
	"pibbleclicker/internal/telemetry"
)

var (
	// ErrClosed is returned by operations on a session that has quit.
	ErrClosed = errors.New("session: closed")
	// ErrNoSession is returned by the manager when no game is active.
	ErrNoSession = errors.New("session: no active game")
)

// Session owns the game state for one active save slot. A single goroutine
// runs all mutation (clicks, purchases, passive ticks, autosaves), so the
// state needs no locking; callers submit work through the command channel
// and block for the result.
//
// The passive-income ticker and the autosave ticker live and die with the
// session. A purchase that changes the tick interval replaces the ticker,
// so the new cadence starts with the next tick and two tickers never run
// at once.
type Session struct {
	engine        *game.Engine
	gateway       *save.Gateway
	recorder      telemetry.Recorder
	logger        *log.Logger
	slot          string
	autosaveEvery time.Duration

	cmds chan func()
	done chan struct{}
	once sync.Once

	// Owned by the run loop.
	state     *game.State
	passive   *time.Ticker
	tickEvery time.Duration
	autosave  *time.Ticker
	pending   []game.Event
	subs      map[chan game.Event]struct{}
}

func newSession(engine *game.Engine, gateway *save.Gateway, recorder telemetry.Recorder, logger *log.Logger, slot string, state *game.State, autosaveEvery time.Duration) *Session {
	s := &Session{
		engine:        engine,
		gateway:       gateway,
		recorder:      recorder,
		logger:        logger,
		slot:          slot,
		autosaveEvery: autosaveEvery,
		cmds:          make(chan func()),
		done:          make(chan struct{}),
		state:         state,
		subs:          map[chan game.Event]struct{}{},
	}
	s.tickEvery = engine.TickInterval(state)
	s.passive = time.NewTicker(s.tickEvery)
	if autosaveEvery > 0 {
		s.autosave = time.NewTicker(autosaveEvery)
	}
	go s.run()
	return s
}

func (s *Session) Slot() string { return s.slot }

func (s *Session) run() {
	defer func() {
		s.passive.Stop()
		if s.autosave != nil {
			s.autosave.Stop()
		}
		for ch := range s.subs {
			close(ch)
		}
	}()

	var autosaveC <-chan time.Time
	if s.autosave != nil {
		autosaveC = s.autosave.C
	}

	for {
		select {
		case <-s.done:
			return
		case fn := <-s.cmds:
			fn()
		case <-s.passive.C:
			s.handlePassiveTick()
		case <-autosaveC:
			s.trySave()
		}
	}
}

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(ran) }:
	case <-s.done:
		return ErrClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Click resolves one click.
func (s *Session) Click() (game.ClickResult, error) {
	var res game.ClickResult
	err := s.do(func() {
		var events []game.Event
		res, events = s.engine.Click(s.state)
		s.recorder.Record(telemetry.EventClick, map[string]any{"awarded": res.Awarded})
		if res.Critical {
			s.recorder.Record(telemetry.EventCriticalHit, map[string]any{
				"awarded": res.Awarded,
			})
		}
		s.recordGameEvents(events)
		s.publish(events)
		s.trySave()
	})
	return res, err
}

// Purchase buys one level of an upgrade. A rejected purchase leaves the
// state untouched and is not an error.
func (s *Session) Purchase(id int) (game.PurchaseResult, error) {
	var res game.PurchaseResult
	err := s.do(func() {
		var events []game.Event
		res, events = s.engine.Purchase(s.state, id)
		if !res.Applied {
			s.recorder.Record(telemetry.EventPurchaseRejected, map[string]any{"upgrade_id": id})
			return
		}
		s.recorder.Record(telemetry.EventUpgradePurchased, map[string]any{
			"upgrade_id": id,
			"level":      res.Upgrade.Level,
		})
		s.recordGameEvents(events)
		s.publish(events)
		s.restartPassiveIfChanged()
		s.trySave()
	})
	return res, err
}

func (s *Session) handlePassiveTick() {
	income, events := s.engine.PassiveTick(s.state)
	if income <= 0 {
		return
	}
	s.recorder.Record(telemetry.EventPassiveTick, map[string]any{"amount": income})
	s.recordGameEvents(events)
	s.publish(events)
	s.trySave()
}

// recordGameEvents mirrors progression milestones into telemetry.
func (s *Session) recordGameEvents(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EventAchievementUnlocked:
			s.recorder.Record(telemetry.EventAchievementUnlock, map[string]any{
				"achievement_id": ev.AchievementID,
			})
		case game.EventTierChanged:
			s.recorder.Record(telemetry.EventTierChanged, map[string]any{"tier": ev.Tier})
		}
	}
}

// restartPassiveIfChanged swaps the ticker when upgrade levels moved the
// interval. The tick already in flight finishes at the old cadence.
func (s *Session) restartPassiveIfChanged() {
	next := s.engine.TickInterval(s.state)
	if next == s.tickEvery {
		return
	}
	s.passive.Stop()
	s.passive = time.NewTicker(next)
	s.tickEvery = next
}

// trySave autosaves the active slot. Failures are logged and counted but
// never interrupt play; the freshest successful save wins on next load.
func (s *Session) trySave() {
	if err := s.gateway.Save(context.Background(), s.slot, s.state); err != nil {
		s.recorder.Record(telemetry.EventSaveFailed, map[string]any{"slot": s.slot})
		if s.logger != nil {
			s.logger.Printf("autosave failed for %s: %v", s.slot, err)
		}
		return
	}
	s.recorder.Record(telemetry.EventGameSaved, map[string]any{"slot": s.slot})
}

// SaveNow saves synchronously and surfaces the error to the caller.
func (s *Session) SaveNow() error {
	var saveErr error
	if err := s.do(func() {
		saveErr = s.gateway.Save(context.Background(), s.slot, s.state)
	}); err != nil {
		return err
	}
	return saveErr
}

// Close ends the session, optionally saving first, and cancels both timers.
// It is safe to call more than once.
func (s *Session) Close(saveFirst bool) error {
	var saveErr error
	err := s.do(func() {
		if saveFirst {
			saveErr = s.gateway.Save(context.Background(), s.slot, s.state)
			if saveErr != nil && s.logger != nil {
				s.logger.Printf("final save failed for %s: %v", s.slot, saveErr)
			}
		}
	})
	if err != nil {
		return nil // already closed
	}
	s.once.Do(func() { close(s.done) })
	return saveErr
}

func (s *Session) publish(events []game.Event) {
	if len(events) == 0 {
		return
	}
	s.pending = append(s.pending, events...)
	for _, ev := range events {
		for ch := range s.subs {
			select {
			case ch <- ev:
			default: // slow subscriber, drop rather than stall the loop
			}
		}
	}
}

// DrainEvents returns and clears the pending notification buffer.
func (s *Session) DrainEvents() ([]game.Event, error) {
	var out []game.Event
	err := s.do(func() {
		out = s.pending
		s.pending = nil
	})
	return out, err
}

// Subscribe registers a live event feed. The returned cancel func must be
// called when the consumer goes away; the channel closes when the session
// ends.
func (s *Session) Subscribe() (<-chan game.Event, func(), error) {
	ch := make(chan game.Event, 16)
	if err := s.do(func() { s.subs[ch] = struct{}{} }); err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = s.do(func() { delete(s.subs, ch) })
	}
	return ch, cancel, nil
}

// UpgradeInfo is the per-upgrade row the presentation layer renders.
type UpgradeInfo struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Cost       int    `json:"cost"`
	Level      int    `json:"level"`
	Value      int    `json:"value"`
	PPS        int    `json:"pps"`
	Affordable bool   `json:"affordable"`
}

// Snapshot is the presentation-facing view of the active game.
type Snapshot struct {
	Slot           string        `json:"slot"`
	Pibbles        int           `json:"pibbles"`
	PerClick       int           `json:"pibblesPerClick"`
	TotalClicks    int           `json:"totalClicks"`
	Tier           catalog.Tier  `json:"tier"`
	Upgrades       []UpgradeInfo `json:"upgrades"`
	Unlocked       []string      `json:"unlockedAchievements"`
	UnlockedCount  int           `json:"unlockedCount"`
	AchievementMax int           `json:"achievementTotal"`
	TickIntervalMS int64         `json:"tickIntervalMs"`
	LastSaved      int64         `json:"lastSaved"`
}

// Snapshot builds a consistent view of the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.do(func() {
		snap = s.snapshotLocked()
	})
	return snap, err
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.state
	ups := make([]UpgradeInfo, 0, len(st.Upgrades))
	for _, us := range st.Upgrades {
		row := UpgradeInfo{
			ID:         us.ID,
			Cost:       us.Cost,
			Level:      us.Level,
			Affordable: st.Count >= us.Cost,
		}
		if def, ok := catalog.ByID(s.engine.Catalog, us.ID); ok {
			row.Label = def.Label
			row.Value = def.ClickBonus
			row.PPS = def.PPS
		}
		ups = append(ups, row)
	}

	unlocked := st.UnlockedIDs(s.engine.Achievements)
	var tier catalog.Tier
	for _, t := range s.engine.Tiers {
		if t.Level == st.TierLevel {
			tier = t
		}
	}

	snap := Snapshot{
		Slot:           s.slot,
		Pibbles:        st.Count,
		PerClick:       st.PerClick,
		TotalClicks:    st.TotalClicks,
		Tier:           tier,
		Upgrades:       ups,
		Unlocked:       unlocked,
		UnlockedCount:  len(unlocked),
		AchievementMax: len(s.engine.Achievements),
		TickIntervalMS: s.engine.TickInterval(st).Milliseconds(),
	}
	if !st.LastSaved.IsZero() {
		snap.LastSaved = st.LastSaved.UnixMilli()
	}
	return snap
}
