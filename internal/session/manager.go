package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pibbleclicker/internal/game"
	"pibbleclicker/internal/save"
	"pibbleclicker/internal/telemetry"
)

// Manager holds at most one active session. Beginning or loading a slot
// ends the previous session first (saving it), so orphaned timers can never
// keep mutating a game that is no longer on screen.
type Manager struct {
	mu            sync.Mutex
	engine        *game.Engine
	gateway       *save.Gateway
	recorder      telemetry.Recorder
	logger        *log.Logger
	autosaveEvery time.Duration
	current       *Session
}

type ManagerOptions struct {
	Engine        *game.Engine
	Gateway       *save.Gateway
	Recorder      telemetry.Recorder
	Logger        *log.Logger
	AutosaveEvery time.Duration
}

func NewManager(opts ManagerOptions) *Manager {
	rec := opts.Recorder
	if rec == nil {
		rec = telemetry.NopRecorder{}
	}
	return &Manager{
		engine:        opts.Engine,
		gateway:       opts.Gateway,
		recorder:      rec,
		logger:        opts.Logger,
		autosaveEvery: opts.AutosaveEvery,
	}
}

// Begin starts a brand-new game in the slot, replacing any active session.
func (m *Manager) Begin(slot string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !save.ValidSlot(slot) {
		return nil, save.ErrUnknownSlot
	}

	// The outgoing session saves on close; the fresh save afterwards wins,
	// so beginning over the active slot cannot resurrect the old game.
	m.closeCurrentLocked()

	state := m.engine.NewGame()
	if err := m.gateway.Save(context.Background(), slot, state); err != nil {
		// Store trouble is non-fatal: play proceeds unsaved.
		if m.logger != nil {
			m.logger.Printf("initial save failed for %s: %v", slot, err)
		}
	}

	m.current = newSession(m.engine, m.gateway, m.recorder, m.logger, slot, state, m.autosaveEvery)
	return m.current, nil
}

// Load resumes the game saved in the slot. An empty or corrupt slot falls
// back to a fresh game; fresh reports which happened.
func (m *Manager) Load(slot string) (sess *Session, fresh bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.gateway.Load(context.Background(), slot)
	switch {
	case err == nil:
		m.recorder.Record(telemetry.EventGameLoaded, map[string]any{"slot": slot})
	case errors.Is(err, save.ErrUnknownSlot):
		return nil, false, err
	case errors.Is(err, save.ErrNotFound):
		state = m.engine.NewGame()
		fresh = true
	case errors.Is(err, save.ErrCorrupt):
		if m.logger != nil {
			m.logger.Printf("corrupt save in %s, starting fresh: %v", slot, err)
		}
		state = m.engine.NewGame()
		fresh = true
	default:
		return nil, false, err
	}

	m.closeCurrentLocked()
	m.current = newSession(m.engine, m.gateway, m.recorder, m.logger, slot, state, m.autosaveEvery)
	return m.current, fresh, nil
}

// Current returns the active session.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	return m.current, nil
}

// Quit saves the active game one last time and ends the session. The save
// error, if any, is surfaced so the user can be told.
func (m *Manager) Quit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}
	err := m.current.Close(true)
	m.current = nil
	return err
}

// Delete clears a slot. Deleting the slot of the active session ends that
// session without saving.
func (m *Manager) Delete(slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Slot() == slot {
		_ = m.current.Close(false)
		m.current = nil
	}
	if err := m.gateway.Delete(context.Background(), slot); err != nil {
		return err
	}
	m.recorder.Record(telemetry.EventSlotDeleted, map[string]any{"slot": slot})
	return nil
}

// Close ends any active session, saving it first.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.current.Close(true)
	m.current = nil
	return err
}

func (m *Manager) closeCurrentLocked() {
	if m.current == nil {
		return
	}
	_ = m.current.Close(true)
	m.current = nil
}
