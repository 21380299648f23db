package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pibbleclicker/internal/catalog"
	"pibbleclicker/internal/game"
)

const (
	indexKey      = "pibble_save_slots"
	gameKeyPrefix = "pibble_game_"
)

// SlotKeys are the three fixed save slots. No slot is ever created or
// destroyed; deletion only nulls a slot's contents.
var SlotKeys = []string{"slot1", "slot2", "slot3"}

var (
	// ErrUnknownSlot rejects keys outside the fixed slot set.
	ErrUnknownSlot = errors.New("save: unknown slot key")
	// ErrCorrupt marks a record that exists but does not parse. Callers
	// fall back to a fresh game rather than aborting.
	ErrCorrupt = errors.New("save: corrupt record")
)

// SlotSummary is the lightweight per-slot index entry shown on the slot
// picker. Timestamps are Unix milliseconds, matching the stored records.
type SlotSummary struct {
	LastSaved   int64 `json:"lastSaved"`
	Pibbles     int   `json:"pibbles"`
	TotalClicks int   `json:"totalClicks"`
}

// Index maps each fixed slot key to its summary, nil when the slot is empty.
type Index map[string]*SlotSummary

// UpgradeRecord is one upgrade row in a persisted game record. Static
// fields ride along for the presentation layer; only id, level and cost are
// read back.
type UpgradeRecord struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Cost  int    `json:"cost"`
	Value int    `json:"value"`
	Level int    `json:"level"`
	PPS   int    `json:"pps"`
}

// Record is the full persisted game state for one slot.
type Record struct {
	Count                int             `json:"count"`
	PibblesPerClick      int             `json:"pibblesPerClick"`
	TotalClicks          int             `json:"totalClicks"`
	Upgrades             []UpgradeRecord `json:"upgrades"`
	UnlockedAchievements []string        `json:"unlockedAchievements"`
	Tier                 int             `json:"tier"`
	LastSaved            int64           `json:"lastSaved"`
}

// Gateway reads and writes game state and the slot index through a Store.
// A failed save never mutates in-memory state; the caller keeps playing and
// may retry.
type Gateway struct {
	store        Store
	upgrades     []catalog.Upgrade
	achievements []catalog.Achievement
	clock        game.Clock
}

func NewGateway(store Store, upgrades []catalog.Upgrade, achievements []catalog.Achievement, clock game.Clock) *Gateway {
	if clock == nil {
		clock = game.RealClock{}
	}
	return &Gateway{
		store:        store,
		upgrades:     upgrades,
		achievements: achievements,
		clock:        clock,
	}
}

// ValidSlot reports whether the key names one of the fixed save slots.
func ValidSlot(slotKey string) bool {
	for _, k := range SlotKeys {
		if k == slotKey {
			return true
		}
	}
	return false
}

func gameKey(slotKey string) string { return gameKeyPrefix + slotKey }

// Save writes the full record and its index entry together. Either write
// failing is a save failure; the state passed in is only stamped once both
// writes succeed.
func (g *Gateway) Save(ctx context.Context, slotKey string, s *game.State) error {
	if !ValidSlot(slotKey) {
		return ErrUnknownSlot
	}

	now := g.clock.Now()
	rec := g.toRecord(s, now)

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode game record: %w", err)
	}
	if err := g.store.Set(ctx, gameKey(slotKey), b); err != nil {
		return fmt.Errorf("write game record: %w", err)
	}

	idx, err := g.loadIndex(ctx)
	if err != nil {
		return fmt.Errorf("read slot index: %w", err)
	}
	idx[slotKey] = &SlotSummary{
		LastSaved:   rec.LastSaved,
		Pibbles:     rec.Count,
		TotalClicks: rec.TotalClicks,
	}
	if err := g.writeIndex(ctx, idx); err != nil {
		return fmt.Errorf("write slot index: %w", err)
	}

	s.LastSaved = now
	return nil
}

// Load returns the state stored in a slot, ErrNotFound when the slot is
// empty, or ErrCorrupt when a record exists but cannot be parsed.
func (g *Gateway) Load(ctx context.Context, slotKey string) (*game.State, error) {
	if !ValidSlot(slotKey) {
		return nil, ErrUnknownSlot
	}

	b, err := g.store.Get(ctx, gameKey(slotKey))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read game record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return g.fromRecord(rec), nil
}

// Delete clears one slot: the full record and its index entry. Deleting an
// empty slot is not an error, and other slots are never touched.
func (g *Gateway) Delete(ctx context.Context, slotKey string) error {
	if !ValidSlot(slotKey) {
		return ErrUnknownSlot
	}

	if err := g.store.Delete(ctx, gameKey(slotKey)); err != nil {
		return fmt.Errorf("delete game record: %w", err)
	}

	idx, err := g.loadIndex(ctx)
	if err != nil {
		return fmt.Errorf("read slot index: %w", err)
	}
	idx[slotKey] = nil
	if err := g.writeIndex(ctx, idx); err != nil {
		return fmt.Errorf("write slot index: %w", err)
	}
	return nil
}

// ListSlots returns all three fixed slot entries, empty slots as nil.
func (g *Gateway) ListSlots(ctx context.Context) (Index, error) {
	return g.loadIndex(ctx)
}

func (g *Gateway) loadIndex(ctx context.Context) (Index, error) {
	out := Index{}
	for _, k := range SlotKeys {
		out[k] = nil
	}

	b, err := g.store.Get(ctx, indexKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return out, nil
		}
		return nil, err
	}

	var stored Index
	if err := json.Unmarshal(b, &stored); err != nil {
		// A broken index is rebuilt from subsequent saves.
		return out, nil
	}
	for _, k := range SlotKeys {
		if s, ok := stored[k]; ok {
			out[k] = s
		}
	}
	return out, nil
}

func (g *Gateway) writeIndex(ctx context.Context, idx Index) error {
	b, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return g.store.Set(ctx, indexKey, b)
}

func (g *Gateway) toRecord(s *game.State, now time.Time) Record {
	ups := make([]UpgradeRecord, 0, len(s.Upgrades))
	for _, us := range s.Upgrades {
		row := UpgradeRecord{ID: us.ID, Level: us.Level, Cost: us.Cost}
		if def, ok := catalog.ByID(g.upgrades, us.ID); ok {
			row.Label = def.Label
			row.Value = def.ClickBonus
			row.PPS = def.PPS
		}
		ups = append(ups, row)
	}
	return Record{
		Count:                s.Count,
		PibblesPerClick:      s.PerClick,
		TotalClicks:          s.TotalClicks,
		Upgrades:             ups,
		UnlockedAchievements: s.UnlockedIDs(g.achievements),
		Tier:                 s.TierLevel,
		LastSaved:            now.UnixMilli(),
	}
}

// fromRecord normalizes a stored record against the current catalog:
// upgrades missing from the record start fresh, rows for retired ids are
// dropped, and the result keeps catalog order.
func (g *Gateway) fromRecord(rec Record) *game.State {
	s := game.NewState(g.upgrades)

	byID := map[int]UpgradeRecord{}
	for _, row := range rec.Upgrades {
		byID[row.ID] = row
	}
	for i := range s.Upgrades {
		if row, ok := byID[s.Upgrades[i].ID]; ok {
			s.Upgrades[i].Level = row.Level
			if row.Cost > 0 {
				s.Upgrades[i].Cost = row.Cost
			}
		}
	}

	s.Count = rec.Count
	if rec.PibblesPerClick > 0 {
		s.PerClick = rec.PibblesPerClick
	}
	s.TotalClicks = rec.TotalClicks
	for _, id := range rec.UnlockedAchievements {
		s.Unlocked[id] = true
	}
	s.TierLevel = rec.Tier
	if rec.LastSaved > 0 {
		s.LastSaved = time.UnixMilli(rec.LastSaved)
	}
	return s
}
