package game

import (
	"time"

	"pibbleclicker/internal/catalog"
)

// UpgradeState is the mutable per-upgrade progress, keyed by catalog id.
// Cost starts at the catalog base cost and only ever increases.
type UpgradeState struct {
	ID    int `json:"id"`
	Level int `json:"level"`
	Cost  int `json:"cost"`
}

// State is the full simulation state for one save slot. It is owned by a
// single session; all mutation goes through the Engine.
type State struct {
	Count       int             `json:"count"`
	PerClick    int             `json:"pibblesPerClick"`
	TotalClicks int             `json:"totalClicks"`
	Upgrades    []UpgradeState  `json:"upgrades"`
	Unlocked    map[string]bool `json:"unlockedAchievements"`
	TierLevel   int             `json:"tier"`
	LastSaved   time.Time       `json:"lastSaved"`
}

// NewState returns a fresh game: zero balance, per-click 1, all upgrade
// levels 0 at base cost, nothing unlocked.
func NewState(upgrades []catalog.Upgrade) *State {
	us := make([]UpgradeState, 0, len(upgrades))
	for _, u := range upgrades {
		us = append(us, UpgradeState{ID: u.ID, Level: 0, Cost: u.BaseCost})
	}
	return &State{
		Count:    0,
		PerClick: 1,
		Upgrades: us,
		Unlocked: map[string]bool{},
	}
}

// Upgrade returns a pointer into the state's upgrade table, or nil when the
// id is not tracked.
func (s *State) Upgrade(id int) *UpgradeState {
	for i := range s.Upgrades {
		if s.Upgrades[i].ID == id {
			return &s.Upgrades[i]
		}
	}
	return nil
}

// Level returns the purchased level for an upgrade id, zero when unknown.
func (s *State) Level(id int) int {
	if u := s.Upgrade(id); u != nil {
		return u.Level
	}
	return 0
}

// Clone returns a deep copy. Used for snapshots handed to other goroutines.
func (s *State) Clone() *State {
	out := *s
	out.Upgrades = make([]UpgradeState, len(s.Upgrades))
	copy(out.Upgrades, s.Upgrades)
	out.Unlocked = make(map[string]bool, len(s.Unlocked))
	for k, v := range s.Unlocked {
		out.Unlocked[k] = v
	}
	return &out
}

// UnlockedIDs returns unlocked achievement ids in the order of the given
// catalog, so persisted lists are deterministic.
func (s *State) UnlockedIDs(achievements []catalog.Achievement) []string {
	ids := make([]string, 0, len(s.Unlocked))
	for _, a := range achievements {
		if s.Unlocked[a.ID] {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// View projects the state into the read-only shape achievement predicates
// consume.
func (s *State) View(upgrades []catalog.Upgrade) catalog.View {
	uvs := make([]catalog.UpgradeView, 0, len(s.Upgrades))
	for _, us := range s.Upgrades {
		uv := catalog.UpgradeView{ID: us.ID, Level: us.Level}
		if def, ok := catalog.ByID(upgrades, us.ID); ok {
			uv.PPS = def.PPS
		}
		uvs = append(uvs, uv)
	}
	return catalog.View{
		Pibbles:     s.Count,
		TotalClicks: s.TotalClicks,
		Upgrades:    uvs,
	}
}
