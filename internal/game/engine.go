package game

import (
	"fmt"
	"math"
	"time"

	"pibbleclicker/internal/catalog"
)

const (
	defaultBaseTick   = time.Second
	defaultMinTick    = 100 * time.Millisecond
	defaultCostGrowth = 1.5
)

// Engine applies the accrual, purchase, achievement and tier rules to a
// State. It holds only static catalogs and tunables; all mutable data lives
// on the State, so one Engine can serve any number of sessions.
type Engine struct {
	Catalog      []catalog.Upgrade
	Achievements []catalog.Achievement
	Tiers        []catalog.Tier

	CostGrowth float64
	BaseTick   time.Duration
	MinTick    time.Duration
	Display    Durations

	Roll  Roller
	Clock Clock
}

// NewEngine builds an engine over the default catalogs with a time-seeded
// roller.
func NewEngine() *Engine {
	return &Engine{
		Catalog:      catalog.Defaults(),
		Achievements: catalog.Achievements(),
		Tiers:        catalog.Tiers(),
		Roll:         NewRoller(0),
		Clock:        RealClock{},
	}
}

func (e *Engine) costGrowth() float64 {
	if e.CostGrowth > 0 {
		return e.CostGrowth
	}
	return defaultCostGrowth
}

func (e *Engine) baseTick() time.Duration {
	if e.BaseTick > 0 {
		return e.BaseTick
	}
	return defaultBaseTick
}

func (e *Engine) minTick() time.Duration {
	if e.MinTick > 0 {
		return e.MinTick
	}
	return defaultMinTick
}

func (e *Engine) roll() float64 {
	if e.Roll == nil {
		return 1 // never critical without a roller
	}
	return e.Roll.Float64()
}

// NewGame returns a fresh State for this engine's catalog.
func (e *Engine) NewGame() *State {
	return NewState(e.Catalog)
}

// Derived effect totals. These are always computed from level x per-level
// bonus at read time; nothing caches them on the State.

func (e *Engine) TotalPPS(s *State) int {
	total := 0
	for _, u := range e.Catalog {
		total += u.PPS * s.Level(u.ID)
	}
	return total
}

func (e *Engine) TotalSpeed(s *State) float64 {
	total := 0.0
	for _, u := range e.Catalog {
		total += u.Speed * float64(s.Level(u.ID))
	}
	return total
}

func (e *Engine) TotalCritChance(s *State) float64 {
	total := 0.0
	for _, u := range e.Catalog {
		total += u.CritChance * float64(s.Level(u.ID))
	}
	return total
}

func (e *Engine) TotalCritMult(s *State) float64 {
	total := 0.0
	for _, u := range e.Catalog {
		total += u.CritMult * float64(s.Level(u.ID))
	}
	return total
}

// TickInterval returns the current passive-income cadence. With no speed
// upgrades purchased this is exactly the base tick; otherwise it is
// base/(1+speed), floored at the minimum tick.
func (e *Engine) TickInterval(s *State) time.Duration {
	speed := e.TotalSpeed(s)
	if speed <= 0 {
		return e.baseTick()
	}
	scaled := time.Duration(float64(e.baseTick()) / (1 + speed))
	if scaled < e.minTick() {
		return e.minTick()
	}
	return scaled
}

// ClickResult reports what a single click awarded.
type ClickResult struct {
	Awarded  int  `json:"awarded"`
	Critical bool `json:"critical"`
}

// Click resolves one click: rolls for a critical, credits the award and
// bumps the click counter. Exactly one click is counted per call regardless
// of the roll.
func (e *Engine) Click(s *State) (ClickResult, []Event) {
	award := s.PerClick
	critical := false

	chance := e.TotalCritChance(s)
	mult := e.TotalCritMult(s)
	if chance > 0 && mult > 0 && e.roll() < chance {
		award = int(math.Floor(float64(s.PerClick) * mult))
		critical = true
	}

	s.Count += award
	s.TotalClicks++

	var events []Event
	if critical {
		events = append(events, withDisplay(Event{
			Type:    EventCriticalHit,
			Title:   "Critical Hit!",
			Message: fmt.Sprintf("+%d pibbles (%d bonus)", award, award-s.PerClick),
			Amount:  award,
			Bonus:   award - s.PerClick,
		}, e.Display.critical()))
	}
	events = append(events, e.afterMutation(s)...)
	return ClickResult{Awarded: award, Critical: critical}, events
}

// PassiveTick credits one tick of passive income. With no income upgrades
// purchased it changes nothing and emits nothing.
func (e *Engine) PassiveTick(s *State) (int, []Event) {
	income := e.TotalPPS(s)
	if income <= 0 {
		return 0, nil
	}
	s.Count += income

	events := []Event{{Type: EventPassiveIncome, Amount: income}}
	events = append(events, e.afterMutation(s)...)
	return income, events
}

// PurchaseResult reports the outcome of a purchase attempt. Applied is
// false for unknown ids and unaffordable upgrades; the state is untouched
// in both cases.
type PurchaseResult struct {
	Applied bool         `json:"applied"`
	Upgrade UpgradeState `json:"upgrade"`
}

// Purchase buys exactly one level of the named upgrade.
func (e *Engine) Purchase(s *State, id int) (PurchaseResult, []Event) {
	def, ok := catalog.ByID(e.Catalog, id)
	if !ok {
		return PurchaseResult{}, nil
	}
	us := s.Upgrade(id)
	if us == nil || s.Count < us.Cost {
		return PurchaseResult{}, nil
	}

	s.Count -= us.Cost
	if def.ClickBonus > 0 {
		s.PerClick += def.ClickBonus
	}
	us.Level++
	us.Cost = int(math.Floor(float64(us.Cost) * e.costGrowth()))

	events := e.afterMutation(s)
	return PurchaseResult{Applied: true, Upgrade: *us}, events
}

// afterMutation runs the achievement evaluator and tier check. Achievements
// are scanned in catalog order; each newly qualifying entry is unlocked and
// notified exactly once, and never revoked.
func (e *Engine) afterMutation(s *State) []Event {
	var events []Event

	view := s.View(e.Catalog)
	for _, a := range e.Achievements {
		if s.Unlocked[a.ID] {
			continue
		}
		if !a.Condition(view) {
			continue
		}
		s.Unlocked[a.ID] = true
		events = append(events, withDisplay(Event{
			Type:          EventAchievementUnlocked,
			AchievementID: a.ID,
			Title:         a.Name,
			Message:       a.Description,
		}, e.Display.achievement()))
	}

	if tier := catalog.TierFor(e.Tiers, s.Count); tier.Level > s.TierLevel {
		s.TierLevel = tier.Level
		events = append(events, withDisplay(Event{
			Type:    EventTierChanged,
			Tier:    tier.Level,
			Title:   tier.Name,
			Message: fmt.Sprintf("Your pibble evolved into %s!", tier.Name),
		}, e.Display.tier()))
	}

	return events
}
