package game

import "time"

// EventType identifies a transient notification for the presentation layer.
type EventType string

const (
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventCriticalHit         EventType = "critical_hit"
	EventPassiveIncome       EventType = "passive_income"
	EventTierChanged         EventType = "tier_changed"
)

// Event is a one-shot notification. DisplayFor is how long the presentation
// layer should keep it on screen before auto-dismissing.
type Event struct {
	Type          EventType     `json:"type"`
	AchievementID string        `json:"achievementId,omitempty"`
	Title         string        `json:"title,omitempty"`
	Message       string        `json:"message,omitempty"`
	Amount        int           `json:"amount,omitempty"`
	Bonus         int           `json:"bonus,omitempty"`
	Tier          int           `json:"tier,omitempty"`
	DisplayFor    time.Duration `json:"-"`
	DisplayMS     int64         `json:"displayMs"`
}

// Durations holds per-type display times. Zero values fall back to the
// defaults below.
type Durations struct {
	Achievement time.Duration
	Critical    time.Duration
	Tier        time.Duration
}

const (
	defaultAchievementDisplay = 5 * time.Second
	defaultCriticalDisplay    = 2 * time.Second
	defaultTierDisplay        = 3 * time.Second
)

func (d Durations) achievement() time.Duration {
	if d.Achievement > 0 {
		return d.Achievement
	}
	return defaultAchievementDisplay
}

func (d Durations) critical() time.Duration {
	if d.Critical > 0 {
		return d.Critical
	}
	return defaultCriticalDisplay
}

func (d Durations) tier() time.Duration {
	if d.Tier > 0 {
		return d.Tier
	}
	return defaultTierDisplay
}

func withDisplay(ev Event, d time.Duration) Event {
	ev.DisplayFor = d
	ev.DisplayMS = d.Milliseconds()
	return ev
}
