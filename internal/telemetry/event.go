package telemetry

import "time"

type EventType string

const (
	EventClick             EventType = "click"
	EventCriticalHit       EventType = "critical_hit"
	EventPassiveTick       EventType = "passive_tick"
	EventUpgradePurchased  EventType = "upgrade_purchased"
	EventPurchaseRejected  EventType = "purchase_rejected"
	EventAchievementUnlock EventType = "achievement_unlocked"
	EventTierChanged       EventType = "tier_changed"
	EventGameSaved         EventType = "game_saved"
	EventSaveFailed        EventType = "save_failed"
	EventGameLoaded        EventType = "game_loaded"
	EventSlotDeleted       EventType = "slot_deleted"
)

type Event struct {
	ID        int            `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
