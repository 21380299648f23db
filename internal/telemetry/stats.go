package telemetry

import "time"

type Stats struct {
	EventCounts     map[EventType]int `json:"event_counts"`
	Clicks          int               `json:"clicks"`
	CriticalHits    int               `json:"critical_hits"`
	CritRate        float64           `json:"crit_rate"`
	Purchases       int               `json:"purchases"`
	RejectedBuys    int               `json:"rejected_purchases"`
	Unlocks         int               `json:"achievements_unlocked"`
	PassiveTicks    int               `json:"passive_ticks"`
	PibblesFromTick int               `json:"pibbles_from_ticks"`
	Saves           int               `json:"saves"`
	SaveFailures    int               `json:"save_failures"`
}

// CalculateStats folds events into a summary for the stats endpoint.
func CalculateStats(events []Event, _ time.Time) Stats {
	stats := Stats{EventCounts: map[EventType]int{}}

	for _, ev := range events {
		stats.EventCounts[ev.Type]++

		switch ev.Type {
		case EventClick:
			stats.Clicks++
		case EventCriticalHit:
			stats.CriticalHits++
		case EventUpgradePurchased:
			stats.Purchases++
		case EventPurchaseRejected:
			stats.RejectedBuys++
		case EventAchievementUnlock:
			stats.Unlocks++
		case EventPassiveTick:
			stats.PassiveTicks++
			if amt, ok := ev.Metadata["amount"].(int); ok {
				stats.PibblesFromTick += amt
			}
		case EventGameSaved:
			stats.Saves++
		case EventSaveFailed:
			stats.SaveFailures++
		}
	}

	if stats.Clicks > 0 {
		stats.CritRate = float64(stats.CriticalHits) / float64(stats.Clicks)
	}
	return stats
}
