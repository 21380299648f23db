package catalog

// View is the read-only slice of game state that achievement predicates see.
type View struct {
	Pibbles     int
	TotalClicks int
	Upgrades    []UpgradeView
}

// UpgradeView pairs a purchased level with the effects that matter to
// predicates.
type UpgradeView struct {
	ID    int
	Level int
	PPS   int
}

func (v View) anyUpgradePurchased() bool {
	for _, u := range v.Upgrades {
		if u.Level > 0 {
			return true
		}
	}
	return false
}

func (v View) autoIncomePurchased() bool {
	for _, u := range v.Upgrades {
		if u.PPS > 0 && u.Level > 0 {
			return true
		}
	}
	return false
}

// Achievement is a static catalog entry. Condition must be a pure function
// of the view; unlocks are recorded by the engine and never re-derived.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Condition   func(View) bool
}

// Achievements returns the fixed achievement catalog. Evaluation and
// notification order follows this slice.
func Achievements() []Achievement {
	return []Achievement{
		{
			ID:          "first_click",
			Name:        "First Click!",
			Description: "Click the pibble for the first time",
			Condition:   func(v View) bool { return v.TotalClicks >= 1 },
		},
		{
			ID:          "hundred_pibbles",
			Name:        "Century Club",
			Description: "Reach 100 pibbles",
			Condition:   func(v View) bool { return v.Pibbles >= 100 },
		},
		{
			ID:          "thousand_pibbles",
			Name:        "Thousandaire",
			Description: "Reach 1,000 pibbles",
			Condition:   func(v View) bool { return v.Pibbles >= 1000 },
		},
		{
			ID:          "first_upgrade",
			Name:        "Upgrade Master",
			Description: "Buy your first upgrade",
			Condition:   func(v View) bool { return v.anyUpgradePurchased() },
		},
		{
			ID:          "ten_clicks",
			Name:        "Clicking Pro",
			Description: "Click 10 times",
			Condition:   func(v View) bool { return v.TotalClicks >= 10 },
		},
		{
			ID:          "hundred_clicks",
			Name:        "Clicking Master",
			Description: "Click 100 times",
			Condition:   func(v View) bool { return v.TotalClicks >= 100 },
		},
		{
			ID:          "auto_income",
			Name:        "Passive Income",
			Description: "Buy your first auto upgrade",
			Condition:   func(v View) bool { return v.autoIncomePurchased() },
		},
		{
			ID:          "millionaire",
			Name:        "Millionaire",
			Description: "Reach 1,000,000 pibbles",
			Condition:   func(v View) bool { return v.Pibbles >= 1000000 },
		},
	}
}
