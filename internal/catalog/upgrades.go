package catalog

import "fmt"

// Upgrade is a static catalog entry. A single entry may carry any mix of
// effect kinds; unused effects stay zero.
type Upgrade struct {
	ID         int     `json:"id"`
	Label      string  `json:"label"`
	BaseCost   int     `json:"baseCost"`
	ClickBonus int     `json:"value"`
	PPS        int     `json:"pps"`
	Speed      float64 `json:"speed"`
	CritChance float64 `json:"critChance"`
	CritMult   float64 `json:"critMult"`
}

// Defaults returns the built-in upgrade catalog, in purchase-menu order.
func Defaults() []Upgrade {
	return []Upgrade{
		{ID: 1, Label: "Click Upgrade 1", BaseCost: 50, ClickBonus: 5},
		{ID: 2, Label: "Click Upgrade 2", BaseCost: 100, ClickBonus: 10},
		{ID: 3, Label: "Click Upgrade 3", BaseCost: 200, ClickBonus: 20},
		{ID: 4, Label: "Auto Upgrade 1", BaseCost: 100, PPS: 1},
		{ID: 5, Label: "Auto Upgrade 2", BaseCost: 300, PPS: 5},
		{ID: 6, Label: "Zoomies", BaseCost: 500, Speed: 0.25},
		{ID: 7, Label: "Lucky Paw", BaseCost: 250, CritChance: 0.05},
		{ID: 8, Label: "Heavy Paw", BaseCost: 400, CritMult: 1.5},
		{ID: 9, Label: "Golden Pibble", BaseCost: 1000, ClickBonus: 10, PPS: 2, CritChance: 0.01},
	}
}

// Validate checks catalog invariants: unique ids, positive base costs,
// no negative effect magnitudes.
func Validate(upgrades []Upgrade) error {
	seen := map[int]bool{}
	for _, u := range upgrades {
		if seen[u.ID] {
			return fmt.Errorf("duplicate upgrade id: %d", u.ID)
		}
		seen[u.ID] = true
		if u.BaseCost <= 0 {
			return fmt.Errorf("upgrade %d: base cost must be positive, got %d", u.ID, u.BaseCost)
		}
		if u.ClickBonus < 0 || u.PPS < 0 || u.Speed < 0 || u.CritChance < 0 || u.CritMult < 0 {
			return fmt.Errorf("upgrade %d: effect magnitudes must be >= 0", u.ID)
		}
	}
	return nil
}

// ByID returns the catalog entry with the given id.
func ByID(upgrades []Upgrade, id int) (Upgrade, bool) {
	for _, u := range upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}
