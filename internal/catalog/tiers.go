package catalog

// Tier is an evolution stage of the pibble. Crossing MinPibbles for the
// first time promotes the session to that tier; tiers never regress.
type Tier struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	MinPibbles int    `json:"minPibbles"`
}

// Tiers returns the evolution stages in ascending order.
func Tiers() []Tier {
	return []Tier{
		{Level: 0, Name: "Pup", MinPibbles: 0},
		{Level: 1, Name: "Big Pibble", MinPibbles: 10000},
		{Level: 2, Name: "Galactic Pibble", MinPibbles: 1000000},
	}
}

// TierFor returns the highest tier whose threshold the balance has met.
func TierFor(tiers []Tier, pibbles int) Tier {
	best := Tier{}
	for _, t := range tiers {
		if pibbles >= t.MinPibbles && t.Level >= best.Level {
			best = t
		}
	}
	return best
}
