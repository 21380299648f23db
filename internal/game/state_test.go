package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pibbleclicker/internal/catalog"
)

func TestNewState(t *testing.T) {
	ups := catalog.Defaults()
	s := NewState(ups)

	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 1, s.PerClick)
	assert.Equal(t, 0, s.TotalClicks)
	assert.Empty(t, s.Unlocked)
	require.Len(t, s.Upgrades, len(ups))
	for i, u := range ups {
		assert.Equal(t, u.ID, s.Upgrades[i].ID)
		assert.Equal(t, 0, s.Upgrades[i].Level)
		assert.Equal(t, u.BaseCost, s.Upgrades[i].Cost)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := NewState(catalog.Defaults())
	s.Count = 42
	s.Unlocked["first_click"] = true

	c := s.Clone()
	c.Count = 7
	c.Upgrades[0].Level = 3
	c.Unlocked["ten_clicks"] = true

	assert.Equal(t, 42, s.Count)
	assert.Equal(t, 0, s.Upgrades[0].Level)
	assert.False(t, s.Unlocked["ten_clicks"])
	assert.True(t, c.Unlocked["first_click"])
}

func TestUnlockedIDs_CatalogOrder(t *testing.T) {
	s := NewState(catalog.Defaults())
	s.Unlocked["ten_clicks"] = true
	s.Unlocked["first_click"] = true
	s.Unlocked["millionaire"] = true

	ids := s.UnlockedIDs(catalog.Achievements())

	assert.Equal(t, []string{"first_click", "ten_clicks", "millionaire"}, ids)
}

func TestState_JSONFieldNames(t *testing.T) {
	s := NewState(catalog.Defaults())
	s.Count = 5
	s.TotalClicks = 3

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "count")
	assert.Contains(t, m, "pibblesPerClick")
	assert.Contains(t, m, "totalClicks")
	assert.Contains(t, m, "unlockedAchievements")
	assert.Contains(t, m, "upgrades")
}
