package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

func TestCheckAllIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)
	rec := &events.Recorder{}

	s.TotalClicks = 5
	unlocked := c.CheckAll(s, testStart, rec)
	assert.ElementsMatch(t, []string{"first_click", "clicker"}, unlocked)
	assert.Equal(t, 10.0, s.Chaos, "chaos reward granted once")
	assert.Len(t, rec.OfType(events.AchievementUnlocked), 2)

	assert.Empty(t, c.CheckAll(s, testStart.Add(1), rec))
	assert.Equal(t, 10.0, s.Chaos)
	assert.Len(t, rec.OfType(events.AchievementUnlocked), 2)
	assert.Equal(t, testStart.UnixMilli(), s.Achievements["first_click"].UnlockedAt)
}

func TestUnlockedAchievementsStayUnlocked(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)

	s.TotalClicks = 1
	c.CheckAll(s, testStart, events.Nop{})
	assert.True(t, s.Achievements["first_click"].Unlocked)

	// Even if the requirement stops holding, the unlock is permanent.
	s.TotalClicks = 0
	c.CheckAll(s, testStart, events.Nop{})
	assert.True(t, s.Achievements["first_click"].Unlocked)
}

func TestNeverRequirementIsNotUnlockedByCheck(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)
	s.TotalApocalypses = 100

	assert.False(t, c.CheckOne("speedrun", s, testStart, events.Nop{}))
	assert.False(t, s.Achievements["speedrun"].Unlocked)
	assert.False(t, c.CheckOne("missing", s, testStart, events.Nop{}))
}

func TestComposedMultiplier(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)

	assert.Equal(t, 1.0, c.ComposedMultiplier(RewardClick, s))
	assert.Equal(t, 1.0, c.ComposedMultiplier(RewardToken, s))

	s.Achievements["clicker"] = AchievementState{Unlocked: true}
	s.Achievements["speedrun"] = AchievementState{Unlocked: true}
	assert.Equal(t, 2.0, c.ComposedMultiplier(RewardClick, s))
	assert.Equal(t, 1.5, c.ComposedMultiplier(RewardToken, s))
	assert.Equal(t, 1.0, c.ComposedMultiplier(RewardProduction, s))
}
