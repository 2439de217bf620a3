/*
Package game
File: achievements.go
Description:
    The achievement evaluator. Unlocking is monotonic: an unlocked id is never
    re-checked, and its reward is applied exactly once at unlock time.
    Multiplier rewards are not accumulated anywhere; they are recomputed from
    the unlocked set whenever a formula asks for them.
*/

package game

import (
	"time"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

// AchievementPayload is attached to AchievementUnlocked events.
type AchievementPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Reward   Reward `json:"reward"`
}

// CheckOne unlocks one achievement if its requirement holds. Returns true on a fresh unlock.
func (c *Catalog) CheckOne(id string, s *State, now time.Time, n events.Notifier) bool {
	a := c.Achievement(id)
	if a == nil || s.Achievements[id].Unlocked {
		return false
	}
	if !c.Satisfied(a.Requirement, s) {
		return false
	}
	c.unlockAchievement(a, s, now, n)
	return true
}

// CheckAll evaluates every locked achievement once and returns the newly unlocked ids.
func (c *Catalog) CheckAll(s *State, now time.Time, n events.Notifier) []string {
	var unlocked []string
	for i := range c.Achievements {
		if c.CheckOne(c.Achievements[i].ID, s, now, n) {
			unlocked = append(unlocked, c.Achievements[i].ID)
		}
	}
	return unlocked
}

// unlockAchievement performs the locked -> unlocked transition and grants the reward.
func (c *Catalog) unlockAchievement(a *AchievementType, s *State, now time.Time, n events.Notifier) {
	s.Achievements[a.ID] = AchievementState{Unlocked: true, UnlockedAt: now.UnixMilli()}
	if a.Reward.Kind == RewardChaos {
		s.earn(a.Reward.Value)
	}
	n.Notify(events.New(events.AchievementUnlocked, now, AchievementPayload{
		ID:       a.ID,
		Name:     a.Name,
		Category: a.Category,
		Reward:   a.Reward,
	}))
}

// ComposedMultiplier multiplies the reward values of every unlocked achievement of a kind.
// Returns 1 when none are unlocked.
func (c *Catalog) ComposedMultiplier(kind string, s *State) float64 {
	product := 1.0
	for _, a := range c.Achievements {
		if a.Reward.Kind == kind && s.Achievements[a.ID].Unlocked {
			product *= a.Reward.Value
		}
	}
	return product
}
