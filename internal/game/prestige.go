/*
Package game
File: prestige.go
Description:
    The apocalypse (prestige) controller.

    Flow:  idle -> confirming -> executing -> idle
    First: tutorial_idle -> tutorial_confirming -> tutorial_executing -> idle

    The tutorial cycle triggers on a flat chaos threshold; every later cycle
    triggers when the doomsday clock reaches a threshold that grows per cycle.
    Execution works on a cloned draft of the state and commits it with a single
    assignment, so a crash mid-execution can never persist a half-reset run.
*/

package game

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

var (
	ErrApocalypseNotReady = errors.New("the end is not yet near")
	ErrZeroReward         = errors.New("apocalypse would yield no tokens")
	ErrNotConfirming      = errors.New("no apocalypse awaiting confirmation")
)

// Preview is what the player confirms.
type Preview struct {
	Reward    int64   `json:"reward"`
	Tutorial  bool    `json:"tutorial"`
	Progress  float64 `json:"progress"`
	Threshold float64 `json:"threshold"`
}

// ApocalypseReport summarises an executed apocalypse.
type ApocalypseReport struct {
	Reward       int64    `json:"reward"`
	Tokens       int64    `json:"tokens"`
	RunMs        int64    `json:"run_ms"`
	Carryover    float64  `json:"carryover"`
	Scenario     string   `json:"scenario"`
	Tutorial     bool     `json:"tutorial"`
	Achievements []string `json:"achievements,omitempty"`
}

// TriggerMet reports whether an apocalypse may be requested.
func (c *Catalog) TriggerMet(s *State) bool {
	if s.InTutorial() {
		return s.Chaos >= c.Balance.TutorialThreshold
	}
	return s.ClockProgress >= c.ApocalypseThreshold(s)
}

// Reward computes the token reward for ending the run now.
func (c *Catalog) Reward(s *State) int64 {
	scale := c.Balance.RewardScale
	reward := math.Max(1, math.Floor(math.Sqrt(math.Max(0, s.Chaos)/scale)))
	if boost := c.mutationProduct(s, MutationTokenBoost); boost != 1 {
		reward = math.Floor(reward * boost)
	}
	reward = math.Floor(reward * c.ComposedMultiplier(RewardToken, s))
	return int64(reward)
}

func (c *Catalog) preview(s *State) Preview {
	p := Preview{Reward: c.Reward(s), Tutorial: s.InTutorial()}
	if p.Tutorial {
		p.Progress, p.Threshold = s.Chaos, c.Balance.TutorialThreshold
	} else {
		p.Progress, p.Threshold = s.ClockProgress, c.ApocalypseThreshold(s)
	}
	return p
}

// RequestApocalypse moves to the confirming phase when the trigger is met.
func (e *Engine) RequestApocalypse() (Preview, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	s := e.st
	p := e.cat.preview(s)

	if !e.cat.TriggerMet(s) {
		e.emit(events.Info, now, map[string]any{"message": ErrApocalypseNotReady.Error(), "preview": p})
		return p, ErrApocalypseNotReady
	}
	// The tutorial threshold already guarantees a worthwhile reward.
	if p.Reward < 1 && !p.Tutorial {
		e.emit(events.Info, now, map[string]any{"message": ErrZeroReward.Error(), "preview": p})
		return p, ErrZeroReward
	}

	if p.Tutorial {
		s.Phase = PhaseTutorialConfirming
	} else {
		s.Phase = PhaseConfirming
	}
	e.emit(events.ApocalypseRequested, now, p)
	return p, nil
}

// CancelApocalypse leaves the confirming phase. Nothing else changes.
func (e *Engine) CancelApocalypse() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.st.Phase {
	case PhaseConfirming:
		e.st.Phase = PhaseIdle
	case PhaseTutorialConfirming:
		e.st.Phase = PhaseTutorialIdle
	default:
		return ErrNotConfirming
	}
	e.emit(events.ApocalypseCancelled, e.clk.Now(), nil)
	return nil
}

// ConfirmApocalypse executes the reset requested by RequestApocalypse.
func (e *Engine) ConfirmApocalypse() (ApocalypseReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.st
	tutorial := s.Phase == PhaseTutorialConfirming
	if s.Phase != PhaseConfirming && !tutorial {
		return ApocalypseReport{}, ErrNotConfirming
	}

	// Actions stay open while confirming; the trigger may no longer hold.
	now := e.clk.Now()
	if !e.cat.TriggerMet(s) {
		if tutorial {
			s.Phase = PhaseTutorialIdle
		} else {
			s.Phase = PhaseIdle
		}
		e.emit(events.Info, now, map[string]any{"message": ErrApocalypseNotReady.Error(), "preview": e.cat.preview(s)})
		return ApocalypseReport{}, ErrApocalypseNotReady
	}

	reward := e.cat.Reward(s)
	if reward < 1 && !tutorial {
		return ApocalypseReport{}, ErrZeroReward
	}

	draft := s.Clone()
	if tutorial {
		draft.Phase = PhaseTutorialExecuting
	} else {
		draft.Phase = PhaseExecuting
	}

	// Achievement events raised on the draft are held until the commit.
	var pending events.Recorder
	report := e.cat.executeApocalypse(draft, reward, now, e.rng, &pending)
	report.Tutorial = tutorial

	e.st = draft
	e.lastTick = now
	for _, ev := range pending.Events() {
		e.notifier.Notify(ev)
	}
	e.emit(events.ApocalypseExecuted, now, report)
	e.log.Info("apocalypse executed",
		"reward", report.Reward, "tokens", report.Tokens, "run_ms", report.RunMs,
		"scenario", report.Scenario, "tutorial", tutorial)
	return report, nil
}

// executeApocalypse runs the reset protocol on a draft state.
func (c *Catalog) executeApocalypse(d *State, reward int64, now time.Time, rng Random, n events.Notifier) ApocalypseReport {
	nowMs := now.UnixMilli()
	b := c.Balance

	// 1. Run duration and best run
	runMs := max(nowMs-d.RunStartedAt, 0)
	if d.BestRunMs == 0 || runMs < d.BestRunMs {
		d.BestRunMs = runMs
	}

	// 2. Tokens and lifetime counter
	d.Tokens += reward
	d.TotalApocalypses++

	// 3. Fast-cycle achievement. Its catalog requirement is "never"; this is the only unlock path.
	var unlocked []string
	if fast := c.Achievement(b.FastCycleAchievement); fast != nil && runMs < b.FastCycleMs && !d.Achievements[fast.ID].Unlocked {
		c.unlockAchievement(fast, d, now, n)
		unlocked = append(unlocked, fast.ID)
	}

	// 4. Carryover, measured on the production of the run that is ending
	carry := 0.0
	if share := c.mutationSum(d, MutationCarryover); share > 0 {
		if d.Achievements[b.FastCycleAchievement].Unlocked {
			share += b.FastCycleBonus
		}
		carry = c.TotalProductionPerSecond(d) * share * b.CarryoverSeconds
	}

	// 5. Reset run-scoped counters
	d.Chaos = carry
	d.Energy = 0
	d.ClockProgress = 0
	d.RunChaosEarned = 0
	for id := range d.Producers {
		d.Producers[id] = ProducerState{}
	}
	for id := range d.ProducerMultipliers {
		d.ProducerMultipliers[id] = 1
	}
	d.Upgrades = make(map[string]bool)
	// Click achievements are composed on demand by ClickPower, so resetting the base re-applies them.
	d.ClickPower = b.BaseClickPower
	d.CritChance = 0
	d.CritMultiplier = b.CritMultiplier
	d.AutoClickIntervalMs = 0
	d.AutoClickAccumMs = 0
	d.ComboCount = 0
	d.ComboMultiplier = 1
	d.LastClickAt = 0
	d.RunStartedAt = nowMs
	d.RunID = uuid.NewString()

	// 6. Scenario for the next run
	d.Scenario = c.SelectScenario(d, rng)

	// 7. Market prices back to base; shares are a meta-investment and stay
	c.resetPrices(d)

	// 8. Wrap up and re-evaluate
	d.TutorialDone = true
	d.Milestones[MilestoneFirstApocalypse] = true
	d.Phase = PhaseIdle
	unlocked = append(unlocked, c.CheckAll(d, now, n)...)

	return ApocalypseReport{
		Reward:       reward,
		Tokens:       d.Tokens,
		RunMs:        runMs,
		Carryover:    carry,
		Scenario:     d.Scenario,
		Achievements: unlocked,
	}
}

// SelectScenario picks the modifier for the next run.
// No apocalypse completed yet, or a NoScenarioChance roll, means the default scenario;
// otherwise every scenario is equally likely.
func (c *Catalog) SelectScenario(s *State, rng Random) string {
	if s.TotalApocalypses == 0 || len(c.Scenarios) == 0 {
		return c.Balance.DefaultScenario
	}
	if rng.Float64() < c.Balance.NoScenarioChance {
		return c.Balance.DefaultScenario
	}
	idx := int(rng.Float64() * float64(len(c.Scenarios)))
	if idx >= len(c.Scenarios) {
		idx = len(c.Scenarios) - 1
	}
	return c.Scenarios[idx].ID
}
