/*
Package game
File: state.go
Description:
    Defines the mutable save-state record of a player and its lifecycle helpers.
    The State is owned by a single Engine and passed explicitly to every rule,
    so tests can run many isolated games in parallel.

    Timestamps are stored as Unix milliseconds to keep the save format compact
    and stable across platforms.
*/

package game

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// CurrentSaveVersion gates Migrate.
const CurrentSaveVersion = 3

// Phase is the position of the apocalypse flow.
type Phase string

const (
	PhaseTutorialIdle       Phase = "tutorial_idle"
	PhaseTutorialConfirming Phase = "tutorial_confirming"
	PhaseTutorialExecuting  Phase = "tutorial_executing"
	PhaseIdle               Phase = "idle"
	PhaseConfirming         Phase = "confirming"
	PhaseExecuting          Phase = "executing"
)

// Milestone flags persisted in State.Milestones.
const (
	MilestoneFirstProducer   = "first_producer"
	MilestoneFirstUpgrade    = "first_upgrade"
	MilestoneFirstMutation   = "first_mutation"
	MilestoneFirstTrade      = "first_trade"
	MilestoneFirstApocalypse = "first_apocalypse"
)

var knownMilestones = []string{
	MilestoneFirstProducer,
	MilestoneFirstUpgrade,
	MilestoneFirstMutation,
	MilestoneFirstTrade,
	MilestoneFirstApocalypse,
}

// ProducerState is the per-save ownership of one producer type.
type ProducerState struct {
	Count int `json:"count"`
}

// AchievementState records when an achievement unlocked.
type AchievementState struct {
	Unlocked   bool  `json:"unlocked"`
	UnlockedAt int64 `json:"unlocked_at"`
}

// AssetState tracks the player's position and the market price of one asset.
type AssetState struct {
	Shares     int64     `json:"shares"`
	Price      float64   `json:"price"`
	History    []float64 `json:"history"`
	LastChange float64   `json:"last_change"` // Percent change of the last market tick
}

// State is the full save record.
type State struct {
	SaveVersion int    `json:"save_version"`
	RunID       string `json:"run_id"`

	// Run-scoped: reset by every apocalypse.
	Chaos               float64                  `json:"chaos"`
	Energy              float64                  `json:"energy"`
	ClockProgress       float64                  `json:"clock_progress"`
	RunChaosEarned      float64                  `json:"run_chaos_earned"`
	Producers           map[string]ProducerState `json:"producers"`
	ProducerMultipliers map[string]float64       `json:"producer_multipliers"`
	Upgrades            map[string]bool          `json:"upgrades"`
	ClickPower          float64                  `json:"click_power"`
	CritChance          float64                  `json:"crit_chance"`
	CritMultiplier      float64                  `json:"crit_multiplier"`
	AutoClickIntervalMs int64                    `json:"autoclick_interval_ms"`
	AutoClickAccumMs    float64                  `json:"autoclick_accum_ms"`
	ComboCount          int                      `json:"combo_count"`
	ComboMultiplier     float64                  `json:"combo_multiplier"`
	LastClickAt         int64                    `json:"last_click_at"`
	RunStartedAt        int64                    `json:"run_started_at"`
	Scenario            string                   `json:"scenario"`
	Phase               Phase                    `json:"apocalypse_phase"`

	// Permanent: survives apocalypses.
	Tokens           int64                       `json:"tokens"`
	Mutations        map[string]bool             `json:"mutations"`
	Achievements     map[string]AchievementState `json:"achievements"`
	Assets           map[string]AssetState       `json:"assets"`
	Milestones       map[string]bool             `json:"milestones"`
	TutorialDone     bool                        `json:"tutorial_done"`
	TotalClicks      int64                       `json:"total_clicks"`
	LifetimeChaos    float64                     `json:"lifetime_chaos"`
	TotalApocalypses int                         `json:"total_apocalypses"`
	BestRunMs        int64                       `json:"best_run_ms"`
	TotalCrits       int64                       `json:"total_crits"`
	LastSavedAt      int64                       `json:"last_saved_at"`
}

// NewState builds a fresh save for the given catalog.
func NewState(c *Catalog, now time.Time) *State {
	s := &State{
		SaveVersion:         CurrentSaveVersion,
		RunID:               uuid.NewString(),
		Producers:           make(map[string]ProducerState),
		ProducerMultipliers: make(map[string]float64),
		Upgrades:            make(map[string]bool),
		ClickPower:          c.Balance.BaseClickPower,
		CritMultiplier:      c.Balance.CritMultiplier,
		ComboMultiplier:     1,
		RunStartedAt:        now.UnixMilli(),
		Scenario:            c.Balance.DefaultScenario,
		Phase:               PhaseTutorialIdle,
		Mutations:           make(map[string]bool),
		Achievements:        make(map[string]AchievementState),
		Assets:              make(map[string]AssetState),
		Milestones:          make(map[string]bool),
		LastSavedAt:         now.UnixMilli(),
	}
	c.ensureEntries(s)
	return s
}

// ensureEntries backfills one entry per catalog id. Existing entries are kept.
func (c *Catalog) ensureEntries(s *State) {
	if s.Producers == nil {
		s.Producers = make(map[string]ProducerState)
	}
	if s.ProducerMultipliers == nil {
		s.ProducerMultipliers = make(map[string]float64)
	}
	if s.Upgrades == nil {
		s.Upgrades = make(map[string]bool)
	}
	if s.Mutations == nil {
		s.Mutations = make(map[string]bool)
	}
	if s.Achievements == nil {
		s.Achievements = make(map[string]AchievementState)
	}
	if s.Assets == nil {
		s.Assets = make(map[string]AssetState)
	}
	if s.Milestones == nil {
		s.Milestones = make(map[string]bool)
	}

	for _, p := range c.Producers {
		if _, ok := s.Producers[p.ID]; !ok {
			s.Producers[p.ID] = ProducerState{}
		}
		if m, ok := s.ProducerMultipliers[p.ID]; !ok || m <= 0 {
			s.ProducerMultipliers[p.ID] = 1
		}
	}
	for _, m := range c.Mutations {
		if _, ok := s.Mutations[m.ID]; !ok {
			s.Mutations[m.ID] = false
		}
	}
	for _, a := range c.Achievements {
		if _, ok := s.Achievements[a.ID]; !ok {
			s.Achievements[a.ID] = AchievementState{}
		}
	}
	for _, a := range c.Assets {
		if _, ok := s.Assets[a.ID]; !ok {
			s.Assets[a.ID] = AssetState{Price: a.BasePrice, History: []float64{a.BasePrice}}
		}
	}
}

// Count returns how many units of a producer are owned.
func (s *State) Count(id string) int {
	return s.Producers[id].Count
}

func (s *State) setCount(id string, n int) {
	s.Producers[id] = ProducerState{Count: n}
}

// TotalProducers sums every owned producer unit.
func (s *State) TotalProducers() int {
	total := 0
	for _, p := range s.Producers {
		total += p.Count
	}
	return total
}

// OwnedUpgrades counts purchased upgrades this run.
func (s *State) OwnedUpgrades() int {
	n := 0
	for _, owned := range s.Upgrades {
		if owned {
			n++
		}
	}
	return n
}

// OwnedMutations counts unlocked mutations.
func (s *State) OwnedMutations() int {
	n := 0
	for _, owned := range s.Mutations {
		if owned {
			n++
		}
	}
	return n
}

// TotalShares sums shares across every asset.
func (s *State) TotalShares() int64 {
	var n int64
	for _, a := range s.Assets {
		n += a.Shares
	}
	return n
}

// InTutorial reports whether the first-ever apocalypse is still pending.
func (s *State) InTutorial() bool {
	return !s.TutorialDone
}

// earn credits chaos to every counter that tracks earnings.
func (s *State) earn(amount float64) {
	if amount <= 0 {
		return
	}
	s.Chaos += amount
	s.RunChaosEarned += amount
	s.LifetimeChaos += amount
}

// Clone returns a deep copy. Apocalypse execution mutates a clone and commits it in one step.
func (s *State) Clone() *State {
	out := *s
	out.Producers = maps.Clone(s.Producers)
	out.ProducerMultipliers = maps.Clone(s.ProducerMultipliers)
	out.Upgrades = maps.Clone(s.Upgrades)
	out.Mutations = maps.Clone(s.Mutations)
	out.Achievements = maps.Clone(s.Achievements)
	out.Milestones = maps.Clone(s.Milestones)
	out.Assets = make(map[string]AssetState, len(s.Assets))
	for id, a := range s.Assets {
		a.History = slices.Clone(a.History)
		out.Assets[id] = a
	}
	return &out
}
