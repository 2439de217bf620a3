/*
Package game
File: rules.go
Description:
    Interprets the tagged requirement and effect descriptors stored in the catalog.
    Keeping these as data (instead of functions) lets the catalog live in YAML,
    be validated at load time, and be replayed in tests.
*/

package game

import (
	"fmt"
	"math"
)

// Requirement kinds.
const (
	ReqAlways         = "always"
	ReqNever          = "never" // Unlocked only by dedicated engine logic
	ReqUpgradeOwned   = "upgrade_owned"
	ReqProducerCount  = "producer_count"
	ReqTotalProducers = "total_producers"
	ReqTotalClicks    = "total_clicks"
	ReqLifetimeChaos  = "lifetime_chaos"
	ReqRunChaos       = "run_chaos"
	ReqChaosPerSecond = "chaos_per_second"
	ReqApocalypses    = "apocalypses"
	ReqCombo          = "combo"
	ReqCriticalHits   = "critical_hits"
	ReqUpgradesOwned  = "upgrades_owned"
	ReqMutationsOwned = "mutations_owned"
	ReqSharesOwned    = "shares_owned"
)

// Upgrade effect kinds.
const (
	EffectMultiplyProducer = "multiply_producer"
	EffectMultiplyClick    = "multiply_click"
	EffectAddClick         = "add_click"
	EffectSetCritChance    = "set_crit_chance"
	EffectSetCritMult      = "set_crit_multiplier"
	EffectSetAutoClick     = "set_autoclick_interval"
)

// Mutation kinds.
const (
	MutationCarryover     = "carryover"
	MutationProductionMul = "production_mult"
	MutationCostReduction = "cost_reduction"
	MutationTokenBoost    = "token_boost"
	MutationClickBoost    = "click_boost"
	MutationInsight       = "insight"
)

// Achievement reward kinds.
const (
	RewardChaos      = "chaos"
	RewardClick      = "click_mult"
	RewardProduction = "production_mult"
	RewardToken      = "token_mult"
	RewardStock      = "stock_mult"
	RewardCrit       = "crit_mult"
)

// Scenario effect kinds.
const (
	ScenarioProduction = "production"
	ScenarioClick      = "click"
	ScenarioTargetAll  = "all"
)

// Satisfied evaluates a requirement against the state. An empty kind always passes.
func (c *Catalog) Satisfied(r Requirement, s *State) bool {
	switch r.Kind {
	case "", ReqAlways:
		return true
	case ReqNever:
		return false
	case ReqUpgradeOwned:
		return s.Upgrades[r.Target]
	case ReqProducerCount:
		return float64(s.Count(r.Target)) >= r.Threshold
	case ReqTotalProducers:
		return float64(s.TotalProducers()) >= r.Threshold
	case ReqTotalClicks:
		return float64(s.TotalClicks) >= r.Threshold
	case ReqLifetimeChaos:
		return s.LifetimeChaos >= r.Threshold
	case ReqRunChaos:
		return s.RunChaosEarned >= r.Threshold
	case ReqChaosPerSecond:
		return c.TotalProductionPerSecond(s) >= r.Threshold
	case ReqApocalypses:
		return float64(s.TotalApocalypses) >= r.Threshold
	case ReqCombo:
		return float64(s.ComboCount) >= r.Threshold
	case ReqCriticalHits:
		return float64(s.TotalCrits) >= r.Threshold
	case ReqUpgradesOwned:
		return float64(s.OwnedUpgrades()) >= r.Threshold
	case ReqMutationsOwned:
		return float64(s.OwnedMutations()) >= r.Threshold
	case ReqSharesOwned:
		return float64(s.TotalShares()) >= r.Threshold
	}
	return false
}

// applyEffect mutates economy parameters for one purchased upgrade.
// Every effect only ever improves the player's position.
func (c *Catalog) applyEffect(e Effect, s *State) {
	switch e.Kind {
	case EffectMultiplyProducer:
		s.ProducerMultipliers[e.Target] = s.producerMultiplier(e.Target) * e.Value
	case EffectMultiplyClick:
		s.ClickPower *= e.Value
	case EffectAddClick:
		s.ClickPower += e.Value
	case EffectSetCritChance:
		s.CritChance = math.Min(1, math.Max(s.CritChance, e.Value))
	case EffectSetCritMult:
		s.CritMultiplier = math.Max(s.CritMultiplier, e.Value)
	case EffectSetAutoClick:
		interval := max(int64(e.Value), c.Balance.MinAutoClickMs)
		if s.AutoClickIntervalMs == 0 || interval < s.AutoClickIntervalMs {
			s.AutoClickIntervalMs = interval
		}
	}
}

func (s *State) producerMultiplier(id string) float64 {
	m, ok := s.ProducerMultipliers[id]
	if !ok || m <= 0 {
		return 1
	}
	return m
}

func validRequirement(r Requirement) error {
	switch r.Kind {
	case "", ReqAlways, ReqNever, ReqTotalProducers, ReqTotalClicks, ReqLifetimeChaos,
		ReqRunChaos, ReqChaosPerSecond, ReqApocalypses, ReqCombo, ReqCriticalHits,
		ReqUpgradesOwned, ReqMutationsOwned, ReqSharesOwned:
		return nil
	case ReqUpgradeOwned, ReqProducerCount:
		if r.Target == "" {
			return fmt.Errorf("requirement %q needs a target", r.Kind)
		}
		return nil
	}
	return fmt.Errorf("unknown requirement kind %q", r.Kind)
}

func validEffect(e Effect) error {
	switch e.Kind {
	case EffectMultiplyProducer:
		if e.Target == "" {
			return fmt.Errorf("effect %q needs a target", e.Kind)
		}
		if e.Value < 1 {
			return fmt.Errorf("effect %q must not reduce production", e.Kind)
		}
	case EffectMultiplyClick:
		if e.Value < 1 {
			return fmt.Errorf("effect %q must not reduce click power", e.Kind)
		}
	case EffectAddClick, EffectSetCritMult, EffectSetAutoClick:
		if e.Value <= 0 {
			return fmt.Errorf("effect %q needs a positive value", e.Kind)
		}
	case EffectSetCritChance:
		if e.Value <= 0 || e.Value > 1 {
			return fmt.Errorf("effect %q needs a chance in (0,1]", e.Kind)
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

func validMutationKind(kind string) bool {
	switch kind {
	case MutationCarryover, MutationProductionMul, MutationCostReduction,
		MutationTokenBoost, MutationClickBoost, MutationInsight:
		return true
	}
	return false
}

func validRewardKind(kind string) bool {
	switch kind {
	case RewardChaos, RewardClick, RewardProduction, RewardToken, RewardStock, RewardCrit:
		return true
	}
	return false
}
