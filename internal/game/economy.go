/*
Package game
File: economy.go
Description:
    Handles the economic formulas of the Chaos Engine.
    This includes:
    1. Producer cost curves (single, bulk and buy-max).
    2. Production aggregation with every multiplier source.
    3. Click power, critical hits and the combo window.

    Everything here is a pure function of (Catalog, State) except the crit roll,
    which takes an injected Random source.
*/

package game

import "math"

// Random is a uniform [0,1) source. *math/rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// Cost returns the price of the next unit of a producer.
func (c *Catalog) Cost(p *ProducerType, s *State) float64 {
	return c.costAt(p, s, s.Count(p.ID))
}

// costAt prices the unit bought when 'owned' units are already owned.
// The cost reduction mutation is applied after exponentiation.
func (c *Catalog) costAt(p *ProducerType, s *State, owned int) float64 {
	cost := math.Floor(p.BaseCost * math.Pow(p.CostMultiplier, float64(owned)))
	if r := c.mutationProduct(s, MutationCostReduction); r != 1 {
		cost = math.Floor(cost * r)
	}
	return cost
}

// BulkCost prices 'amount' units with the closed-form geometric series,
// so buying N never iterates N times.
// The series grows from the floored first cost and skips the per-unit floors, so with a
// fractional multiplier it can run above the sum of floored unit costs.
func (c *Catalog) BulkCost(p *ProducerType, s *State, amount int) float64 {
	return c.bulkCostFrom(p, s, s.Count(p.ID), amount)
}

// bulkCostFrom prices 'amount' units starting at the unit bought when 'owned' are owned.
func (c *Catalog) bulkCostFrom(p *ProducerType, s *State, owned, amount int) float64 {
	if amount <= 0 {
		return 0
	}
	first := c.costAt(p, s, owned)
	mult := p.CostMultiplier
	if mult == 1 {
		return first * float64(amount)
	}
	return first * (1 - math.Pow(mult, float64(amount))) / (1 - mult)
}

// MaxAffordable walks unit costs from the current count until the balance runs out.
// Iteration stops at Balance.MaxBulkBuy units; that cap only bounds the work done here.
func (c *Catalog) MaxAffordable(p *ProducerType, s *State, balance float64) (int, float64) {
	owned := s.Count(p.ID)
	units, total := 0, 0.0
	for units < c.Balance.MaxBulkBuy {
		next := c.costAt(p, s, owned+units)
		if total+next > balance {
			break
		}
		total += next
		units++
	}
	return units, total
}

// Production returns the chaos/sec of one producer type with every multiplier applied once.
func (c *Catalog) Production(p *ProducerType, s *State) float64 {
	count := s.Count(p.ID)
	if count <= 0 {
		return 0
	}
	rate := p.BaseProduction * float64(count)
	rate *= s.producerMultiplier(p.ID)
	rate *= c.mutationProduct(s, MutationProductionMul)
	rate *= c.ComposedMultiplier(RewardProduction, s)
	rate *= c.scenarioFactor(s, ScenarioProduction, p.ID)
	return rate
}

// Dividend returns the chaos/sec paid by the player's shares of one asset.
func (c *Catalog) Dividend(a *TradableAssetType, s *State) float64 {
	st := s.Assets[a.ID]
	if st.Shares <= 0 {
		return 0
	}
	return float64(st.Shares) * st.Price * a.DividendRate * c.ComposedMultiplier(RewardStock, s) / 100
}

// TotalProductionPerSecond sums producers and dividends.
func (c *Catalog) TotalProductionPerSecond(s *State) float64 {
	total := 0.0
	for i := range c.Producers {
		total += c.Production(&c.Producers[i], s)
	}
	for i := range c.Assets {
		total += c.Dividend(&c.Assets[i], s)
	}
	return total
}

// ClickPower returns the value of one click.
// Critical hits multiply before the scenario; the insight bonus is added last.
func (c *Catalog) ClickPower(s *State, critical bool) float64 {
	power := s.ClickPower * c.mutationProduct(s, MutationClickBoost)
	power *= s.ComboMultiplier
	power *= c.ComposedMultiplier(RewardClick, s)
	if critical {
		power *= s.CritMultiplier * c.ComposedMultiplier(RewardCrit, s)
	}
	power *= c.scenarioFactor(s, ScenarioClick, ScenarioTargetAll)
	if insight := c.mutationSum(s, MutationInsight); insight > 0 {
		power += insight * c.TotalProductionPerSecond(s)
	}
	return power
}

// pulsePower is what one auto-click is worth: no combo, no crit.
func (c *Catalog) pulsePower(s *State) float64 {
	saved := s.ComboMultiplier
	s.ComboMultiplier = 1
	power := c.ClickPower(s, false)
	s.ComboMultiplier = saved
	return power
}

// rollCritical draws once when the player has any crit chance.
func rollCritical(rng Random, s *State) bool {
	if s.CritChance <= 0 {
		return false
	}
	return rng.Float64() < s.CritChance
}

// registerCombo updates the combo window for a manual click at nowMs.
// The combo only changes on click events; inactivity is detected lazily.
func (c *Catalog) registerCombo(s *State, nowMs int64) {
	if s.LastClickAt > 0 && nowMs-s.LastClickAt < c.Balance.ComboWindowMs {
		s.ComboCount++
		s.ComboMultiplier = math.Min(1+c.Balance.ComboStep*float64(s.ComboCount), c.Balance.ComboMax)
	} else {
		s.ComboCount = 1
		s.ComboMultiplier = 1
	}
	s.LastClickAt = nowMs
}

// mutationProduct multiplies the values of every unlocked mutation of a kind.
func (c *Catalog) mutationProduct(s *State, kind string) float64 {
	product := 1.0
	for _, m := range c.Mutations {
		if m.Kind == kind && s.Mutations[m.ID] {
			product *= m.Value
		}
	}
	return product
}

// mutationSum adds the values of every unlocked mutation of a kind.
func (c *Catalog) mutationSum(s *State, kind string) float64 {
	sum := 0.0
	for _, m := range c.Mutations {
		if m.Kind == kind && s.Mutations[m.ID] {
			sum += m.Value
		}
	}
	return sum
}

// scenarioFactor returns the active scenario multiplier for a target.
// Effects aimed at "all" apply to every target.
func (c *Catalog) scenarioFactor(s *State, kind, target string) float64 {
	sc := c.Scenario(s.Scenario)
	if sc == nil {
		return 1
	}
	factor := 1.0
	for _, e := range sc.Effects {
		if e.Kind != kind {
			continue
		}
		if e.Target == ScenarioTargetAll || e.Target == target {
			factor *= e.Factor
		}
	}
	return factor
}

// ApocalypseThreshold is the doomsday clock value needed for the next post-tutorial apocalypse.
func (c *Catalog) ApocalypseThreshold(s *State) float64 {
	return c.Balance.ClockBaseThreshold + float64(s.TotalApocalypses)*c.Balance.ClockThresholdStep
}
