package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/chaos-engine/internal/clock"
	"github.com/everforgeworks/chaos-engine/internal/events"
)

// A small catalog with round numbers so expectations can be computed by hand.
const testCatalogYAML = `
balance:
  fast_cycle_achievement: speedrun
  fast_cycle_bonus: 0.05
  clock_per_click: 0.5

producers:
  - id: imp
    name: Imp
    base_cost: 10
    cost_multiplier: 2
    base_production: 1
    unlock: { kind: always }
  - id: golem
    name: Golem
    base_cost: 50
    cost_multiplier: 1
    base_production: 5
    unlock: { kind: lifetime_chaos, threshold: 100 }

upgrades:
  - id: claws
    name: Claws
    cost: 10
    effects: [{ kind: multiply_click, value: 2 }]
  - id: imp_boost
    name: Imp Boost
    cost: 100
    effects: [{ kind: multiply_producer, target: imp, value: 2 }]
    requirement: { kind: producer_count, target: imp, threshold: 1 }
  - id: autoclick
    name: Autoclick
    cost: 5
    effects: [{ kind: set_autoclick_interval, value: 100 }]
  - id: crits
    name: Crits
    cost: 0
    effects:
      - { kind: set_crit_chance, value: 0.5 }
      - { kind: set_crit_multiplier, value: 3 }

mutations:
  - { id: memory, name: Memory, cost: 1, kind: carryover, value: 0.1 }
  - { id: decay, name: Decay, cost: 2, kind: production_mult, value: 2 }
  - { id: discount, name: Discount, cost: 1, kind: cost_reduction, value: 0.5 }
  - { id: insight, name: Insight, cost: 1, kind: insight, value: 0.05 }
  - { id: boost, name: Boost, cost: 3, kind: token_boost, value: 1.5 }

achievements:
  - id: first_click
    name: First Click
    requirement: { kind: total_clicks, threshold: 1 }
    reward: { kind: chaos, value: 10 }
  - id: clicker
    name: Clicker
    requirement: { kind: total_clicks, threshold: 5 }
    reward: { kind: click_mult, value: 2 }
  - id: speedrun
    name: Speedrun
    requirement: { kind: never }
    reward: { kind: token_mult, value: 1.5 }
  - id: ender
    name: Ender
    requirement: { kind: apocalypses, threshold: 1 }
    reward: { kind: production_mult, value: 1.5 }

assets:
  - { id: stock, name: Stock, base_price: 100, volatility: 0.1, dividend_rate: 1 }

scenarios:
  - { id: none, name: None, effects: [] }
  - { id: double, name: Double, effects: [{ kind: production, target: all, factor: 2 }] }
  - { id: frenzy, name: Frenzy, effects: [{ kind: click, target: all, factor: 3 }] }
`

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// seqRandom replays a fixed sequence of draws, cycling when exhausted.
type seqRandom struct {
	vals []float64
	i    int
}

func (r *seqRandom) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	return c
}

func newTestEngine(t *testing.T, draws ...float64) (*Engine, *clock.Fake, *events.Recorder) {
	t.Helper()
	if len(draws) == 0 {
		draws = []float64{0.5}
	}
	clk := clock.NewFake(testStart)
	rec := &events.Recorder{}
	e := NewEngine(testCatalog(t), Options{
		Clock:    clk,
		Random:   &seqRandom{vals: draws},
		Notifier: rec,
	})
	return e, clk, rec
}
