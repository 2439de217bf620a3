/*
Package game
File: engine.go
Description:
    The Engine owns one State and one Catalog and is the only writer of that State.
    Every player action and every timer tick goes through an Engine method, which
    holds the engine lock for the whole operation, so actions and ticks never
    interleave. After each mutation the engine notifies the renderer and
    re-evaluates achievements.
*/

package game

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/everforgeworks/chaos-engine/internal/clock"
	"github.com/everforgeworks/chaos-engine/internal/events"
)

// Rejected actions. State is left unchanged whenever one of these is returned.
var (
	ErrUnknownID          = errors.New("unknown id")
	ErrLocked             = errors.New("not unlocked yet")
	ErrInsufficientChaos  = errors.New("insufficient chaos")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrAlreadyOwned       = errors.New("already owned")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Options configures the engine collaborators. Zero values get production defaults.
type Options struct {
	Clock    clock.Clock
	Random   Random
	Notifier events.Notifier
	Logger   *slog.Logger
}

// Engine is the single-writer controller of a game.
type Engine struct {
	mu       sync.Mutex
	cat      *Catalog
	st       *State
	clk      clock.Clock
	rng      Random
	notifier events.Notifier
	log      *slog.Logger
	lastTick time.Time
}

// NewEngine starts a fresh game for the catalog.
func NewEngine(cat *Catalog, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	now := opts.Clock.Now()
	return &Engine{
		cat:      cat,
		st:       NewState(cat, now),
		clk:      opts.Clock,
		rng:      opts.Random,
		notifier: opts.Notifier,
		log:      opts.Logger,
		lastTick: now,
	}
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cat
}

// SetCatalog swaps the catalog (hot reload). The state gains entries for new ids.
func (e *Engine) SetCatalog(cat *Catalog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cat = cat
	cat.ensureEntries(e.st)
	if cat.Scenario(e.st.Scenario) == nil {
		e.st.Scenario = cat.Balance.DefaultScenario
	}
	e.log.Info("catalog swapped", "producers", len(cat.Producers), "upgrades", len(cat.Upgrades))
}

// State returns a deep copy of the current state.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

func (e *Engine) emit(t events.Type, now time.Time, payload any) {
	e.notifier.Notify(events.New(t, now, payload))
}

// ClickResult describes one resolved manual click.
type ClickResult struct {
	Gained          float64 `json:"gained"`
	Critical        bool    `json:"critical"`
	Combo           int     `json:"combo"`
	ComboMultiplier float64 `json:"combo_multiplier"`
}

// Click resolves one manual click: combo, crit roll, energy and clock.
func (e *Engine) Click() ClickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	s := e.st
	e.cat.registerCombo(s, now.UnixMilli())
	crit := rollCritical(e.rng, s)
	power := e.cat.ClickPower(s, crit)

	s.earn(power)
	s.TotalClicks++
	if crit {
		s.TotalCrits++
	}
	s.Energy += e.cat.Balance.EnergyPerClick
	s.ClockProgress += e.cat.Balance.ClockPerClick

	res := ClickResult{Gained: power, Critical: crit, Combo: s.ComboCount, ComboMultiplier: s.ComboMultiplier}
	e.emit(events.Clicked, now, res)
	e.cat.CheckAll(s, now, e.notifier)
	return res
}

// Purchase describes a producer transaction.
type Purchase struct {
	ID     string  `json:"id"`
	Amount int     `json:"amount"`
	Chaos  float64 `json:"chaos"` // Paid on buy, refunded on sell
	Count  int     `json:"count"`
}

// BuyProducer buys 'amount' units priced with the geometric series.
func (e *Engine) BuyProducer(id string, amount int) (Purchase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.buyableProducer(id)
	if err != nil {
		return Purchase{}, err
	}
	if amount < 1 {
		return Purchase{}, ErrInvalidAmount
	}
	cost := math.Floor(e.cat.BulkCost(p, e.st, amount))
	if cost > e.st.Chaos {
		return Purchase{}, ErrInsufficientChaos
	}
	return e.completePurchase(p, amount, cost), nil
}

// BuyMaxProducer buys as many units as the balance allows.
func (e *Engine) BuyMaxProducer(id string) (Purchase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.buyableProducer(id)
	if err != nil {
		return Purchase{}, err
	}
	units, total := e.cat.MaxAffordable(p, e.st, e.st.Chaos)
	if units == 0 {
		return Purchase{}, ErrInsufficientChaos
	}
	return e.completePurchase(p, units, total), nil
}

func (e *Engine) buyableProducer(id string) (*ProducerType, error) {
	p := e.cat.Producer(id)
	if p == nil {
		return nil, ErrUnknownID
	}
	if !e.cat.Satisfied(p.Unlock, e.st) {
		return nil, ErrLocked
	}
	return p, nil
}

func (e *Engine) completePurchase(p *ProducerType, amount int, cost float64) Purchase {
	now := e.clk.Now()
	s := e.st
	s.Chaos -= cost
	s.setCount(p.ID, s.Count(p.ID)+amount)
	s.Milestones[MilestoneFirstProducer] = true

	res := Purchase{ID: p.ID, Amount: amount, Chaos: cost, Count: s.Count(p.ID)}
	e.emit(events.ProducerPurchased, now, res)
	e.cat.CheckAll(s, now, e.notifier)
	return res
}

// SellProducer sells the most recently bought units for a partial refund.
func (e *Engine) SellProducer(id string, amount int) (Purchase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.cat.Producer(id)
	if p == nil {
		return Purchase{}, ErrUnknownID
	}
	owned := e.st.Count(id)
	if amount < 1 || amount > owned {
		return Purchase{}, ErrInvalidAmount
	}

	refund := math.Floor(e.cat.bulkCostFrom(p, e.st, owned-amount, amount) * e.cat.Balance.SellRefund)
	if math.IsInf(refund, 0) || math.IsNaN(refund) {
		return Purchase{}, ErrInvalidAmount
	}

	now := e.clk.Now()
	e.st.Chaos += refund
	e.st.setCount(id, owned-amount)

	res := Purchase{ID: id, Amount: amount, Chaos: refund, Count: owned - amount}
	e.emit(events.ProducerSold, now, res)
	return res, nil
}

// BuyUpgrade buys a one-per-run upgrade and applies its effects.
func (e *Engine) BuyUpgrade(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.cat.Upgrade(id)
	if u == nil {
		return ErrUnknownID
	}
	s := e.st
	if s.Upgrades[id] {
		return ErrAlreadyOwned
	}
	if !e.cat.Satisfied(u.Requirement, s) {
		return ErrLocked
	}
	if u.Cost > s.Chaos {
		return ErrInsufficientChaos
	}

	now := e.clk.Now()
	s.Chaos -= u.Cost
	s.Upgrades[id] = true
	for _, eff := range u.Effects {
		e.cat.applyEffect(eff, s)
	}
	s.Milestones[MilestoneFirstUpgrade] = true

	e.emit(events.UpgradePurchased, now, map[string]any{"id": id, "cost": u.Cost})
	e.cat.CheckAll(s, now, e.notifier)
	return nil
}

// UnlockMutation spends tokens on a permanent mutation.
func (e *Engine) UnlockMutation(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.cat.Mutation(id)
	if m == nil {
		return ErrUnknownID
	}
	s := e.st
	if s.Mutations[id] {
		return ErrAlreadyOwned
	}
	if s.Tokens < m.Cost {
		return ErrInsufficientTokens
	}

	now := e.clk.Now()
	s.Tokens -= m.Cost
	s.Mutations[id] = true
	s.Milestones[MilestoneFirstMutation] = true

	e.emit(events.MutationUnlocked, now, map[string]any{"id": id, "cost": m.Cost, "tokens": s.Tokens})
	e.cat.CheckAll(s, now, e.notifier)
	return nil
}

// TickResult summarises one economy tick.
type TickResult struct {
	DeltaMs        int64   `json:"delta_ms"`
	Produced       float64 `json:"produced"`
	FromEnergy     float64 `json:"from_energy"`
	Pulses         int     `json:"pulses"`
	FromPulses     float64 `json:"from_pulses"`
	Chaos          float64 `json:"chaos"`
	ChaosPerSecond float64 `json:"chaos_per_second"`
}

// Tick advances the economy by the real time elapsed since the previous tick.
func (e *Engine) Tick() TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	delta := now.Sub(e.lastTick)
	e.lastTick = now
	if delta <= 0 {
		return TickResult{}
	}

	res := e.advance(e.st, delta)
	e.emit(events.TickAdvanced, now, res)
	e.cat.CheckAll(e.st, now, e.notifier)
	return res
}

// advance applies energy conversion, production and auto-click pulses over delta.
func (e *Engine) advance(s *State, delta time.Duration) TickResult {
	dt := delta.Seconds()
	cps := e.cat.TotalProductionPerSecond(s)

	fromEnergy := s.Energy * e.cat.Balance.EnergyConversion * dt
	produced := cps * dt
	s.earn(fromEnergy + produced)
	s.ClockProgress += e.cat.Balance.ClockPerSecond * dt

	pulses, fromPulses := e.firePulses(s, delta)

	return TickResult{
		DeltaMs:        delta.Milliseconds(),
		Produced:       produced,
		FromEnergy:     fromEnergy,
		Pulses:         pulses,
		FromPulses:     fromPulses,
		Chaos:          s.Chaos,
		ChaosPerSecond: cps,
	}
}

// firePulses fires every auto-click pulse that became due during delta.
// A backlog larger than MaxPulsesPerTick is capped and dropped.
func (e *Engine) firePulses(s *State, delta time.Duration) (int, float64) {
	if s.AutoClickIntervalMs <= 0 {
		s.AutoClickAccumMs = 0
		return 0, 0
	}
	interval := float64(s.AutoClickIntervalMs)
	s.AutoClickAccumMs += float64(delta.Microseconds()) / 1000
	due := int(s.AutoClickAccumMs / interval)
	if due == 0 {
		return 0, 0
	}
	if due > e.cat.Balance.MaxPulsesPerTick {
		due = e.cat.Balance.MaxPulsesPerTick
		s.AutoClickAccumMs = 0
	} else {
		s.AutoClickAccumMs -= float64(due) * interval
	}
	gained := e.cat.pulsePower(s) * float64(due)
	s.earn(gained)
	return due, gained
}
