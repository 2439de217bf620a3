/*
Package game
File: persist.go
Description:
    Save-state persistence: serialize, merge-on-load, migrate and offline progress.

    Loading never unmarshals a payload straight into the live State. The payload
    is decoded into raw JSON members, and only members named in an allow-list
    schema are copied into a fresh draft. Nested maps only accept ids that exist
    in the catalog. Everything else is dropped with a warning. A payload that
    cannot be parsed at all leaves the current game untouched.
*/

package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

// ErrMalformedSave is returned when a save payload cannot be parsed.
var ErrMalformedSave = errors.New("malformed save")

// reservedKeys are never accepted at any level, even if a schema were to name them.
var reservedKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// MergeReport lists the members a merge refused.
type MergeReport struct {
	Dropped []string `json:"dropped,omitempty"`
}

func (r *MergeReport) drop(path, reason string) {
	r.Dropped = append(r.Dropped, path+" ("+reason+")")
}

// Serialize snapshots the whole state as JSON.
func Serialize(s *State) ([]byte, error) {
	return json.Marshal(s)
}

// fieldDecoder copies one validated JSON member into the draft.
type fieldDecoder func(raw json.RawMessage, path string, r *MergeReport) error

func scalar[T any](dst *T) fieldDecoder {
	return func(raw json.RawMessage, _ string, _ *MergeReport) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

func nonNegative[T int | int64 | float64](dst *T) fieldDecoder {
	return func(raw json.RawMessage, _ string, _ *MergeReport) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if v < 0 {
			return errors.New("negative value")
		}
		*dst = v
		return nil
	}
}

// keyed merges a JSON object member by member into dst.
// Only keys accepted by allowed are kept; each value must decode and pass check.
func keyed[V any](dst map[string]V, allowed func(string) bool, check func(V) error) fieldDecoder {
	return func(raw json.RawMessage, path string, r *MergeReport) error {
		var members map[string]json.RawMessage
		if err := json.Unmarshal(raw, &members); err != nil {
			return err
		}
		for key, val := range members {
			sub := path + "." + key
			if reservedKeys[key] {
				r.drop(sub, "reserved key")
				continue
			}
			if !allowed(key) {
				r.drop(sub, "unknown id")
				continue
			}
			var v V
			if err := json.Unmarshal(val, &v); err != nil {
				r.drop(sub, "invalid value")
				continue
			}
			if check != nil {
				if err := check(v); err != nil {
					r.drop(sub, err.Error())
					continue
				}
			}
			dst[key] = v
		}
		return nil
	}
}

// schema is the allow-list of top-level members, bound to the draft's fields.
func (c *Catalog) schema(d *State) map[string]fieldDecoder {
	isProducer := func(id string) bool { return c.Producer(id) != nil }
	isUpgrade := func(id string) bool { return c.Upgrade(id) != nil }
	isMutation := func(id string) bool { return c.Mutation(id) != nil }
	isAchievement := func(id string) bool { return c.Achievement(id) != nil }
	isAsset := func(id string) bool { return c.Asset(id) != nil }
	isMilestone := func(id string) bool {
		for _, m := range knownMilestones {
			if m == id {
				return true
			}
		}
		return false
	}

	return map[string]fieldDecoder{
		"save_version":          scalar(&d.SaveVersion),
		"run_id":                scalar(&d.RunID),
		"chaos":                 nonNegative(&d.Chaos),
		"energy":                nonNegative(&d.Energy),
		"clock_progress":        nonNegative(&d.ClockProgress),
		"run_chaos_earned":      nonNegative(&d.RunChaosEarned),
		"click_power":           nonNegative(&d.ClickPower),
		"crit_chance":           nonNegative(&d.CritChance),
		"crit_multiplier":       nonNegative(&d.CritMultiplier),
		"autoclick_interval_ms": nonNegative(&d.AutoClickIntervalMs),
		"autoclick_accum_ms":    nonNegative(&d.AutoClickAccumMs),
		"combo_count":           nonNegative(&d.ComboCount),
		"combo_multiplier":      nonNegative(&d.ComboMultiplier),
		"last_click_at":         nonNegative(&d.LastClickAt),
		"run_started_at":        nonNegative(&d.RunStartedAt),
		"tokens":                nonNegative(&d.Tokens),
		"tutorial_done":         scalar(&d.TutorialDone),
		"total_clicks":          nonNegative(&d.TotalClicks),
		"lifetime_chaos":        nonNegative(&d.LifetimeChaos),
		"total_apocalypses":     nonNegative(&d.TotalApocalypses),
		"best_run_ms":           nonNegative(&d.BestRunMs),
		"total_crits":           nonNegative(&d.TotalCrits),
		"last_saved_at":         nonNegative(&d.LastSavedAt),
		"scenario": func(raw json.RawMessage, _ string, _ *MergeReport) error {
			var id string
			if err := json.Unmarshal(raw, &id); err != nil {
				return err
			}
			if c.Scenario(id) == nil {
				return fmt.Errorf("unknown scenario %q", id)
			}
			d.Scenario = id
			return nil
		},
		"apocalypse_phase": func(raw json.RawMessage, _ string, _ *MergeReport) error {
			var p Phase
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			switch p {
			case PhaseIdle, PhaseConfirming, PhaseExecuting,
				PhaseTutorialIdle, PhaseTutorialConfirming, PhaseTutorialExecuting:
				d.Phase = p
				return nil
			}
			return fmt.Errorf("unknown phase %q", p)
		},
		"producers": keyed(d.Producers, isProducer, func(p ProducerState) error {
			if p.Count < 0 {
				return errors.New("negative count")
			}
			if p.Count > c.Balance.MaxProducerCount {
				return fmt.Errorf("count above %d", c.Balance.MaxProducerCount)
			}
			return nil
		}),
		"producer_multipliers": keyed(d.ProducerMultipliers, isProducer, func(m float64) error {
			if m < 1 {
				return errors.New("multiplier below 1")
			}
			return nil
		}),
		"upgrades":     keyed(d.Upgrades, isUpgrade, nil),
		"mutations":    keyed(d.Mutations, isMutation, nil),
		"achievements": keyed(d.Achievements, isAchievement, nil),
		"assets": keyed(d.Assets, isAsset, func(a AssetState) error {
			if a.Shares < 0 || a.Price < 0 {
				return errors.New("negative shares or price")
			}
			return nil
		}),
		"milestones": keyed(d.Milestones, isMilestone, nil),
	}
}

// Merge copies the allow-listed members of a save payload into the draft state.
// Disallowed or invalid members are dropped individually and listed in the report.
// A payload that is not a JSON object fails with ErrMalformedSave.
func (c *Catalog) Merge(d *State, data []byte) (MergeReport, error) {
	var report MergeReport
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return report, fmt.Errorf("%w: %v", ErrMalformedSave, err)
	}
	if members == nil {
		return report, fmt.Errorf("%w: not an object", ErrMalformedSave)
	}

	fields := c.schema(d)
	for key, raw := range members {
		if reservedKeys[key] {
			report.drop(key, "reserved key")
			continue
		}
		decode, ok := fields[key]
		if !ok {
			report.drop(key, "unknown field")
			continue
		}
		if err := decode(raw, key, &report); err != nil {
			report.drop(key, err.Error())
		}
	}
	return report, nil
}

// Migrate backfills fields introduced after the save's version and bumps it.
// Each step only fills missing values, so migrating twice changes nothing.
func (c *Catalog) Migrate(s *State) bool {
	if s.SaveVersion >= CurrentSaveVersion {
		c.ensureEntries(s)
		return false
	}
	b := c.Balance
	c.ensureEntries(s)

	// v1 saves predate assets, scenarios and the combo system.
	if s.SaveVersion < 2 {
		for _, a := range c.Assets {
			st := s.Assets[a.ID]
			if st.Price <= 0 {
				st.Price = a.BasePrice
			}
			if len(st.History) == 0 {
				st.History = []float64{st.Price}
			}
			s.Assets[a.ID] = st
		}
		if s.Scenario == "" {
			s.Scenario = b.DefaultScenario
		}
		if s.ComboMultiplier <= 0 {
			s.ComboMultiplier = 1
		}
		if s.CritMultiplier <= 0 {
			s.CritMultiplier = b.CritMultiplier
		}
		if s.ClickPower <= 0 {
			s.ClickPower = b.BaseClickPower
		}
	}

	// v2 saves predate unlock timestamps and the tutorial flag.
	if s.SaveVersion < 3 {
		for id, a := range s.Achievements {
			if a.Unlocked && a.UnlockedAt == 0 {
				a.UnlockedAt = s.LastSavedAt
				s.Achievements[id] = a
			}
		}
		if !s.TutorialDone && s.TotalApocalypses > 0 {
			s.TutorialDone = true
		}
		if s.TotalApocalypses > 0 {
			s.Milestones[MilestoneFirstApocalypse] = true
		}
	}

	s.SaveVersion = CurrentSaveVersion
	return true
}

// settlePhase discards a confirmation or execution that was in flight when the save was taken.
func settlePhase(s *State) {
	switch {
	case !s.TutorialDone:
		s.Phase = PhaseTutorialIdle
	case s.Phase != PhaseIdle:
		s.Phase = PhaseIdle
	}
}

// OfflineGain computes chaos earned while the game was closed.
// Elapsed time is capped at OfflineMaxMs; anything under OfflineMinMs is ignored.
func (c *Catalog) OfflineGain(s *State, elapsedMs int64) float64 {
	b := c.Balance
	if elapsedMs < b.OfflineMinMs {
		return 0
	}
	clamped := min(elapsedMs, b.OfflineMaxMs)
	return c.TotalProductionPerSecond(s) * b.OfflineEfficiency * float64(clamped) / 1000
}

// Serialize stamps LastSavedAt and snapshots the state.
func (e *Engine) Serialize() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.LastSavedAt = e.clk.Now().UnixMilli()
	return Serialize(e.st)
}

// Load replaces the current game with a saved one.
// On ErrMalformedSave the current game is kept as it was.
func (e *Engine) Load(data []byte) (MergeReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	draft := NewState(e.cat, now)
	// A save without a version is older than versioning itself.
	draft.SaveVersion = 0

	report, err := e.cat.Merge(draft, data)
	if err != nil {
		e.log.Warn("save rejected", "err", err)
		return report, err
	}
	for _, d := range report.Dropped {
		e.log.Warn("save member dropped", "member", d)
	}
	migrated := e.cat.Migrate(draft)
	if e.cat.Scenario(draft.Scenario) == nil {
		draft.Scenario = e.cat.Balance.DefaultScenario
	}
	settlePhase(draft)

	e.st = draft
	e.lastTick = now
	e.emit(events.SaveLoaded, now, map[string]any{"migrated": migrated, "dropped": len(report.Dropped)})
	return report, nil
}

// ApplyOfflineProgress credits chaos for time spent away.
func (e *Engine) ApplyOfflineProgress(elapsed time.Duration) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	gained := e.cat.OfflineGain(e.st, elapsed.Milliseconds())
	if gained <= 0 {
		return 0
	}
	now := e.clk.Now()
	e.st.earn(gained)
	e.emit(events.OfflineProgress, now, map[string]any{"elapsed_ms": elapsed.Milliseconds(), "gained": gained})
	e.cat.CheckAll(e.st, now, e.notifier)
	return gained
}

// SinceLastSave returns how long ago the loaded save was written.
func (e *Engine) SinceLastSave() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st.LastSavedAt == 0 {
		return 0
	}
	return e.clk.Now().Sub(time.UnixMilli(e.st.LastSavedAt))
}
