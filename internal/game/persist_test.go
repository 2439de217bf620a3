package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/chaos-engine/internal/events"
)

func TestMergeDropsReservedAndUnknownKeys(t *testing.T) {
	c := testCatalog(t)
	d := NewState(c, testStart)

	payload := []byte(`{
		"__proto__": {"chaos": 1e12},
		"constructor": {"prototype": {"tokens": 99}},
		"chaos": 50,
		"is_admin": true,
		"producers": {
			"__proto__": {"count": 9},
			"imp": {"count": 2},
			"dragon": {"count": 4}
		},
		"mutations": {"prototype": true, "decay": true}
	}`)

	report, err := c.Merge(d, payload)
	require.NoError(t, err)

	assert.Equal(t, 50.0, d.Chaos)
	assert.Zero(t, d.Tokens)
	assert.Equal(t, 2, d.Count("imp"))
	assert.NotContains(t, d.Producers, "dragon")
	assert.NotContains(t, d.Producers, "__proto__")
	assert.NotContains(t, d.Mutations, "prototype")
	assert.True(t, d.Mutations["decay"])

	assert.Contains(t, report.Dropped, "__proto__ (reserved key)")
	assert.Contains(t, report.Dropped, "constructor (reserved key)")
	assert.Contains(t, report.Dropped, "is_admin (unknown field)")
	assert.Contains(t, report.Dropped, "producers.__proto__ (reserved key)")
	assert.Contains(t, report.Dropped, "producers.dragon (unknown id)")
	assert.Contains(t, report.Dropped, "mutations.prototype (reserved key)")
}

func TestMergeBoundsProducerCounts(t *testing.T) {
	c := testCatalog(t)
	d := NewState(c, testStart)

	report, err := c.Merge(d, []byte(`{"producers": {"imp": {"count": 4000000000}, "golem": {"count": 100000}}}`))
	require.NoError(t, err)

	assert.Zero(t, d.Count("imp"))
	assert.Equal(t, 100_000, d.Count("golem"))
	assert.Contains(t, report.Dropped, "producers.imp (count above 100000)")
}

func TestMergeRejectsInvalidValues(t *testing.T) {
	c := testCatalog(t)
	d := NewState(c, testStart)

	payload := []byte(`{
		"chaos": -5,
		"tokens": "lots",
		"scenario": "apocalypse_forever",
		"apocalypse_phase": "exploding",
		"producers": {"imp": {"count": -3}},
		"producer_multipliers": {"imp": 0.5}
	}`)

	report, err := c.Merge(d, payload)
	require.NoError(t, err)

	assert.Zero(t, d.Chaos)
	assert.Zero(t, d.Tokens)
	assert.Equal(t, "none", d.Scenario)
	assert.Equal(t, PhaseTutorialIdle, d.Phase)
	assert.Zero(t, d.Count("imp"))
	assert.Equal(t, 1.0, d.ProducerMultipliers["imp"])
	assert.Len(t, report.Dropped, 6)
}

func TestLoadKeepsStateOnMalformedSave(t *testing.T) {
	e, _, rec := newTestEngine(t)
	e.st.Chaos = 123

	for _, payload := range []string{"{not json", "[]", "null", `"chaos"`} {
		_, err := e.Load([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedSave, payload)
		assert.Equal(t, 123.0, e.st.Chaos, payload)
	}
	assert.Empty(t, rec.OfType(events.SaveLoaded))
}

func TestSerializeLoadRoundTrip(t *testing.T) {
	src, clk, _ := newTestEngine(t)
	src.st.Chaos = 777
	src.st.Tokens = 5
	src.st.TutorialDone = true
	src.st.Phase = PhaseIdle
	src.st.TotalApocalypses = 2
	src.st.setCount("imp", 3)
	src.st.Mutations["memory"] = true
	src.st.Achievements["first_click"] = AchievementState{Unlocked: true, UnlockedAt: 42}
	src.st.Scenario = "double"

	clk.Advance(time.Minute)
	data, err := src.Serialize()
	require.NoError(t, err)

	dst, _, rec := newTestEngine(t)
	report, err := dst.Load(data)
	require.NoError(t, err)
	assert.Empty(t, report.Dropped)

	got := dst.State()
	assert.Equal(t, 777.0, got.Chaos)
	assert.Equal(t, int64(5), got.Tokens)
	assert.Equal(t, 3, got.Count("imp"))
	assert.True(t, got.Mutations["memory"])
	assert.Equal(t, int64(42), got.Achievements["first_click"].UnlockedAt)
	assert.Equal(t, "double", got.Scenario)
	assert.Equal(t, PhaseIdle, got.Phase)
	assert.Equal(t, src.st.RunID, got.RunID)
	assert.Equal(t, testStart.Add(time.Minute).UnixMilli(), got.LastSavedAt)
	assert.Len(t, rec.OfType(events.SaveLoaded), 1)
}

func TestLoadSettlesInterruptedApocalypse(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Load([]byte(`{"save_version": 3, "tutorial_done": true, "apocalypse_phase": "executing"}`))
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, e.st.Phase)

	_, err = e.Load([]byte(`{"save_version": 3, "apocalypse_phase": "tutorial_confirming"}`))
	require.NoError(t, err)
	assert.Equal(t, PhaseTutorialIdle, e.st.Phase)
}

func TestMigrateIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	s := &State{
		SaveVersion:      1,
		TotalApocalypses: 2,
		LastSavedAt:      5,
		Achievements:     map[string]AchievementState{"first_click": {Unlocked: true}},
	}

	require.True(t, c.Migrate(s))
	assert.Equal(t, CurrentSaveVersion, s.SaveVersion)
	assert.Equal(t, "none", s.Scenario)
	assert.Equal(t, 1.0, s.ComboMultiplier)
	assert.Equal(t, 1.0, s.ClickPower)
	assert.Equal(t, 2.0, s.CritMultiplier)
	assert.Equal(t, 100.0, s.Assets["stock"].Price)
	assert.True(t, s.TutorialDone)
	assert.True(t, s.Milestones[MilestoneFirstApocalypse])
	assert.Equal(t, int64(5), s.Achievements["first_click"].UnlockedAt)
	assert.Contains(t, s.Producers, "imp")

	snapshot := s.Clone()
	assert.False(t, c.Migrate(s))
	assert.Equal(t, snapshot, s)
}

func TestLoadMigratesUnversionedSave(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Load([]byte(`{"chaos": 10, "total_apocalypses": 1}`))
	require.NoError(t, err)
	assert.Equal(t, CurrentSaveVersion, e.st.SaveVersion)
	assert.True(t, e.st.TutorialDone)
	assert.Equal(t, PhaseIdle, e.st.Phase)
}

func TestOfflineGain(t *testing.T) {
	c := testCatalog(t)
	s := NewState(c, testStart)
	s.setCount("imp", 10)
	require.Equal(t, 10.0, c.TotalProductionPerSecond(s))

	assert.InDelta(t, 36000.0, c.OfflineGain(s, (2*time.Hour).Milliseconds()), 1e-6)
	assert.InDelta(t, 72000.0, c.OfflineGain(s, (10*time.Hour).Milliseconds()), 1e-6, "capped at four hours")
	assert.Zero(t, c.OfflineGain(s, 500))
}

func TestApplyOfflineProgress(t *testing.T) {
	e, clk, rec := newTestEngine(t)
	e.st.setCount("imp", 10)

	_, err := e.Serialize()
	require.NoError(t, err)
	clk.Advance(2 * time.Hour)
	assert.Equal(t, 2*time.Hour, e.SinceLastSave())

	gained := e.ApplyOfflineProgress(e.SinceLastSave())
	assert.InDelta(t, 36000.0, gained, 1e-6)
	assert.InDelta(t, 36000.0, e.st.Chaos, 1e-6)
	assert.InDelta(t, 36000.0, e.st.LifetimeChaos, 1e-6)
	assert.Len(t, rec.OfType(events.OfflineProgress), 1)

	assert.Zero(t, e.ApplyOfflineProgress(0))
}
