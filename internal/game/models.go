/*
Package game
File: models.go
Description:
    Defines the static catalog structures of the Chaos Engine economy.
    Every entry maps directly to 'catalog.yaml' and to the JSON served on
    /api/catalog. Upgrade effects and unlock requirements are tagged
    descriptors interpreted by rules.go, so the whole catalog stays plain data.

    No logic is performed here; this file is strictly for type definitions.
*/

package game

// Balance stores global tuning variables loaded from the 'balance' section.
type Balance struct {
	BaseClickPower   float64 `yaml:"base_click_power" json:"base_click_power"`
	CritMultiplier   float64 `yaml:"crit_multiplier" json:"crit_multiplier"`     // Starting crit multiplier (crit chance starts at 0)
	ComboWindowMs    int64   `yaml:"combo_window_ms" json:"combo_window_ms"`     // Max gap between clicks that keeps a combo alive
	ComboStep        float64 `yaml:"combo_step" json:"combo_step"`               // Multiplier gained per chained click
	ComboMax         float64 `yaml:"combo_max" json:"combo_max"`                 // Combo multiplier cap
	EnergyPerClick   float64 `yaml:"energy_per_click" json:"energy_per_click"`   // Energy stored by each manual click
	EnergyConversion float64 `yaml:"energy_conversion" json:"energy_conversion"` // Fraction of energy turned into chaos per second

	ClockPerSecond float64 `yaml:"clock_per_second" json:"clock_per_second"` // Doomsday clock fill per second of run time
	ClockPerClick  float64 `yaml:"clock_per_click" json:"clock_per_click"`   // Doomsday clock fill per manual click

	TutorialThreshold    float64 `yaml:"tutorial_threshold" json:"tutorial_threshold"`         // Chaos needed for the first-ever apocalypse
	ClockBaseThreshold   float64 `yaml:"clock_base_threshold" json:"clock_base_threshold"`     // Clock needed for the second apocalypse
	ClockThresholdStep   float64 `yaml:"clock_threshold_step" json:"clock_threshold_step"`     // Added per completed apocalypse
	RewardScale          float64 `yaml:"reward_scale" json:"reward_scale"`                     // Token reward = sqrt(chaos / scale)
	FastCycleMs          int64   `yaml:"fast_cycle_ms" json:"fast_cycle_ms"`                   // Runs shorter than this unlock the speedrun achievement
	FastCycleAchievement string  `yaml:"fast_cycle_achievement" json:"fast_cycle_achievement"` // Achievement unlocked by a fast cycle
	CarryoverSeconds     float64 `yaml:"carryover_seconds" json:"carryover_seconds"`           // Seconds of carried production granted as lump sum
	FastCycleBonus       float64 `yaml:"fast_cycle_bonus" json:"fast_cycle_bonus"`             // Extra carryover share once the speedrun achievement is owned
	NoScenarioChance     float64 `yaml:"no_scenario_chance" json:"no_scenario_chance"`         // Chance of a calm run after the first apocalypse
	DefaultScenario      string  `yaml:"default_scenario" json:"default_scenario"`

	OfflineMaxMs      int64   `yaml:"offline_max_ms" json:"offline_max_ms"`
	OfflineMinMs      int64   `yaml:"offline_min_ms" json:"offline_min_ms"`
	OfflineEfficiency float64 `yaml:"offline_efficiency" json:"offline_efficiency"`

	SellRefund       float64 `yaml:"sell_refund" json:"sell_refund"`                 // Fraction of the last unit cost returned on sell
	MaxBulkBuy       int     `yaml:"max_bulk_buy" json:"max_bulk_buy"`               // Safety cap on buy-max iteration, not an economic rule
	MaxProducerCount int     `yaml:"max_producer_count" json:"max_producer_count"`   // Highest producer count a save may carry
	PriceFloor       float64 `yaml:"price_floor" json:"price_floor"`                 // Asset price lower bound, as a share of base price
	PriceCeiling     float64 `yaml:"price_ceiling" json:"price_ceiling"`             // Asset price upper bound, as a share of base price
	PriceHistory     int     `yaml:"price_history" json:"price_history"`             // Samples kept per asset
	MinAutoClickMs   int64   `yaml:"min_autoclick_ms" json:"min_autoclick_ms"`       // Fastest auto-click pulse allowed
	MaxPulsesPerTick int     `yaml:"max_pulses_per_tick" json:"max_pulses_per_tick"` // Pulses fired per tick before the backlog is dropped
}

// Requirement is a tagged predicate over the current state.
type Requirement struct {
	Kind      string  `yaml:"kind" json:"kind"`
	Target    string  `yaml:"target,omitempty" json:"target,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Effect is a tagged one-time mutation of economy parameters.
type Effect struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Target string  `yaml:"target,omitempty" json:"target,omitempty"`
	Value  float64 `yaml:"value" json:"value"`
}

// ProducerType is an ownable unit that produces chaos every second.
type ProducerType struct {
	ID             string      `yaml:"id" json:"id"`
	Name           string      `yaml:"name" json:"name"`
	Description    string      `yaml:"description" json:"description"`
	BaseCost       float64     `yaml:"base_cost" json:"base_cost"`
	CostMultiplier float64     `yaml:"cost_multiplier" json:"cost_multiplier"`
	BaseProduction float64     `yaml:"base_production" json:"base_production"` // Chaos/sec per owned unit
	Unlock         Requirement `yaml:"unlock" json:"unlock"`
}

// UpgradeType can be bought once per run.
type UpgradeType struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Cost        float64     `yaml:"cost" json:"cost"`
	Effects     []Effect    `yaml:"effects" json:"effects"`
	Requirement Requirement `yaml:"requirement" json:"requirement"`
}

// MutationType is a permanent token-shop item that survives apocalypses.
type MutationType struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Cost        int64   `yaml:"cost" json:"cost"` // Price in tokens
	Kind        string  `yaml:"kind" json:"kind"`
	Value       float64 `yaml:"value" json:"value"`
}

// Reward is granted once, when an achievement unlocks.
type Reward struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Value float64 `yaml:"value" json:"value"`
}

// AchievementType is a one-time permanent unlock.
type AchievementType struct {
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Category    string      `yaml:"category" json:"category"`
	Requirement Requirement `yaml:"requirement" json:"requirement"`
	Reward      Reward      `yaml:"reward" json:"reward"`
}

// TradableAssetType is a share-based side resource with a random-walk price.
type TradableAssetType struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	BasePrice    float64 `yaml:"base_price" json:"base_price"`
	Volatility   float64 `yaml:"volatility" json:"volatility"`       // Max fractional swing per market tick
	DividendRate float64 `yaml:"dividend_rate" json:"dividend_rate"` // Percent of position value paid per second
}

// ScenarioEffect multiplies production or click power for one run.
// Target is a producer id, or "all".
type ScenarioEffect struct {
	Kind   string  `yaml:"kind" json:"kind"`
	Target string  `yaml:"target" json:"target"`
	Factor float64 `yaml:"factor" json:"factor"`
}

// ScenarioModifier is selected at the start of each run.
type ScenarioModifier struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Effects     []ScenarioEffect `yaml:"effects" json:"effects"`
}

// Catalog is the root configuration struct, mapping to the entire 'catalog.yaml' file.
type Catalog struct {
	Balance      Balance             `yaml:"balance" json:"balance"`
	Producers    []ProducerType      `yaml:"producers" json:"producers"`
	Upgrades     []UpgradeType       `yaml:"upgrades" json:"upgrades"`
	Mutations    []MutationType      `yaml:"mutations" json:"mutations"`
	Achievements []AchievementType   `yaml:"achievements" json:"achievements"`
	Assets       []TradableAssetType `yaml:"assets" json:"assets"`
	Scenarios    []ScenarioModifier  `yaml:"scenarios" json:"scenarios"`
}
