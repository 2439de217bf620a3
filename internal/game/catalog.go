/*
Package game
File: catalog.go
Description:
    Loads the static balance catalog from YAML and provides lookup helpers.
    The default catalog is embedded in the binary; a server may point
    'catalog_path' at its own file and reload it on SIGHUP.
*/

package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file. An empty path falls back to the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(f)
}

// ParseCatalog unmarshals, fills balance defaults and validates a catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	c.Balance.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyDefaults fills tuning values the YAML left out.
func (b *Balance) applyDefaults() {
	setDefault(&b.BaseClickPower, 1)
	setDefault(&b.CritMultiplier, 2)
	setDefault(&b.ComboWindowMs, 2000)
	setDefault(&b.ComboStep, 0.1)
	setDefault(&b.ComboMax, 5)
	setDefault(&b.EnergyPerClick, 1)
	setDefault(&b.EnergyConversion, 0.01)
	setDefault(&b.ClockPerSecond, 1)
	setDefault(&b.TutorialThreshold, 1000)
	setDefault(&b.ClockBaseThreshold, 600)
	setDefault(&b.ClockThresholdStep, 120)
	setDefault(&b.RewardScale, 1000)
	setDefault(&b.FastCycleMs, 5*60*1000)
	setDefault(&b.CarryoverSeconds, 10)
	setDefault(&b.NoScenarioChance, 0.4)
	setDefault(&b.DefaultScenario, "none")
	setDefault(&b.OfflineMaxMs, 4*60*60*1000)
	setDefault(&b.OfflineMinMs, 1000)
	setDefault(&b.OfflineEfficiency, 0.5)
	setDefault(&b.SellRefund, 0.5)
	setDefault(&b.MaxBulkBuy, 1000)
	setDefault(&b.MaxProducerCount, 100_000)
	setDefault(&b.PriceFloor, 0.1)
	setDefault(&b.PriceCeiling, 3)
	setDefault(&b.PriceHistory, 100)
	setDefault(&b.MinAutoClickMs, 50)
	setDefault(&b.MaxPulsesPerTick, 100)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Validate checks ids, formulas and descriptor kinds.
func (c *Catalog) Validate() error {
	seen := make(map[string]string)
	claim := func(section, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s entry without id", ErrInvalidCatalog, section)
		}
		key := section + "/" + id
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidCatalog, section, id)
		}
		seen[key] = id
		return nil
	}

	for _, p := range c.Producers {
		if err := claim("producer", p.ID); err != nil {
			return err
		}
		if p.BaseCost <= 0 || p.CostMultiplier < 1 || p.BaseProduction < 0 {
			return fmt.Errorf("%w: producer %q has invalid cost or production", ErrInvalidCatalog, p.ID)
		}
		if err := validRequirement(p.Unlock); err != nil {
			return fmt.Errorf("%w: producer %q: %v", ErrInvalidCatalog, p.ID, err)
		}
	}
	for _, u := range c.Upgrades {
		if err := claim("upgrade", u.ID); err != nil {
			return err
		}
		if u.Cost < 0 {
			return fmt.Errorf("%w: upgrade %q has negative cost", ErrInvalidCatalog, u.ID)
		}
		if err := validRequirement(u.Requirement); err != nil {
			return fmt.Errorf("%w: upgrade %q: %v", ErrInvalidCatalog, u.ID, err)
		}
		for _, e := range u.Effects {
			if err := validEffect(e); err != nil {
				return fmt.Errorf("%w: upgrade %q: %v", ErrInvalidCatalog, u.ID, err)
			}
			if e.Kind == EffectMultiplyProducer && c.Producer(e.Target) == nil {
				return fmt.Errorf("%w: upgrade %q targets unknown producer %q", ErrInvalidCatalog, u.ID, e.Target)
			}
		}
	}
	for _, m := range c.Mutations {
		if err := claim("mutation", m.ID); err != nil {
			return err
		}
		if !validMutationKind(m.Kind) || m.Cost < 0 || m.Value <= 0 {
			return fmt.Errorf("%w: mutation %q has invalid kind or value", ErrInvalidCatalog, m.ID)
		}
	}
	for _, a := range c.Achievements {
		if err := claim("achievement", a.ID); err != nil {
			return err
		}
		if err := validRequirement(a.Requirement); err != nil {
			return fmt.Errorf("%w: achievement %q: %v", ErrInvalidCatalog, a.ID, err)
		}
		if !validRewardKind(a.Reward.Kind) {
			return fmt.Errorf("%w: achievement %q has unknown reward %q", ErrInvalidCatalog, a.ID, a.Reward.Kind)
		}
	}
	for _, a := range c.Assets {
		if err := claim("asset", a.ID); err != nil {
			return err
		}
		if a.BasePrice <= 0 || a.Volatility < 0 || a.Volatility >= 1 {
			return fmt.Errorf("%w: asset %q has invalid price or volatility", ErrInvalidCatalog, a.ID)
		}
	}
	for _, sc := range c.Scenarios {
		if err := claim("scenario", sc.ID); err != nil {
			return err
		}
		for _, e := range sc.Effects {
			if e.Kind != ScenarioProduction && e.Kind != ScenarioClick {
				return fmt.Errorf("%w: scenario %q has unknown effect %q", ErrInvalidCatalog, sc.ID, e.Kind)
			}
			if e.Factor <= 0 {
				return fmt.Errorf("%w: scenario %q has non-positive factor", ErrInvalidCatalog, sc.ID)
			}
		}
	}
	if c.Scenario(c.Balance.DefaultScenario) == nil {
		return fmt.Errorf("%w: default scenario %q missing", ErrInvalidCatalog, c.Balance.DefaultScenario)
	}
	if id := c.Balance.FastCycleAchievement; id != "" && c.Achievement(id) == nil {
		return fmt.Errorf("%w: fast cycle achievement %q missing", ErrInvalidCatalog, id)
	}
	return nil
}

// Producer returns the producer type with the given id, or nil.
func (c *Catalog) Producer(id string) *ProducerType {
	for i := range c.Producers {
		if c.Producers[i].ID == id {
			return &c.Producers[i]
		}
	}
	return nil
}

// Upgrade returns the upgrade type with the given id, or nil.
func (c *Catalog) Upgrade(id string) *UpgradeType {
	for i := range c.Upgrades {
		if c.Upgrades[i].ID == id {
			return &c.Upgrades[i]
		}
	}
	return nil
}

// Mutation returns the mutation type with the given id, or nil.
func (c *Catalog) Mutation(id string) *MutationType {
	for i := range c.Mutations {
		if c.Mutations[i].ID == id {
			return &c.Mutations[i]
		}
	}
	return nil
}

// Achievement returns the achievement type with the given id, or nil.
func (c *Catalog) Achievement(id string) *AchievementType {
	for i := range c.Achievements {
		if c.Achievements[i].ID == id {
			return &c.Achievements[i]
		}
	}
	return nil
}

// Asset returns the tradable asset type with the given id, or nil.
func (c *Catalog) Asset(id string) *TradableAssetType {
	for i := range c.Assets {
		if c.Assets[i].ID == id {
			return &c.Assets[i]
		}
	}
	return nil
}

// Scenario returns the scenario with the given id, or nil.
func (c *Catalog) Scenario(id string) *ScenarioModifier {
	for i := range c.Scenarios {
		if c.Scenarios[i].ID == id {
			return &c.Scenarios[i]
		}
	}
	return nil
}
