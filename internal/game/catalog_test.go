package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Len(t, c.Producers, 6)
	assert.NotEmpty(t, c.Upgrades)
	assert.NotEmpty(t, c.Mutations)
	assert.NotEmpty(t, c.Achievements)
	assert.Len(t, c.Assets, 3)
	assert.NotNil(t, c.Scenario(c.Balance.DefaultScenario))
	assert.NotNil(t, c.Achievement(c.Balance.FastCycleAchievement))
	assert.Equal(t, ReqNever, c.Achievement(c.Balance.FastCycleAchievement).Requirement.Kind)

	imp := c.Producer("imp")
	require.NotNil(t, imp)
	assert.Equal(t, 15.0, imp.BaseCost)
	assert.Equal(t, 1.15, imp.CostMultiplier)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Producers)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o644))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.Producers, 2)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCatalogFillsBalanceDefaults(t *testing.T) {
	c := testCatalog(t)

	assert.Equal(t, int64(2000), c.Balance.ComboWindowMs)
	assert.Equal(t, 1000.0, c.Balance.TutorialThreshold)
	assert.Equal(t, "none", c.Balance.DefaultScenario)
	assert.Equal(t, 0.5, c.Balance.ClockPerClick, "explicit values are kept")
}

func TestParseCatalogRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		message string
	}{
		{
			name: "duplicate producer",
			mutate: func(y string) string {
				return strings.Replace(y, "id: golem", "id: imp", 1)
			},
			message: "duplicate",
		},
		{
			name: "upgrade targets unknown producer",
			mutate: func(y string) string {
				return strings.Replace(y, "target: imp, value: 2", "target: dragon, value: 2", 1)
			},
			message: "unknown producer",
		},
		{
			name: "effect reduces click power",
			mutate: func(y string) string {
				return strings.Replace(y, "multiply_click, value: 2", "multiply_click, value: 0.5", 1)
			},
			message: "must not reduce",
		},
		{
			name: "shrinking cost curve",
			mutate: func(y string) string {
				return strings.Replace(y, "cost_multiplier: 2", "cost_multiplier: 0.9", 1)
			},
			message: "invalid cost",
		},
		{
			name: "unknown requirement",
			mutate: func(y string) string {
				return strings.Replace(y, "kind: apocalypses", "kind: vibes", 1)
			},
			message: "unknown requirement",
		},
		{
			name: "missing default scenario",
			mutate: func(y string) string {
				return strings.Replace(y, "id: none", "id: calm", 1)
			},
			message: "default scenario",
		},
		{
			name: "not yaml",
			mutate: func(string) string {
				return "producers: [: :"
			},
			message: "invalid catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.mutate(testCatalogYAML)))
			require.ErrorIs(t, err, ErrInvalidCatalog)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	c := testCatalog(t)

	assert.Equal(t, "Imp", c.Producer("imp").Name)
	assert.Nil(t, c.Producer("dragon"))
	assert.NotNil(t, c.Upgrade("claws"))
	assert.NotNil(t, c.Mutation("memory"))
	assert.NotNil(t, c.Achievement("ender"))
	assert.NotNil(t, c.Asset("stock"))
	assert.NotNil(t, c.Scenario("double"))
	assert.Nil(t, c.Scenario("dragon"))
}
