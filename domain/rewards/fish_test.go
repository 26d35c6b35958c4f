package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFishTable(t *testing.T) {
	assert.Len(t, FishTable, 18)

	names := map[string]bool{}
	for _, f := range FishTable {
		assert.False(t, names[f.Name], "duplicate fish %s", f.Name)
		names[f.Name] = true
		assert.Positive(t, f.Value)
		assert.Positive(t, f.Weight)
	}
}

func TestFishSpecies_Rarity(t *testing.T) {
	tests := []struct {
		value    int64
		expected Rarity
	}{
		{1, RarityCommon},
		{99, RarityCommon},
		{100, RarityUncommon},
		{199, RarityUncommon},
		{200, RarityRare},
		{999, RarityRare},
		{1000, RarityLegendary},
		{5000, RarityLegendary},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FishSpecies{Value: tt.value}.Rarity(), "value %d", tt.value)
	}
}

func TestEngine_ResolveFish(t *testing.T) {
	engine := NewEngineWithSeed(3)
	counts := map[string]int{}
	for i := 0; i < 20000; i++ {
		fish, err := engine.ResolveFish()
		require.NoError(t, err)
		counts[fish.Name]++
	}

	// Common catches dominate legendary ones
	assert.Greater(t, counts["Minnow"], counts["Whale"])
	assert.Greater(t, counts["Minnow"], counts["Golden Fish"])
}
