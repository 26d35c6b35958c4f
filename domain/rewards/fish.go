package rewards

// Rarity groups fish by sale value
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
)

// FishSpecies is one entry of the catch table
type FishSpecies struct {
	Name   string
	Emoji  string
	Value  int64
	Weight float64
}

// Rarity derives the tier from the sale value
func (f FishSpecies) Rarity() Rarity {
	switch {
	case f.Value >= 1000:
		return RarityLegendary
	case f.Value >= 200:
		return RarityRare
	case f.Value >= 100:
		return RarityUncommon
	default:
		return RarityCommon
	}
}

// FishTable lists every catchable species. Weights are relative.
var FishTable = []FishSpecies{
	{Name: "Old Boot", Emoji: "👢", Value: 1, Weight: 80},
	{Name: "Seaweed", Emoji: "🌿", Value: 5, Weight: 70},
	{Name: "Minnow", Emoji: "🐟", Value: 15, Weight: 120},
	{Name: "Sardine", Emoji: "🐟", Value: 25, Weight: 110},
	{Name: "Perch", Emoji: "🐠", Value: 40, Weight: 90},
	{Name: "Trout", Emoji: "🐟", Value: 60, Weight: 75},
	{Name: "Bass", Emoji: "🐟", Value: 80, Weight: 60},
	{Name: "Salmon", Emoji: "🍣", Value: 100, Weight: 45},
	{Name: "Pufferfish", Emoji: "🐡", Value: 120, Weight: 35},
	{Name: "Tropical Fish", Emoji: "🐠", Value: 150, Weight: 30},
	{Name: "Crab", Emoji: "🦀", Value: 180, Weight: 25},
	{Name: "Lobster", Emoji: "🦞", Value: 250, Weight: 18},
	{Name: "Squid", Emoji: "🦑", Value: 300, Weight: 14},
	{Name: "Octopus", Emoji: "🐙", Value: 400, Weight: 10},
	{Name: "Shark", Emoji: "🦈", Value: 800, Weight: 6},
	{Name: "Whale", Emoji: "🐋", Value: 1500, Weight: 3},
	{Name: "Treasure Chest", Emoji: "💰", Value: 2500, Weight: 1.5},
	{Name: "Golden Fish", Emoji: "✨", Value: 5000, Weight: 0.5},
}

var fishOutcomes = func() []Outcome[FishSpecies] {
	outcomes := make([]Outcome[FishSpecies], len(FishTable))
	for i, f := range FishTable {
		outcomes[i] = Outcome[FishSpecies]{Value: f, Weight: f.Weight}
	}
	return outcomes
}()

// ResolveFish draws one catch from the fish table
func (e *Engine) ResolveFish() (FishSpecies, error) {
	return drawLocked(e, fishOutcomes)
}
