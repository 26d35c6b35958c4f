//go:build odds
// +build odds

// Standalone payout analysis for the gambling games and the fish table.
// It drives the same reward engine the services use.
package main

import (
	"flag"
	"fmt"
	"math"
	"sort"

	"tooly/domain/rewards"
)

func main() {
	var (
		rounds = flag.Int("rounds", 100000, "Rounds to simulate per game")
		wager  = flag.Int64("wager", 100, "Wager per round")
		seed   = flag.Int64("seed", 0, "Fixed seed, 0 for a random one")
	)
	flag.Parse()

	engine, err := newEngine(*seed)
	if err != nil {
		fmt.Println("Failed to create engine:", err)
		return
	}

	fmt.Println("=== Game Payout Analysis ===")
	fmt.Println()
	games := []struct {
		game   rewards.Game
		choice string
	}{
		{rewards.GameSlots, ""},
		{rewards.GameDice, ""},
		{rewards.GameCoinflip, "heads"},
		{rewards.GameRoulette, "red"},
		{rewards.GameRoulette, "green"},
	}
	for _, g := range games {
		analyzeGame(engine, g.game, g.choice, *wager, *rounds)
	}

	fmt.Println()
	fmt.Println("=== Fish Table Analysis ===")
	analyzeFish(engine, *rounds)
}

func newEngine(seed int64) (*rewards.Engine, error) {
	if seed != 0 {
		return rewards.NewEngineWithSeed(seed), nil
	}
	return rewards.NewEngine()
}

// analyzeGame simulates rounds of one game and prints how much of each
// wagered coin comes back to the player
func analyzeGame(engine *rewards.Engine, game rewards.Game, choice string, wager int64, rounds int) {
	var wins, pushes, losses int
	var net int64
	for i := 0; i < rounds; i++ {
		result, err := engine.Resolve(game, wager, choice)
		if err != nil {
			fmt.Printf("%s: %v\n", game, err)
			return
		}
		net += result.Net
		switch {
		case result.Push:
			pushes++
		case result.Won:
			wins++
		default:
			losses++
		}
	}

	wagered := float64(wager) * float64(rounds)
	returned := (wagered + float64(net)) / wagered
	label := string(game)
	if choice != "" {
		label += " (" + choice + ")"
	}
	fmt.Printf("%-18s | Wins: %6.2f%% | Pushes: %5.2f%% | Losses: %6.2f%% | Return per coin: %.4f | Edge: %+.2f%%\n",
		label,
		percent(wins, rounds),
		percent(pushes, rounds),
		percent(losses, rounds),
		returned,
		(1-returned)*100)
}

// analyzeFish compares observed catch rates to the table weights
func analyzeFish(engine *rewards.Engine, casts int) {
	counts := make(map[string]int)
	var value int64
	for i := 0; i < casts; i++ {
		fish, err := engine.ResolveFish()
		if err != nil {
			fmt.Println("Failed to draw fish:", err)
			return
		}
		counts[fish.Name]++
		value += fish.Value
	}

	var totalWeight float64
	for _, f := range rewards.FishTable {
		totalWeight += f.Weight
	}

	table := append([]rewards.FishSpecies{}, rewards.FishTable...)
	sort.Slice(table, func(i, j int) bool { return table[i].Weight > table[j].Weight })

	var chiSquared float64
	for _, f := range table {
		expected := f.Weight / totalWeight * float64(casts)
		chiSquared += math.Pow(float64(counts[f.Name])-expected, 2) / expected
		fmt.Printf("  %s %-15s %-9s expected %6.2f%% | actual %6.2f%%\n",
			f.Emoji, f.Name, f.Rarity(), f.Weight/totalWeight*100, percent(counts[f.Name], casts))
	}
	fmt.Printf("\nAverage catch value: %.2f coins | χ²: %.2f (%d degrees of freedom)\n",
		float64(value)/float64(casts), chiSquared, len(table)-1)
}

func percent(n, total int) float64 {
	return float64(n) / float64(total) * 100
}
