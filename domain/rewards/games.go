package rewards

import (
	"fmt"
	"math"
	"strings"

	"tooly/domain"
)

// Game identifies a gambling game
type Game string

const (
	GameSlots    Game = "slots"
	GameDice     Game = "dice"
	GameCoinflip Game = "coinflip"
	GameRoulette Game = "roulette"
)

// Payouts
const (
	SlotsThreeOfAKind   = 5.0
	SlotsTwoOfAKind     = 1.5
	DiceMinMultiplier   = 1.5
	DiceMaxMultiplier   = 2.5
	CoinflipMultiplier  = 2.0
	RouletteColorPayout = 2.0
	RouletteGreenPayout = 10.0
)

// MaxWagerFraction is the share of the wallet that may be wagered on one round
const MaxWagerFraction = 0.5

// SlotSymbols are the faces of each reel
var SlotSymbols = []string{"🍒", "🍋", "🍊", "🍇", "💎", "7️⃣"}

var slotReel = func() []Outcome[string] {
	reel := make([]Outcome[string], len(SlotSymbols))
	for i, symbol := range SlotSymbols {
		reel[i] = Outcome[string]{Value: symbol, Weight: 1}
	}
	return reel
}()

// Coin sides
const (
	CoinHeads = "heads"
	CoinTails = "tails"
)

// Roulette colors
const (
	RouletteRed   = "red"
	RouletteBlack = "black"
	RouletteGreen = "green"
)

var rouletteWheel = []Outcome[string]{
	{Value: RouletteRed, Weight: 18},
	{Value: RouletteBlack, Weight: 18},
	{Value: RouletteGreen, Weight: 2},
}

// ParseGame converts user input into a Game
func ParseGame(s string) (Game, error) {
	switch g := Game(strings.ToLower(strings.TrimSpace(s))); g {
	case GameSlots, GameDice, GameCoinflip, GameRoulette:
		return g, nil
	default:
		return "", domain.NewValidationError(domain.CodeUnknownGame, fmt.Sprintf("❌ Unknown game **%s**. Pick slots, dice, coinflip or roulette.", s))
	}
}

// Result is the settled outcome of one gambling round
type Result struct {
	Game       Game
	Wager      int64
	Won        bool
	Push       bool
	Multiplier float64

	// Net is the wallet change: the winnings on a win, zero on a push and
	// minus the wager on a loss
	Net int64

	Symbols    []string
	PlayerRoll int
	HouseRoll  int
	Choice     string
	Landed     string
}

func win(r *Result, multiplier float64) {
	r.Won = true
	r.Multiplier = multiplier
	r.Net = int64(math.Floor(float64(r.Wager) * multiplier))
}

func lose(r *Result) {
	r.Won = false
	r.Net = -r.Wager
}

// ValidateWager checks a wager against the minimum bet, the per-round share
// of the wallet and the wallet itself
func ValidateWager(wager, wallet, minimum int64) error {
	if wager <= 0 {
		return domain.NewValidationError(domain.CodeInvalidAmount, "❌ Amount must be positive!")
	}
	if wager < minimum {
		return domain.NewValidationError(domain.CodeWagerBelowMinimum, fmt.Sprintf("❌ The minimum bet is **%d coins**!", minimum))
	}
	maxWager := int64(math.Floor(float64(wallet) * MaxWagerFraction))
	if wager > maxWager {
		return domain.NewValidationError(domain.CodeWagerOverLimit, fmt.Sprintf("❌ You can only gamble up to 50%% of your wallet (**%d coins**)!", maxWager))
	}
	if wager > wallet {
		return domain.NewValidationError(domain.CodeInsufficientFunds, "❌ You don't have enough coins!")
	}
	return nil
}

// Resolve plays one round of game. Choice is the side or color for coinflip
// and roulette; an empty choice is picked at random.
func (e *Engine) Resolve(game Game, wager int64, choice string) (*Result, error) {
	switch game {
	case GameSlots:
		return e.ResolveSlots(wager)
	case GameDice:
		return e.ResolveDice(wager), nil
	case GameCoinflip:
		return e.ResolveCoinflip(wager, choice)
	case GameRoulette:
		return e.ResolveRoulette(wager, choice)
	default:
		return nil, domain.NewValidationError(domain.CodeUnknownGame, fmt.Sprintf("❌ Unknown game **%s**.", game))
	}
}

// ResolveSlots spins three reels
func (e *Engine) ResolveSlots(wager int64) (*Result, error) {
	r := &Result{Game: GameSlots, Wager: wager, Symbols: make([]string, 3)}
	for i := range r.Symbols {
		symbol, err := drawLocked(e, slotReel)
		if err != nil {
			return nil, fmt.Errorf("failed to spin slot reel: %w", err)
		}
		r.Symbols[i] = symbol
	}

	a, b, c := r.Symbols[0], r.Symbols[1], r.Symbols[2]
	switch {
	case a == b && b == c:
		win(r, SlotsThreeOfAKind)
	case a == b || b == c || a == c:
		win(r, SlotsTwoOfAKind)
	default:
		lose(r)
	}
	return r, nil
}

// ResolveDice rolls one die for the player and one for the house. A tie
// returns the wager.
func (e *Engine) ResolveDice(wager int64) *Result {
	r := &Result{Game: GameDice, Wager: wager}
	r.PlayerRoll = e.Intn(6) + 1
	r.HouseRoll = e.Intn(6) + 1

	switch {
	case r.PlayerRoll > r.HouseRoll:
		win(r, e.Float64Range(DiceMinMultiplier, DiceMaxMultiplier))
	case r.PlayerRoll == r.HouseRoll:
		r.Push = true
	default:
		lose(r)
	}
	return r
}

// ResolveCoinflip flips a coin against the chosen side
func (e *Engine) ResolveCoinflip(wager int64, side string) (*Result, error) {
	sides := []string{CoinHeads, CoinTails}
	side = strings.ToLower(strings.TrimSpace(side))
	if side == "" {
		side = sides[e.Intn(2)]
	}
	if side != CoinHeads && side != CoinTails {
		return nil, domain.NewValidationError(domain.CodeInvalidChoice, "❌ Pick **heads** or **tails**!")
	}

	r := &Result{Game: GameCoinflip, Wager: wager, Choice: side, Landed: sides[e.Intn(2)]}
	if r.Landed == r.Choice {
		win(r, CoinflipMultiplier)
	} else {
		lose(r)
	}
	return r, nil
}

// ResolveRoulette spins the wheel. Green pays out regardless of the chosen
// color.
func (e *Engine) ResolveRoulette(wager int64, color string) (*Result, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		color = []string{RouletteRed, RouletteBlack}[e.Intn(2)]
	}
	if color != RouletteRed && color != RouletteBlack && color != RouletteGreen {
		return nil, domain.NewValidationError(domain.CodeInvalidChoice, "❌ Pick **red**, **black** or **green**!")
	}

	landed, err := drawLocked(e, rouletteWheel)
	if err != nil {
		return nil, fmt.Errorf("failed to spin roulette wheel: %w", err)
	}

	r := &Result{Game: GameRoulette, Wager: wager, Choice: color, Landed: landed}
	switch {
	case landed == RouletteGreen:
		win(r, RouletteGreenPayout)
	case landed == color:
		win(r, RouletteColorPayout)
	default:
		lose(r)
	}
	return r, nil
}
