package entities

// FishStack is a pile of caught fish of one species waiting to be sold
type FishStack struct {
	Count int64  `json:"count"`
	Value int64  `json:"value"`
	Emoji string `json:"emoji,omitempty"`
}

// Total returns the sale value of the whole stack
func (f FishStack) Total() int64 {
	return f.Count * f.Value
}

// EconomyRecord holds a user's balances, cooldowns and gambling statistics in a guild
type EconomyRecord struct {
	Wallet int64 `json:"coins"`
	Bank   int64 `json:"bank"`

	LastDailyAt UnixTime `json:"lastDaily"`
	LastWorkAt  UnixTime `json:"lastWork"`
	LastFishAt  UnixTime `json:"lastFish"`

	GamblingWins   int64 `json:"gamblingWins"`
	GamblingLosses int64 `json:"gamblingLosses"`
	TotalWagered   int64 `json:"totalGambled"`
	BiggestWin     int64 `json:"biggestWin"`
	BiggestLoss    int64 `json:"biggestLoss"`
	CurrentStreak  int64 `json:"currentStreak"`
	BestStreak     int64 `json:"winStreak"`

	FishCaught    int64                `json:"fishCaught"`
	FishInventory map[string]FishStack `json:"fishInventory"`
}

// NewEconomyRecord returns the record a user starts with
func NewEconomyRecord() *EconomyRecord {
	return &EconomyRecord{
		FishInventory: make(map[string]FishStack),
	}
}

// TotalCoins is wallet plus bank. It is always derived, never stored.
func (e *EconomyRecord) TotalCoins() int64 {
	return e.Wallet + e.Bank
}

// CanAfford checks if the wallet covers an amount
func (e *EconomyRecord) CanAfford(amount int64) bool {
	return e.Wallet >= amount
}

// TotalGames returns the number of decided gambling rounds
func (e *EconomyRecord) TotalGames() int64 {
	return e.GamblingWins + e.GamblingLosses
}

// WinRate returns the percentage of decided rounds that were won
func (e *EconomyRecord) WinRate() float64 {
	total := e.TotalGames()
	if total == 0 {
		return 0
	}
	return float64(e.GamblingWins) / float64(total) * 100
}

// FishBagValue returns the sale value of every fish held
func (e *EconomyRecord) FishBagValue() int64 {
	var total int64
	for _, stack := range e.FishInventory {
		total += stack.Total()
	}
	return total
}

// Clone returns a deep copy
func (e *EconomyRecord) Clone() *EconomyRecord {
	c := *e
	c.FishInventory = make(map[string]FishStack, len(e.FishInventory))
	for name, stack := range e.FishInventory {
		c.FishInventory[name] = stack
	}
	return &c
}

// Normalize fills maps that a legacy document may have left out
func (e *EconomyRecord) Normalize() {
	if e.FishInventory == nil {
		e.FishInventory = make(map[string]FishStack)
	}
}
