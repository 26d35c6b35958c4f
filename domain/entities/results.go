package entities

// Balance is a snapshot of a user's coins
type Balance struct {
	Wallet int64
	Bank   int64
	Total  int64
}

// RewardResult is returned by timed rewards such as daily and work
type RewardResult struct {
	Amount    int64
	Job       string // only set for work
	NewWallet int64
}

// TransferResult describes a coin transfer between two users
type TransferResult struct {
	Amount          int64
	SenderWallet    int64
	RecipientWallet int64
}

// PurchaseResult describes a completed shop purchase
type PurchaseResult struct {
	Item      *ShopItem
	NewWallet int64
	Quantity  int64
}

// FishCatch describes one successful cast
type FishCatch struct {
	Name       string
	Emoji      string
	Value      int64
	Rarity     string
	StackCount int64
	FishCaught int64
}

// FishSale describes sold fish
type FishSale struct {
	Sold      map[string]FishStack
	Count     int64
	Earned    int64
	NewWallet int64
}

// GambleResult is a settled round of gambling together with the wallet after it
type GambleResult struct {
	Game       string
	Wager      int64
	Won        bool
	Push       bool
	Multiplier float64
	Net        int64
	Symbols    []string
	PlayerRoll int
	HouseRoll  int
	Choice     string
	Landed     string
	NewWallet  int64
}

// MessageXPResult is the effect of one chat message on a user's progression
type MessageXPResult struct {
	Awarded    bool
	XPGained   int64
	LeveledUp  bool
	Record     *LevelRecord
	CoinReward int64
}

// WarnResult describes an issued warning
type WarnResult struct {
	Count             int
	ThresholdExceeded bool
}

// RankedLevel is one row of the level leaderboard
type RankedLevel struct {
	Position int
	UserID   string
	Record   *LevelRecord
}

// RankedWealth is one row of the wealth leaderboard
type RankedWealth struct {
	Position int
	UserID   string
	Wallet   int64
	Bank     int64
	Total    int64
}

// RankInfo locates a user on the level leaderboard. Position is 1-based
// and only meaningful when Ranked is true.
type RankInfo struct {
	Position int
	Total    int
	Ranked   bool
	Record   *LevelRecord
}

// GuildTotals aggregates a guild's ledger
type GuildTotals struct {
	Users      int
	TotalCoins int64
	TotalXP    int64
	FishCaught int64
}
