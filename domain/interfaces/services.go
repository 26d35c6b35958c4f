package interfaces

import (
	"context"
	"encoding/json"

	"tooly/domain/entities"
	"tooly/domain/events"
)

// KeyLocker serializes read-modify-write sequences on one record key
type KeyLocker interface {
	// Lock blocks until the key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// MessageChecker confirms whether a platform message still exists
type MessageChecker interface {
	// MessageExists returns false only when the platform confirmed the message is gone.
	// Transient failures are returned as errors.
	MessageExists(ctx context.Context, channelID, messageID string) (bool, error)
}

// LedgerService is the only path through which per-user state is read or written
type LedgerService interface {
	// GetLevel returns a user's level record, or the default when none exists
	GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error)
	// SetLevel validates and replaces a user's level record
	SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error
	// MutateLevel applies fn to a user's level record under the record's lock
	MutateLevel(ctx context.Context, guildID, userID string, fn func(*entities.LevelRecord) error) (*entities.LevelRecord, error)
	ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error)

	// GetEconomy returns a user's economy record, or the default when none exists
	GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error)
	// SetEconomy validates and replaces a user's economy record
	SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error
	// MutateEconomy applies fn to a user's economy record under the record's lock
	MutateEconomy(ctx context.Context, guildID, userID string, fn func(*entities.EconomyRecord) error) (*entities.EconomyRecord, error)
	// MutateEconomies locks several users in a fixed order and applies fn to all of their records.
	// Records are written in user id order; a failed write rolls back the ones already written.
	MutateEconomies(ctx context.Context, guildID string, userIDs []string, fn func(map[string]*entities.EconomyRecord) error) (map[string]*entities.EconomyRecord, error)
	ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error)

	GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error)
	SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error
	AddToInventory(ctx context.Context, guildID, userID, itemID string, quantity int64) error
	// MutateInventory applies fn to a user's inventory under the inventory's lock
	MutateInventory(ctx context.Context, guildID, userID string, fn func(entities.Inventory) error) (entities.Inventory, error)

	GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error)
	SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error
	AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error)
	ClearWarnings(ctx context.Context, guildID, userID string) error

	GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error)
	GetShopItem(ctx context.Context, guildID, itemID string) (*entities.ShopItem, error)
	AddShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error
	PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error
	RemoveShopItem(ctx context.Context, guildID, itemID string) error

	GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error)
	SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error
	ClearLeaderboardPointer(ctx context.Context, guildID string) error
	// ClearLeaderboardPointerIfMatches clears the pointer only if it still references messageID
	ClearLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error)
	ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error)

	GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error)
	SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error
	// RemoveReactionRole removes one binding, or every binding of the message when emoji is empty
	RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error

	GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error

	ListGuilds(ctx context.Context) ([]string, error)

	// ResetGuildEconomy wipes every economy and inventory record of a guild
	ResetGuildEconomy(ctx context.Context, guildID string) error
}

// RankingService derives leaderboards and totals from ledger state
type RankingService interface {
	// Rank locates a user on the level leaderboard
	Rank(ctx context.Context, guildID, userID string) (*entities.RankInfo, error)
	// TopN returns the n best users by level then xp
	TopN(ctx context.Context, guildID string, n int) ([]entities.RankedLevel, error)
	// RichestN returns the n users with the most coins
	RichestN(ctx context.Context, guildID string, n int) ([]entities.RankedWealth, error)
	// GuildTotals aggregates coins, xp and fish of a guild
	GuildTotals(ctx context.Context, guildID string) (*entities.GuildTotals, error)
}

// EconomyService defines the interface for coin earning and spending
type EconomyService interface {
	Balance(ctx context.Context, guildID, userID string) (*entities.Balance, error)
	ClaimDaily(ctx context.Context, guildID, userID string) (*entities.RewardResult, error)
	Work(ctx context.Context, guildID, userID string) (*entities.RewardResult, error)
	Deposit(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error)
	// DepositAll moves the whole wallet into the bank
	DepositAll(ctx context.Context, guildID, userID string) (*entities.Balance, error)
	Withdraw(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error)
	Transfer(ctx context.Context, guildID, fromUserID, toUserID string, amount int64) (*entities.TransferResult, error)
	// Give grants coins to a user as an administrator
	Give(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error)
	// GiveAll grants coins to every listed member and returns how many were paid
	GiveAll(ctx context.Context, guildID string, userIDs []string, amount int64) (int, error)
	Buy(ctx context.Context, guildID, userID, itemID string) (*entities.PurchaseResult, error)
	ResetGuild(ctx context.Context, guildID string) error
}

// FishingService defines the interface for fishing
type FishingService interface {
	Fish(ctx context.Context, guildID, userID string) (*entities.FishCatch, error)
	// SellFish sells one species by name, or every fish held when name is "all"
	SellFish(ctx context.Context, guildID, userID, name string) (*entities.FishSale, error)
}

// GamblingService defines the interface for wagering coins on games of chance
type GamblingService interface {
	// Gamble validates the wager, plays one round and settles it
	Gamble(ctx context.Context, guildID, userID, game string, wager int64, choice string) (*entities.GambleResult, error)
}

// LevelingService defines the interface for chat progression
type LevelingService interface {
	// RecordMessage awards experience for a chat message, subject to a cooldown
	RecordMessage(ctx context.Context, guildID, userID string) (*entities.MessageXPResult, error)
}

// ModerationService defines the interface for warnings
type ModerationService interface {
	Warn(ctx context.Context, guildID, userID, issuedBy, reason string) (*entities.WarnResult, error)
	Warnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error)
	ClearWarnings(ctx context.Context, guildID, userID string) error
}
