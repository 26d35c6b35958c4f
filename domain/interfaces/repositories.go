package interfaces

import (
	"context"
	"encoding/json"

	"tooly/domain/entities"
)

// LevelRepository defines the interface for level record access
type LevelRepository interface {
	// GetLevel retrieves a user's level record, nil when it was never written
	GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error)

	// SetLevel replaces a user's level record
	SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error

	// ListLevels returns every level record of a guild keyed by user id
	ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error)
}

// EconomyRepository defines the interface for economy record access
type EconomyRepository interface {
	// GetEconomy retrieves a user's economy record, nil when it was never written
	GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error)

	// SetEconomy replaces a user's economy record
	SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error

	// ListEconomies returns every economy record of a guild keyed by user id
	ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error)
}

// InventoryRepository defines the interface for inventory access
type InventoryRepository interface {
	// GetInventory retrieves a user's inventory, nil when it was never written
	GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error)

	// SetInventory replaces a user's inventory
	SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error

	// AddToInventory atomically adds quantity of an item to a user's inventory
	AddToInventory(ctx context.Context, guildID, userID, itemID string, purchasedAt entities.UnixTime, quantity int64) error
}

// WarningRepository defines the interface for warning list access
type WarningRepository interface {
	// GetWarnings returns a user's warnings, nil when none were ever written
	GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error)

	// AddWarning atomically appends a warning and returns the new count
	AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error)

	// SetWarnings replaces a user's warning list
	SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error

	// ClearWarnings removes every warning of a user
	ClearWarnings(ctx context.Context, guildID, userID string) error
}

// ShopRepository defines the interface for guild shop catalogs
type ShopRepository interface {
	// GetShopItems returns a guild's catalog keyed by item id
	GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error)

	// CreateShopItem inserts an item unless the id is taken. It reports whether the item was created.
	CreateShopItem(ctx context.Context, guildID string, item *entities.ShopItem) (bool, error)

	// PutShopItem inserts or replaces an item
	PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error

	// DeleteShopItem removes an item from the catalog and reports whether it existed
	DeleteShopItem(ctx context.Context, guildID, itemID string) (bool, error)
}

// LeaderboardPointerRepository defines the interface for leaderboard message pointers
type LeaderboardPointerRepository interface {
	// GetLeaderboardPointer returns the guild's pointer, nil when none is stored
	GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error)

	// SetLeaderboardPointer replaces the guild's pointer
	SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error

	// DeleteLeaderboardPointer removes the guild's pointer
	DeleteLeaderboardPointer(ctx context.Context, guildID string) error

	// DeleteLeaderboardPointerIfMatches removes the pointer only if it still references messageID
	DeleteLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error)

	// ListLeaderboardPointers returns every stored pointer keyed by guild id
	ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error)
}

// ReactionRoleRepository defines the interface for reaction role bindings
type ReactionRoleRepository interface {
	GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error)
	SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error
	RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error
}

// SettingsRepository defines the interface for free-form guild settings
type SettingsRepository interface {
	// GetSetting returns a raw JSON value, nil when the key is unset
	GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error)

	// SetSetting stores a raw JSON value
	SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error
}

// LedgerStore is a complete storage backend for the ledger
type LedgerStore interface {
	LevelRepository
	EconomyRepository
	InventoryRepository
	WarningRepository
	ShopRepository
	LeaderboardPointerRepository
	ReactionRoleRepository
	SettingsRepository

	// ListGuilds returns every guild id that owns at least one record
	ListGuilds(ctx context.Context) ([]string, error)

	// ResetGuildEconomy deletes every economy and inventory record of a guild
	ResetGuildEconomy(ctx context.Context, guildID string) error

	// Close flushes pending writes and releases resources
	Close() error
}
