package testhelpers

import (
	"context"
	"encoding/json"

	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockLedgerStore is a mock implementation of LedgerStore
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LevelRecord), args.Error(1)
}

func (m *MockLedgerStore) SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error {
	args := m.Called(ctx, guildID, userID, record)
	return args.Error(0)
}

func (m *MockLedgerStore) ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.LevelRecord), args.Error(1)
}

func (m *MockLedgerStore) GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.EconomyRecord), args.Error(1)
}

func (m *MockLedgerStore) SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error {
	args := m.Called(ctx, guildID, userID, record)
	return args.Error(0)
}

func (m *MockLedgerStore) ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.EconomyRecord), args.Error(1)
}

func (m *MockLedgerStore) GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.Inventory), args.Error(1)
}

func (m *MockLedgerStore) SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error {
	args := m.Called(ctx, guildID, userID, inventory)
	return args.Error(0)
}

func (m *MockLedgerStore) AddToInventory(ctx context.Context, guildID, userID, itemID string, purchasedAt entities.UnixTime, quantity int64) error {
	args := m.Called(ctx, guildID, userID, itemID, purchasedAt, quantity)
	return args.Error(0)
}

func (m *MockLedgerStore) GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Warning), args.Error(1)
}

func (m *MockLedgerStore) AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error) {
	args := m.Called(ctx, guildID, userID, warning)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerStore) SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error {
	args := m.Called(ctx, guildID, userID, warnings)
	return args.Error(0)
}

func (m *MockLedgerStore) ClearWarnings(ctx context.Context, guildID, userID string) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

func (m *MockLedgerStore) GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.ShopItem), args.Error(1)
}

func (m *MockLedgerStore) CreateShopItem(ctx context.Context, guildID string, item *entities.ShopItem) (bool, error) {
	args := m.Called(ctx, guildID, item)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerStore) PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error {
	args := m.Called(ctx, guildID, item)
	return args.Error(0)
}

func (m *MockLedgerStore) DeleteShopItem(ctx context.Context, guildID, itemID string) (bool, error) {
	args := m.Called(ctx, guildID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerStore) GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LeaderboardPointer), args.Error(1)
}

func (m *MockLedgerStore) SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error {
	args := m.Called(ctx, guildID, pointer)
	return args.Error(0)
}

func (m *MockLedgerStore) DeleteLeaderboardPointer(ctx context.Context, guildID string) error {
	args := m.Called(ctx, guildID)
	return args.Error(0)
}

func (m *MockLedgerStore) DeleteLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error) {
	args := m.Called(ctx, guildID, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerStore) ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.LeaderboardPointer), args.Error(1)
}

func (m *MockLedgerStore) GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.ReactionRoles), args.Error(1)
}

func (m *MockLedgerStore) SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error {
	args := m.Called(ctx, guildID, messageID, emoji, roleID)
	return args.Error(0)
}

func (m *MockLedgerStore) RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error {
	args := m.Called(ctx, guildID, messageID, emoji)
	return args.Error(0)
}

func (m *MockLedgerStore) GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error) {
	args := m.Called(ctx, guildID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockLedgerStore) SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error {
	args := m.Called(ctx, guildID, key, value)
	return args.Error(0)
}

func (m *MockLedgerStore) ListGuilds(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerStore) ResetGuildEconomy(ctx context.Context, guildID string) error {
	args := m.Called(ctx, guildID)
	return args.Error(0)
}

func (m *MockLedgerStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockMessageChecker is a mock implementation of MessageChecker
type MockMessageChecker struct {
	mock.Mock
}

func (m *MockMessageChecker) MessageExists(ctx context.Context, channelID, messageID string) (bool, error) {
	args := m.Called(ctx, channelID, messageID)
	return args.Bool(0), args.Error(1)
}

// MockKeyLocker is a mock implementation of KeyLocker
type MockKeyLocker struct {
	mock.Mock
}

func (m *MockKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

var (
	_ interfaces.LedgerStore    = (*MockLedgerStore)(nil)
	_ interfaces.EventPublisher = (*MockEventPublisher)(nil)
	_ interfaces.MessageChecker = (*MockMessageChecker)(nil)
	_ interfaces.KeyLocker      = (*MockKeyLocker)(nil)
)
