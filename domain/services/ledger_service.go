package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/interfaces"
)

type ledgerService struct {
	store  interfaces.LedgerStore
	locker interfaces.KeyLocker
	now    func() time.Time
}

// NewLedgerService creates the ledger over a storage backend
func NewLedgerService(store interfaces.LedgerStore, locker interfaces.KeyLocker) interfaces.LedgerService {
	return &ledgerService{
		store:  store,
		locker: locker,
		now:    time.Now,
	}
}

// lockAll acquires every key in sorted order and returns a func releasing
// them in reverse order
func (s *ledgerService) lockAll(ctx context.Context, keys ...string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	releaseAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for i, key := range sorted {
		if i > 0 && sorted[i-1] == key {
			continue
		}
		unlock, err := s.locker.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, fmt.Errorf("failed to lock %s: %w", key, err)
		}
		unlocks = append(unlocks, unlock)
	}
	return releaseAll, nil
}

// Levels

func (s *ledgerService) GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error) {
	rec, err := s.store.GetLevel(ctx, guildID, userID)
	if err != nil {
		return nil, domain.NewStorageError("get level", err)
	}
	if rec == nil {
		return entities.NewLevelRecord(), nil
	}
	rec.Normalize()
	return rec, nil
}

func (s *ledgerService) SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error {
	if err := ValidateLevel(record); err != nil {
		return err
	}
	if err := s.store.SetLevel(ctx, guildID, userID, record); err != nil {
		return domain.NewStorageError("set level", err)
	}
	return nil
}

func (s *ledgerService) MutateLevel(ctx context.Context, guildID, userID string, fn func(*entities.LevelRecord) error) (*entities.LevelRecord, error) {
	unlock, err := s.lockAll(ctx, entities.RecordKindLevel.Key(guildID, userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.GetLevel(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	next := *current
	if err := fn(&next); err != nil {
		return nil, err
	}
	if next.Level < current.Level {
		return nil, domain.NewValidationError(domain.CodeLevelDecreased, "❌ Levels can never go down!")
	}
	if err := s.SetLevel(ctx, guildID, userID, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *ledgerService) ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error) {
	levels, err := s.store.ListLevels(ctx, guildID)
	if err != nil {
		return nil, domain.NewStorageError("list levels", err)
	}
	for _, rec := range levels {
		rec.Normalize()
	}
	return levels, nil
}

// Economy

func (s *ledgerService) GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error) {
	rec, err := s.store.GetEconomy(ctx, guildID, userID)
	if err != nil {
		return nil, domain.NewStorageError("get economy", err)
	}
	if rec == nil {
		return entities.NewEconomyRecord(), nil
	}
	rec.Normalize()
	return rec, nil
}

func (s *ledgerService) SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error {
	if err := ValidateEconomy(record); err != nil {
		return err
	}
	if err := s.store.SetEconomy(ctx, guildID, userID, record); err != nil {
		return domain.NewStorageError("set economy", err)
	}
	return nil
}

func (s *ledgerService) MutateEconomy(ctx context.Context, guildID, userID string, fn func(*entities.EconomyRecord) error) (*entities.EconomyRecord, error) {
	records, err := s.MutateEconomies(ctx, guildID, []string{userID}, func(records map[string]*entities.EconomyRecord) error {
		return fn(records[userID])
	})
	if err != nil {
		return nil, err
	}
	return records[userID], nil
}

func (s *ledgerService) MutateEconomies(ctx context.Context, guildID string, userIDs []string, fn func(map[string]*entities.EconomyRecord) error) (map[string]*entities.EconomyRecord, error) {
	keys := make([]string, len(userIDs))
	for i, userID := range userIDs {
		keys[i] = entities.RecordKindEconomy.Key(guildID, userID)
	}
	unlock, err := s.lockAll(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	originals := make(map[string]*entities.EconomyRecord, len(userIDs))
	working := make(map[string]*entities.EconomyRecord, len(userIDs))
	for _, userID := range userIDs {
		if _, seen := originals[userID]; seen {
			continue
		}
		rec, err := s.GetEconomy(ctx, guildID, userID)
		if err != nil {
			return nil, err
		}
		originals[userID] = rec
		working[userID] = rec.Clone()
	}

	if err := fn(working); err != nil {
		return nil, err
	}

	ordered := make([]string, 0, len(originals))
	for userID, original := range originals {
		if err := checkEconomyTransition(original, working[userID]); err != nil {
			return nil, err
		}
		ordered = append(ordered, userID)
	}
	sort.Strings(ordered)

	for i, userID := range ordered {
		if err := s.SetEconomy(ctx, guildID, userID, working[userID]); err != nil {
			s.rollbackEconomies(ctx, guildID, ordered[:i], originals)
			return nil, err
		}
	}
	return working, nil
}

func (s *ledgerService) rollbackEconomies(ctx context.Context, guildID string, userIDs []string, originals map[string]*entities.EconomyRecord) {
	for _, userID := range userIDs {
		if err := s.store.SetEconomy(ctx, guildID, userID, originals[userID]); err != nil {
			log.WithFields(log.Fields{
				"guild_id": guildID,
				"user_id":  userID,
				"error":    err,
			}).Error("Failed to roll back economy record")
		}
	}
}

func (s *ledgerService) ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error) {
	economies, err := s.store.ListEconomies(ctx, guildID)
	if err != nil {
		return nil, domain.NewStorageError("list economies", err)
	}
	for _, rec := range economies {
		rec.Normalize()
	}
	return economies, nil
}

// Inventory

func (s *ledgerService) GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error) {
	inv, err := s.store.GetInventory(ctx, guildID, userID)
	if err != nil {
		return nil, domain.NewStorageError("get inventory", err)
	}
	if inv == nil {
		return entities.NewInventory(), nil
	}
	return inv, nil
}

func (s *ledgerService) SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error {
	if err := ValidateInventory(inventory); err != nil {
		return err
	}
	if err := s.store.SetInventory(ctx, guildID, userID, inventory); err != nil {
		return domain.NewStorageError("set inventory", err)
	}
	return nil
}

func (s *ledgerService) AddToInventory(ctx context.Context, guildID, userID, itemID string, quantity int64) error {
	if quantity < 1 {
		return domain.NewValidationError(domain.CodeInvalidAmount, "❌ Quantity must be at least 1!")
	}
	if err := s.store.AddToInventory(ctx, guildID, userID, itemID, entities.UnixTimeOf(s.now()), quantity); err != nil {
		return domain.NewStorageError("add to inventory", err)
	}
	return nil
}

func (s *ledgerService) MutateInventory(ctx context.Context, guildID, userID string, fn func(entities.Inventory) error) (entities.Inventory, error) {
	unlock, err := s.lockAll(ctx, entities.RecordKindInventory.Key(guildID, userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.GetInventory(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.SetInventory(ctx, guildID, userID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Warnings

func (s *ledgerService) GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error) {
	warnings, err := s.store.GetWarnings(ctx, guildID, userID)
	if err != nil {
		return nil, domain.NewStorageError("get warnings", err)
	}
	if warnings == nil {
		return []entities.Warning{}, nil
	}
	return warnings, nil
}

func (s *ledgerService) SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error {
	if warnings == nil {
		warnings = []entities.Warning{}
	}
	if err := s.store.SetWarnings(ctx, guildID, userID, warnings); err != nil {
		return domain.NewStorageError("set warnings", err)
	}
	return nil
}

func (s *ledgerService) AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error) {
	count, err := s.store.AddWarning(ctx, guildID, userID, warning)
	if err != nil {
		return 0, domain.NewStorageError("add warning", err)
	}
	return count, nil
}

func (s *ledgerService) ClearWarnings(ctx context.Context, guildID, userID string) error {
	if err := s.store.ClearWarnings(ctx, guildID, userID); err != nil {
		return domain.NewStorageError("clear warnings", err)
	}
	return nil
}

// Shop

func (s *ledgerService) GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error) {
	items, err := s.store.GetShopItems(ctx, guildID)
	if err != nil {
		return nil, domain.NewStorageError("get shop items", err)
	}
	if items == nil {
		return map[string]*entities.ShopItem{}, nil
	}
	return items, nil
}

func (s *ledgerService) GetShopItem(ctx context.Context, guildID, itemID string) (*entities.ShopItem, error) {
	items, err := s.GetShopItems(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return items[itemID], nil
}

func (s *ledgerService) AddShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error {
	if err := ValidateShopItem(item); err != nil {
		return err
	}
	created, err := s.store.CreateShopItem(ctx, guildID, item)
	if err != nil {
		return domain.NewStorageError("create shop item", err)
	}
	if !created {
		return domain.NewValidationError(domain.CodeDuplicateShopItem, fmt.Sprintf("❌ An item with ID `%s` already exists!", item.ID))
	}
	return nil
}

func (s *ledgerService) PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error {
	if err := ValidateShopItem(item); err != nil {
		return err
	}
	if err := s.store.PutShopItem(ctx, guildID, item); err != nil {
		return domain.NewStorageError("put shop item", err)
	}
	return nil
}

func (s *ledgerService) RemoveShopItem(ctx context.Context, guildID, itemID string) error {
	existed, err := s.store.DeleteShopItem(ctx, guildID, itemID)
	if err != nil {
		return domain.NewStorageError("delete shop item", err)
	}
	if !existed {
		return domain.NewValidationError(domain.CodeUnknownShopItem, fmt.Sprintf("❌ No item with ID `%s` exists!", itemID))
	}
	return nil
}

// Leaderboard pointers

func (s *ledgerService) GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error) {
	pointer, err := s.store.GetLeaderboardPointer(ctx, guildID)
	if err != nil {
		return nil, domain.NewStorageError("get leaderboard pointer", err)
	}
	return pointer, nil
}

func (s *ledgerService) SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error {
	if !pointer.IsSet() {
		return domain.NewValidationError(domain.CodeInvalidRecord, "❌ A leaderboard needs both a channel and a message!")
	}
	if err := s.store.SetLeaderboardPointer(ctx, guildID, pointer); err != nil {
		return domain.NewStorageError("set leaderboard pointer", err)
	}
	return nil
}

func (s *ledgerService) ClearLeaderboardPointer(ctx context.Context, guildID string) error {
	if err := s.store.DeleteLeaderboardPointer(ctx, guildID); err != nil {
		return domain.NewStorageError("delete leaderboard pointer", err)
	}
	return nil
}

func (s *ledgerService) ClearLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error) {
	deleted, err := s.store.DeleteLeaderboardPointerIfMatches(ctx, guildID, messageID)
	if err != nil {
		return false, domain.NewStorageError("delete leaderboard pointer", err)
	}
	return deleted, nil
}

func (s *ledgerService) ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error) {
	pointers, err := s.store.ListLeaderboardPointers(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list leaderboard pointers", err)
	}
	return pointers, nil
}

// Reaction roles

func (s *ledgerService) GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error) {
	roles, err := s.store.GetReactionRoles(ctx, guildID)
	if err != nil {
		return nil, domain.NewStorageError("get reaction roles", err)
	}
	if roles == nil {
		return entities.ReactionRoles{}, nil
	}
	return roles, nil
}

func (s *ledgerService) SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error {
	if messageID == "" || emoji == "" || roleID == "" {
		return domain.NewValidationError(domain.CodeInvalidRecord, "❌ A reaction role needs a message, an emoji and a role!")
	}
	if err := s.store.SetReactionRole(ctx, guildID, messageID, emoji, roleID); err != nil {
		return domain.NewStorageError("set reaction role", err)
	}
	return nil
}

func (s *ledgerService) RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error {
	if err := s.store.RemoveReactionRole(ctx, guildID, messageID, emoji); err != nil {
		return domain.NewStorageError("remove reaction role", err)
	}
	return nil
}

// Settings

func (s *ledgerService) GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error) {
	value, err := s.store.GetSetting(ctx, guildID, key)
	if err != nil {
		return nil, domain.NewStorageError("get setting", err)
	}
	return value, nil
}

func (s *ledgerService) SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error {
	if key == "" || !json.Valid(value) {
		return domain.NewValidationError(domain.CodeInvalidRecord, "❌ Settings need a key and a valid value!")
	}
	if err := s.store.SetSetting(ctx, guildID, key, value); err != nil {
		return domain.NewStorageError("set setting", err)
	}
	return nil
}

func (s *ledgerService) ListGuilds(ctx context.Context) ([]string, error) {
	guilds, err := s.store.ListGuilds(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list guilds", err)
	}
	return guilds, nil
}

// ResetGuildEconomy wipes the guild while holding the inventory and economy
// locks of every user with an economy record. Inventory keys are taken before
// economy keys, the order Buy nests them in.
func (s *ledgerService) ResetGuildEconomy(ctx context.Context, guildID string) error {
	economies, err := s.store.ListEconomies(ctx, guildID)
	if err != nil {
		return domain.NewStorageError("list economies", err)
	}
	inventoryKeys := make([]string, 0, len(economies))
	economyKeys := make([]string, 0, len(economies))
	for userID := range economies {
		inventoryKeys = append(inventoryKeys, entities.RecordKindInventory.Key(guildID, userID))
		economyKeys = append(economyKeys, entities.RecordKindEconomy.Key(guildID, userID))
	}

	unlockInventories, err := s.lockAll(ctx, inventoryKeys...)
	if err != nil {
		return err
	}
	defer unlockInventories()
	unlockEconomies, err := s.lockAll(ctx, economyKeys...)
	if err != nil {
		return err
	}
	defer unlockEconomies()

	if err := s.store.ResetGuildEconomy(ctx, guildID); err != nil {
		return domain.NewStorageError("reset guild economy", err)
	}
	log.WithField("guild_id", guildID).Warn("Guild economy reset")
	return nil
}

var _ interfaces.LedgerService = (*ledgerService)(nil)
