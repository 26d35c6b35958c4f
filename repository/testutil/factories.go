package testutil

import (
	"tooly/domain/entities"
)

// CreateTestEconomy creates an economy record with the given balances
func CreateTestEconomy(wallet, bank int64) *entities.EconomyRecord {
	rec := entities.NewEconomyRecord()
	rec.Wallet = wallet
	rec.Bank = bank
	return rec
}

// CreateTestEconomyWithStats creates an economy record carrying every field
func CreateTestEconomyWithStats() *entities.EconomyRecord {
	rec := CreateTestEconomy(1500, 250)
	rec.LastDailyAt = 1700000000.25
	rec.LastWorkAt = 1700003600.5
	rec.LastFishAt = 1700000030
	rec.GamblingWins = 4
	rec.GamblingLosses = 6
	rec.TotalWagered = 900
	rec.BiggestWin = 300
	rec.BiggestLoss = 200
	rec.CurrentStreak = 1
	rec.BestStreak = 3
	rec.FishCaught = 5
	rec.FishInventory["Trout"] = entities.FishStack{Count: 2, Value: 60, Emoji: "🐟"}
	rec.FishInventory["Whale"] = entities.FishStack{Count: 1, Value: 1500, Emoji: "🐋"}
	return rec
}

// CreateTestLevel creates a level record
func CreateTestLevel(level, xp int64) *entities.LevelRecord {
	return &entities.LevelRecord{Level: level, XP: xp, LastMessageAt: 1700000000.123}
}

// CreateTestShopItem creates a badge item with the given id and price
func CreateTestShopItem(id string, price int64) *entities.ShopItem {
	return &entities.ShopItem{
		ID:          id,
		Name:        "Test " + id,
		Description: "A test item",
		Emoji:       "🏷️",
		Price:       price,
		Kind:        entities.ShopItemKindBadge,
	}
}
