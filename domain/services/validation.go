package services

import (
	"fmt"

	"tooly/domain"
	"tooly/domain/entities"
)

func invalidRecord(format string, args ...any) error {
	return domain.NewValidationError(domain.CodeInvalidRecord, fmt.Sprintf(format, args...))
}

// ValidateLevel checks the invariants of a level record
func ValidateLevel(rec *entities.LevelRecord) error {
	if rec == nil {
		return invalidRecord("❌ Missing level record")
	}
	if rec.Level < 1 {
		return invalidRecord("❌ Level must be at least 1, got %d", rec.Level)
	}
	if rec.XP < 0 {
		return invalidRecord("❌ XP cannot be negative, got %d", rec.XP)
	}
	return nil
}

// ValidateEconomy checks balances and counters of an economy record
func ValidateEconomy(rec *entities.EconomyRecord) error {
	if rec == nil {
		return invalidRecord("❌ Missing economy record")
	}
	if rec.Wallet < 0 || rec.Bank < 0 {
		return domain.NewValidationError(domain.CodeNegativeBalance, "❌ Balances cannot go below zero!")
	}
	counters := map[string]int64{
		"gambling wins":   rec.GamblingWins,
		"gambling losses": rec.GamblingLosses,
		"total wagered":   rec.TotalWagered,
		"fish caught":     rec.FishCaught,
		"best streak":     rec.BestStreak,
		"current streak":  rec.CurrentStreak,
	}
	for name, value := range counters {
		if value < 0 {
			return invalidRecord("❌ %s cannot be negative, got %d", name, value)
		}
	}
	for name, stack := range rec.FishInventory {
		if stack.Count < 0 || stack.Value < 0 {
			return invalidRecord("❌ Fish stack %s is invalid", name)
		}
	}
	return nil
}

// checkEconomyTransition enforces the rules that only apply between two
// versions of the same record
func checkEconomyTransition(before, after *entities.EconomyRecord) error {
	if after.TotalWagered < before.TotalWagered {
		return domain.NewValidationError(domain.CodeWagerDecreased, "❌ Total wagered can never go down!")
	}
	return nil
}

// ValidateInventory checks item ids and quantities
func ValidateInventory(inv entities.Inventory) error {
	for id, item := range inv {
		if id == "" {
			return invalidRecord("❌ Inventory items need an ID")
		}
		if item.Quantity < 1 {
			return invalidRecord("❌ Inventory item %s must have a quantity of at least 1", id)
		}
	}
	return nil
}

// ValidateShopItem checks that an item can be listed in a shop
func ValidateShopItem(item *entities.ShopItem) error {
	invalid := func(msg string) error {
		return domain.NewValidationError(domain.CodeInvalidShopItem, msg)
	}
	switch {
	case item == nil:
		return invalid("❌ Missing shop item")
	case item.ID == "":
		return invalid("❌ Shop items need an ID!")
	case item.Name == "":
		return invalid("❌ Shop items need a name!")
	case item.Price <= 0:
		return invalid("❌ Price must be greater than zero!")
	case !item.Kind.IsValid():
		return invalid(fmt.Sprintf("❌ Unknown item type **%s**. Use role, badge or consumable.", item.Kind))
	case item.Kind == entities.ShopItemKindRole && item.RoleID == "":
		return invalid("❌ Role items need a role!")
	}
	return nil
}
