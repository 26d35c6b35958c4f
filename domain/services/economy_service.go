package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tooly/config"
	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
)

// Jobs a user can be given by work
var Jobs = []string{
	"programmer", "chef", "teacher", "doctor", "artist",
	"musician", "writer", "engineer", "designer", "scientist",
}

type economyService struct {
	ledger         interfaces.LedgerService
	engine         *rewards.Engine
	eventPublisher interfaces.EventPublisher
	cfg            *config.Config
	now            func() time.Time
}

// NewEconomyService creates a new economy service
func NewEconomyService(ledger interfaces.LedgerService, engine *rewards.Engine, eventPublisher interfaces.EventPublisher, cfg *config.Config) interfaces.EconomyService {
	return &economyService{
		ledger:         ledger,
		engine:         engine,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		now:            time.Now,
	}
}

func invalidAmount() error {
	return domain.NewValidationError(domain.CodeInvalidAmount, "❌ Amount must be greater than zero.")
}

func insufficientFunds(have, need int64) error {
	return domain.NewValidationError(domain.CodeInsufficientFunds, fmt.Sprintf("❌ You need **%d** more coins! You have: %d coins", need-have, have))
}

func snapshot(rec *entities.EconomyRecord) balanceSnapshot {
	return balanceSnapshot{Wallet: rec.Wallet, Bank: rec.Bank}
}

func toBalance(rec *entities.EconomyRecord) *entities.Balance {
	return &entities.Balance{Wallet: rec.Wallet, Bank: rec.Bank, Total: rec.TotalCoins()}
}

func (s *economyService) Balance(ctx context.Context, guildID, userID string) (*entities.Balance, error) {
	rec, err := s.ledger.GetEconomy(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get economy: %w", err)
	}
	return toBalance(rec), nil
}

func (s *economyService) ClaimDaily(ctx context.Context, guildID, userID string) (*entities.RewardResult, error) {
	var before balanceSnapshot
	var reward int64
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		now := s.now()
		if remaining := rec.LastDailyAt.CooldownRemaining(now, s.cfg.DailyCooldown); remaining > 0 {
			return &domain.CooldownError{Action: "claim your daily", Remaining: remaining}
		}
		before = snapshot(rec)
		reward = s.engine.Int63Range(s.cfg.DailyMin, s.cfg.DailyMax)
		rec.Wallet += reward
		rec.LastDailyAt = entities.UnixTimeOf(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonDaily)
	return &entities.RewardResult{Amount: reward, NewWallet: rec.Wallet}, nil
}

func (s *economyService) Work(ctx context.Context, guildID, userID string) (*entities.RewardResult, error) {
	var before balanceSnapshot
	var reward int64
	var job string
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		now := s.now()
		if remaining := rec.LastWorkAt.CooldownRemaining(now, s.cfg.WorkCooldown); remaining > 0 {
			return &domain.CooldownError{Action: "work", Remaining: remaining}
		}
		before = snapshot(rec)
		job = Jobs[s.engine.Intn(len(Jobs))]
		reward = s.engine.Int63Range(s.cfg.WorkMin, s.cfg.WorkMax)
		rec.Wallet += reward
		rec.LastWorkAt = entities.UnixTimeOf(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonWork)
	return &entities.RewardResult{Amount: reward, Job: job, NewWallet: rec.Wallet}, nil
}

func (s *economyService) Deposit(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error) {
	if amount <= 0 {
		return nil, invalidAmount()
	}
	return s.moveToBank(ctx, guildID, userID, func(rec *entities.EconomyRecord) (int64, error) {
		if rec.Wallet < amount {
			return 0, insufficientFunds(rec.Wallet, amount)
		}
		return amount, nil
	})
}

func (s *economyService) DepositAll(ctx context.Context, guildID, userID string) (*entities.Balance, error) {
	return s.moveToBank(ctx, guildID, userID, func(rec *entities.EconomyRecord) (int64, error) {
		if rec.Wallet <= 0 {
			return 0, domain.NewValidationError(domain.CodeInvalidAmount, "❌ You have no coins to deposit!")
		}
		return rec.Wallet, nil
	})
}

// moveToBank moves the amount chosen by pick from the wallet into the bank
func (s *economyService) moveToBank(ctx context.Context, guildID, userID string, pick func(*entities.EconomyRecord) (int64, error)) (*entities.Balance, error) {
	var before balanceSnapshot
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		amount, err := pick(rec)
		if err != nil {
			return err
		}
		before = snapshot(rec)
		rec.Wallet -= amount
		rec.Bank += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonDeposit)
	return toBalance(rec), nil
}

func (s *economyService) Withdraw(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error) {
	if amount <= 0 {
		return nil, invalidAmount()
	}

	var before balanceSnapshot
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		if rec.Bank < amount {
			return domain.NewValidationError(domain.CodeInsufficientFunds, fmt.Sprintf("❌ You only have **%d coins** in the bank!", rec.Bank))
		}
		before = snapshot(rec)
		rec.Bank -= amount
		rec.Wallet += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonWithdraw)
	return toBalance(rec), nil
}

func (s *economyService) Transfer(ctx context.Context, guildID, fromUserID, toUserID string, amount int64) (*entities.TransferResult, error) {
	if amount <= 0 {
		return nil, invalidAmount()
	}
	if fromUserID == toUserID {
		return nil, domain.NewValidationError(domain.CodeSelfTransfer, "❌ You can't send coins to yourself!")
	}

	var senderBefore, recipientBefore balanceSnapshot
	records, err := s.ledger.MutateEconomies(ctx, guildID, []string{fromUserID, toUserID}, func(records map[string]*entities.EconomyRecord) error {
		sender, recipient := records[fromUserID], records[toUserID]
		if sender.Wallet < amount {
			return insufficientFunds(sender.Wallet, amount)
		}
		senderBefore, recipientBefore = snapshot(sender), snapshot(recipient)
		sender.Wallet -= amount
		recipient.Wallet += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	sender, recipient := records[fromUserID], records[toUserID]
	publishBalanceChange(s.eventPublisher, guildID, fromUserID, senderBefore, snapshot(sender), events.ReasonTransferOut)
	publishBalanceChange(s.eventPublisher, guildID, toUserID, recipientBefore, snapshot(recipient), events.ReasonTransferIn)

	log.WithFields(log.Fields{
		"guildID": guildID,
		"from":    fromUserID,
		"to":      toUserID,
		"amount":  amount,
	}).Info("Coins transferred")

	return &entities.TransferResult{
		Amount:          amount,
		SenderWallet:    sender.Wallet,
		RecipientWallet: recipient.Wallet,
	}, nil
}

func (s *economyService) Give(ctx context.Context, guildID, userID string, amount int64) (*entities.Balance, error) {
	if amount <= 0 {
		return nil, invalidAmount()
	}
	rec, err := s.grant(ctx, guildID, userID, amount)
	if err != nil {
		return nil, err
	}
	return toBalance(rec), nil
}

func (s *economyService) GiveAll(ctx context.Context, guildID string, userIDs []string, amount int64) (int, error) {
	if amount <= 0 {
		return 0, invalidAmount()
	}

	paid := 0
	for _, userID := range userIDs {
		if _, err := s.grant(ctx, guildID, userID, amount); err != nil {
			return paid, fmt.Errorf("failed to pay %s after %d grants: %w", userID, paid, err)
		}
		paid++
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"members": paid,
		"amount":  amount,
	}).Info("Coins given to everyone")
	return paid, nil
}

func (s *economyService) grant(ctx context.Context, guildID, userID string, amount int64) (*entities.EconomyRecord, error) {
	var before balanceSnapshot
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		before = snapshot(rec)
		rec.Wallet += amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonAdminGrant)
	return rec, nil
}

// Buy debits the price and records the item while holding the buyer's
// inventory lock, so a non-consumable can never be bought twice
func (s *economyService) Buy(ctx context.Context, guildID, userID, itemID string) (*entities.PurchaseResult, error) {
	item, err := s.ledger.GetShopItem(ctx, guildID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	if item == nil {
		return nil, domain.NewValidationError(domain.CodeUnknownShopItem, "❌ Invalid item ID! Use `/shop` to see available items.")
	}

	var (
		before  balanceSnapshot
		wallet  *entities.EconomyRecord
		debited bool
	)
	inv, err := s.ledger.MutateInventory(ctx, guildID, userID, func(inv entities.Inventory) error {
		if inv.Has(item.ID) && !item.IsConsumable() {
			return domain.NewValidationError(domain.CodeAlreadyOwned, fmt.Sprintf("❌ You already own **%s**!", item.Name))
		}

		rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
			if !rec.CanAfford(item.Price) {
				return insufficientFunds(rec.Wallet, item.Price)
			}
			before = snapshot(rec)
			rec.Wallet -= item.Price
			return nil
		})
		if err != nil {
			return err
		}
		wallet, debited = rec, true

		inv.Add(item.ID, entities.UnixTimeOf(s.now()), 1)
		return nil
	})
	if err != nil {
		if debited {
			s.refund(ctx, guildID, userID, item.Price)
		}
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(wallet), events.ReasonPurchase)
	publish(s.eventPublisher, events.ItemPurchasedEvent{
		GuildID: guildID,
		UserID:  userID,
		ItemID:  item.ID,
		Price:   item.Price,
		RoleID:  item.RoleID,
	})

	return &entities.PurchaseResult{
		Item:      item,
		NewWallet: wallet.Wallet,
		Quantity:  inv[item.ID].Quantity,
	}, nil
}

// refund returns the price of a purchase whose inventory write failed
func (s *economyService) refund(ctx context.Context, guildID, userID string, amount int64) {
	_, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		rec.Wallet += amount
		return nil
	})
	fields := log.Fields{"guildID": guildID, "userID": userID, "amount": amount}
	if err != nil {
		fields["error"] = err
		log.WithFields(fields).Error("Failed to refund purchase")
		return
	}
	log.WithFields(fields).Warn("Refunded purchase after inventory write failed")
}

func (s *economyService) ResetGuild(ctx context.Context, guildID string) error {
	if err := s.ledger.ResetGuildEconomy(ctx, guildID); err != nil {
		return fmt.Errorf("failed to reset guild economy: %w", err)
	}
	publish(s.eventPublisher, events.GuildEconomyResetEvent{GuildID: guildID})
	return nil
}
