package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tooly/config"
	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
)

type fishingService struct {
	ledger         interfaces.LedgerService
	engine         *rewards.Engine
	eventPublisher interfaces.EventPublisher
	cfg            *config.Config
	now            func() time.Time
}

// NewFishingService creates a new fishing service
func NewFishingService(ledger interfaces.LedgerService, engine *rewards.Engine, eventPublisher interfaces.EventPublisher, cfg *config.Config) interfaces.FishingService {
	return &fishingService{
		ledger:         ledger,
		engine:         engine,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		now:            time.Now,
	}
}

func (s *fishingService) Fish(ctx context.Context, guildID, userID string) (*entities.FishCatch, error) {
	var catch entities.FishCatch
	_, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		now := s.now()
		if remaining := rec.LastFishAt.CooldownRemaining(now, s.cfg.FishCooldown); remaining > 0 {
			return &domain.CooldownError{Action: "fish", Remaining: remaining}
		}

		species, err := s.engine.ResolveFish()
		if err != nil {
			return fmt.Errorf("failed to resolve catch: %w", err)
		}

		// A stack keeps the unit value it was started with
		stack, ok := rec.FishInventory[species.Name]
		if !ok {
			stack = entities.FishStack{Value: species.Value, Emoji: species.Emoji}
		}
		stack.Count++
		rec.FishInventory[species.Name] = stack
		rec.FishCaught++
		rec.LastFishAt = entities.UnixTimeOf(now)

		catch = entities.FishCatch{
			Name:       species.Name,
			Emoji:      species.Emoji,
			Value:      species.Value,
			Rarity:     string(species.Rarity()),
			StackCount: stack.Count,
			FishCaught: rec.FishCaught,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &catch, nil
}

func (s *fishingService) SellFish(ctx context.Context, guildID, userID, name string) (*entities.FishSale, error) {
	name = strings.TrimSpace(name)
	sale := &entities.FishSale{Sold: make(map[string]entities.FishStack)}
	var before balanceSnapshot

	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		if len(rec.FishInventory) == 0 {
			return domain.NewValidationError(domain.CodeNothingToSell, "❌ You don't have any fish to sell! Use `/fish` first.")
		}

		if strings.EqualFold(name, "all") {
			for species, stack := range rec.FishInventory {
				sale.Sold[species] = stack
			}
		} else {
			for species, stack := range rec.FishInventory {
				if strings.EqualFold(species, name) {
					sale.Sold[species] = stack
					break
				}
			}
			if len(sale.Sold) == 0 {
				return domain.NewValidationError(domain.CodeNothingToSell, fmt.Sprintf("❌ You don't have any \"%s\" in your inventory!", name))
			}
		}

		before = snapshot(rec)
		for species, stack := range sale.Sold {
			sale.Count += stack.Count
			sale.Earned += stack.Total()
			delete(rec.FishInventory, species)
		}
		rec.Wallet += sale.Earned
		return nil
	})
	if err != nil {
		return nil, err
	}

	sale.NewWallet = rec.Wallet
	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonFishSale)
	return sale, nil
}
