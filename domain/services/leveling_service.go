package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tooly/config"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
)

// errXPCooldown aborts a level mutation without writing anything
var errXPCooldown = errors.New("xp cooldown active")

type levelingService struct {
	ledger         interfaces.LedgerService
	engine         *rewards.Engine
	eventPublisher interfaces.EventPublisher
	cfg            *config.Config
	now            func() time.Time
}

// NewLevelingService creates a new leveling service
func NewLevelingService(ledger interfaces.LedgerService, engine *rewards.Engine, eventPublisher interfaces.EventPublisher, cfg *config.Config) interfaces.LevelingService {
	return &levelingService{
		ledger:         ledger,
		engine:         engine,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		now:            time.Now,
	}
}

func (s *levelingService) RecordMessage(ctx context.Context, guildID, userID string) (*entities.MessageXPResult, error) {
	result := &entities.MessageXPResult{}
	rec, err := s.ledger.MutateLevel(ctx, guildID, userID, func(rec *entities.LevelRecord) error {
		now := s.now()
		if rec.LastMessageAt.CooldownRemaining(now, s.cfg.XPCooldown) > 0 {
			return errXPCooldown
		}
		result.Awarded = true
		result.XPGained = s.engine.Int63Range(s.cfg.XPMin, s.cfg.XPMax)
		result.LeveledUp = rec.AddXP(result.XPGained, s.cfg.XPPerLevel)
		rec.LastMessageAt = entities.UnixTimeOf(now)
		return nil
	})
	if errors.Is(err, errXPCooldown) {
		return &entities.MessageXPResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	result.Record = rec

	if !result.LeveledUp {
		return result, nil
	}

	result.CoinReward = rec.Level * s.cfg.LevelUpMultiplier
	var before balanceSnapshot
	econ, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(econ *entities.EconomyRecord) error {
		before = snapshot(econ)
		econ.Wallet += result.CoinReward
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pay level up reward: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":    guildID,
		"userID":     userID,
		"level":      rec.Level,
		"coinReward": result.CoinReward,
	}).Info("User leveled up")

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(econ), events.ReasonLevelUp)
	publish(s.eventPublisher, events.LevelUpEvent{
		GuildID:    guildID,
		UserID:     userID,
		NewLevel:   rec.Level,
		CoinReward: result.CoinReward,
	})
	return result, nil
}
