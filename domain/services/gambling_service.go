package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"tooly/config"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
)

type gamblingService struct {
	ledger         interfaces.LedgerService
	engine         *rewards.Engine
	eventPublisher interfaces.EventPublisher
	cfg            *config.Config
}

// NewGamblingService creates a new gambling service
func NewGamblingService(ledger interfaces.LedgerService, engine *rewards.Engine, eventPublisher interfaces.EventPublisher, cfg *config.Config) interfaces.GamblingService {
	return &gamblingService{
		ledger:         ledger,
		engine:         engine,
		eventPublisher: eventPublisher,
		cfg:            cfg,
	}
}

// applyOutcome settles a round on the record. A push only counts towards
// the total wagered.
func applyOutcome(rec *entities.EconomyRecord, outcome *rewards.Result) {
	rec.TotalWagered += outcome.Wager
	switch {
	case outcome.Push:
	case outcome.Won:
		rec.Wallet += outcome.Net
		rec.GamblingWins++
		rec.CurrentStreak++
		if rec.CurrentStreak > rec.BestStreak {
			rec.BestStreak = rec.CurrentStreak
		}
		if outcome.Net > rec.BiggestWin {
			rec.BiggestWin = outcome.Net
		}
	default:
		rec.Wallet -= outcome.Wager
		rec.GamblingLosses++
		rec.CurrentStreak = 0
		if outcome.Wager > rec.BiggestLoss {
			rec.BiggestLoss = outcome.Wager
		}
	}
}

func (s *gamblingService) Gamble(ctx context.Context, guildID, userID, game string, wager int64, choice string) (*entities.GambleResult, error) {
	parsed, err := rewards.ParseGame(game)
	if err != nil {
		return nil, err
	}

	var (
		outcome *rewards.Result
		before  balanceSnapshot
	)
	rec, err := s.ledger.MutateEconomy(ctx, guildID, userID, func(rec *entities.EconomyRecord) error {
		if err := rewards.ValidateWager(wager, rec.Wallet, s.cfg.GambleMin); err != nil {
			return err
		}

		result, err := s.engine.Resolve(parsed, wager, choice)
		if err != nil {
			return err
		}
		outcome = result
		before = snapshot(rec)
		applyOutcome(rec, outcome)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishBalanceChange(s.eventPublisher, guildID, userID, before, snapshot(rec), events.ReasonGamble)
	publish(s.eventPublisher, events.GambleResolvedEvent{
		GuildID: guildID,
		UserID:  userID,
		Game:    string(outcome.Game),
		Wager:   outcome.Wager,
		Net:     outcome.Net,
		Won:     outcome.Won,
	})

	log.WithFields(log.Fields{
		"guildID": guildID,
		"userID":  userID,
		"game":    outcome.Game,
		"wager":   wager,
		"net":     outcome.Net,
	}).Debug("Gamble resolved")

	return &entities.GambleResult{
		Game:       string(outcome.Game),
		Wager:      outcome.Wager,
		Won:        outcome.Won,
		Push:       outcome.Push,
		Multiplier: outcome.Multiplier,
		Net:        outcome.Net,
		Symbols:    outcome.Symbols,
		PlayerRoll: outcome.PlayerRoll,
		HouseRoll:  outcome.HouseRoll,
		Choice:     outcome.Choice,
		Landed:     outcome.Landed,
		NewWallet:  rec.Wallet,
	}, nil
}

