package services

import (
	"context"
	"fmt"
	"sort"

	"tooly/domain/entities"
	"tooly/domain/interfaces"
)

type rankingService struct {
	ledger interfaces.LedgerService
}

// NewRankingService creates a new ranking service
func NewRankingService(ledger interfaces.LedgerService) interfaces.RankingService {
	return &rankingService{ledger: ledger}
}

// rankLevels orders by level, then xp, then user id so that ties are stable
// no matter in which order records were stored
func rankLevels(levels map[string]*entities.LevelRecord) []entities.RankedLevel {
	ranked := make([]entities.RankedLevel, 0, len(levels))
	for userID, rec := range levels {
		ranked = append(ranked, entities.RankedLevel{UserID: userID, Record: rec})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i].Record, ranked[j].Record
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		if a.XP != b.XP {
			return a.XP > b.XP
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

func (s *rankingService) Rank(ctx context.Context, guildID, userID string) (*entities.RankInfo, error) {
	levels, err := s.ledger.ListLevels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}

	ranked := rankLevels(levels)
	for _, entry := range ranked {
		if entry.UserID == userID {
			return &entities.RankInfo{
				Position: entry.Position,
				Total:    len(ranked),
				Ranked:   true,
				Record:   entry.Record,
			}, nil
		}
	}

	// Unranked users see the starting record; reading must not create one
	return &entities.RankInfo{Total: len(ranked), Record: entities.NewLevelRecord()}, nil
}

func (s *rankingService) TopN(ctx context.Context, guildID string, n int) ([]entities.RankedLevel, error) {
	levels, err := s.ledger.ListLevels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	ranked := rankLevels(levels)
	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

func (s *rankingService) RichestN(ctx context.Context, guildID string, n int) ([]entities.RankedWealth, error) {
	economies, err := s.ledger.ListEconomies(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list economies: %w", err)
	}

	ranked := make([]entities.RankedWealth, 0, len(economies))
	for userID, rec := range economies {
		ranked = append(ranked, entities.RankedWealth{
			UserID: userID,
			Wallet: rec.Wallet,
			Bank:   rec.Bank,
			Total:  rec.TotalCoins(),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}

	if n < 0 {
		n = 0
	}
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

func (s *rankingService) GuildTotals(ctx context.Context, guildID string) (*entities.GuildTotals, error) {
	economies, err := s.ledger.ListEconomies(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list economies: %w", err)
	}
	levels, err := s.ledger.ListLevels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}

	users := make(map[string]struct{}, len(economies))
	totals := &entities.GuildTotals{}
	for userID, rec := range economies {
		users[userID] = struct{}{}
		totals.TotalCoins += rec.TotalCoins()
		totals.FishCaught += rec.FishCaught
	}
	for userID, rec := range levels {
		users[userID] = struct{}{}
		totals.TotalXP += rec.XP
	}
	totals.Users = len(users)
	return totals, nil
}
