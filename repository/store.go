package repository

import (
	"context"
	"fmt"

	"tooly/database"
	"tooly/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

var _ interfaces.LedgerStore = (*Store)(nil)

// Store is the PostgreSQL ledger backend. Every collection lives in its own
// table keyed by guild and user.
type Store struct {
	*LevelRepository
	*EconomyRepository
	*InventoryRepository
	*WarningRepository
	*ShopRepository
	*LeaderboardPointerRepository
	*ReactionRoleRepository
	*SettingsRepository

	db *database.DB
}

// NewStore creates a store over an open connection pool
func NewStore(db *database.DB) *Store {
	return &Store{
		LevelRepository:              NewLevelRepository(db),
		EconomyRepository:            NewEconomyRepository(db),
		InventoryRepository:          NewInventoryRepository(db),
		WarningRepository:            NewWarningRepository(db),
		ShopRepository:               NewShopRepository(db),
		LeaderboardPointerRepository: NewLeaderboardPointerRepository(db),
		ReactionRoleRepository:       NewReactionRoleRepository(db),
		SettingsRepository:           NewSettingsRepository(db),
		db:                           db,
	}
}

// ListGuilds returns every guild id that owns a record in any table
func (s *Store) ListGuilds(ctx context.Context) ([]string, error) {
	query := `
		SELECT guild_id FROM levels
		UNION SELECT guild_id FROM economies
		UNION SELECT guild_id FROM inventories
		UNION SELECT guild_id FROM warnings
		UNION SELECT guild_id FROM shop_items
		UNION SELECT guild_id FROM leaderboard_pointers
		UNION SELECT guild_id FROM reaction_roles
		UNION SELECT guild_id FROM guild_settings
		ORDER BY guild_id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	guilds, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect guild ids: %w", err)
	}
	return guilds, nil
}

// ResetGuildEconomy deletes every economy and inventory row of a guild in one transaction
func (s *Store) ResetGuildEconomy(ctx context.Context, guildID string) error {
	var economies, inventories int64
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM economies WHERE guild_id = $1`, guildID)
		if err != nil {
			return fmt.Errorf("failed to delete economies: %w", err)
		}
		economies = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM inventories WHERE guild_id = $1`, guildID)
		if err != nil {
			return fmt.Errorf("failed to delete inventories: %w", err)
		}
		inventories = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset economy for guild %s: %w", guildID, err)
	}

	log.WithFields(log.Fields{
		"guildID":     guildID,
		"economies":   economies,
		"inventories": inventories,
	}).Info("Reset guild economy")
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
