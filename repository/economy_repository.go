package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"

	"github.com/jackc/pgx/v5"
)

// EconomyRepository stores economy records in the economies table
type EconomyRepository struct {
	q Queryable
}

// NewEconomyRepository creates a new economy repository
func NewEconomyRepository(db *database.DB) *EconomyRepository {
	return &EconomyRepository{q: db.Pool}
}

const economyColumns = `
	wallet, bank, last_daily_at, last_work_at, last_fish_at,
	gambling_wins, gambling_losses, total_wagered, biggest_win, biggest_loss,
	current_streak, best_streak, fish_caught, fish_inventory`

func scanEconomy(row pgx.Row, prefix ...any) (*entities.EconomyRecord, error) {
	rec := entities.NewEconomyRecord()
	var lastDaily, lastWork, lastFish float64
	var fishJSON []byte

	dest := append(prefix,
		&rec.Wallet, &rec.Bank, &lastDaily, &lastWork, &lastFish,
		&rec.GamblingWins, &rec.GamblingLosses, &rec.TotalWagered, &rec.BiggestWin, &rec.BiggestLoss,
		&rec.CurrentStreak, &rec.BestStreak, &rec.FishCaught, &fishJSON,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rec.LastDailyAt = entities.UnixTime(lastDaily)
	rec.LastWorkAt = entities.UnixTime(lastWork)
	rec.LastFishAt = entities.UnixTime(lastFish)
	if len(fishJSON) > 0 {
		if err := json.Unmarshal(fishJSON, &rec.FishInventory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fish inventory: %w", err)
		}
	}
	rec.Normalize()
	return rec, nil
}

// GetEconomy retrieves a user's economy record, nil when no row exists
func (r *EconomyRepository) GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error) {
	query := `SELECT ` + economyColumns + `
		FROM economies
		WHERE guild_id = $1 AND user_id = $2`

	rec, err := scanEconomy(r.q.QueryRow(ctx, query, guildID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get economy for user %s in guild %s: %w", userID, guildID, err)
	}
	return rec, nil
}

// SetEconomy upserts a user's economy record
func (r *EconomyRepository) SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error {
	fishInventory := record.FishInventory
	if fishInventory == nil {
		fishInventory = map[string]entities.FishStack{}
	}
	fishJSON, err := json.Marshal(fishInventory)
	if err != nil {
		return fmt.Errorf("failed to marshal fish inventory: %w", err)
	}

	query := `
		INSERT INTO economies (guild_id, user_id,` + economyColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			wallet = EXCLUDED.wallet,
			bank = EXCLUDED.bank,
			last_daily_at = EXCLUDED.last_daily_at,
			last_work_at = EXCLUDED.last_work_at,
			last_fish_at = EXCLUDED.last_fish_at,
			gambling_wins = EXCLUDED.gambling_wins,
			gambling_losses = EXCLUDED.gambling_losses,
			total_wagered = EXCLUDED.total_wagered,
			biggest_win = EXCLUDED.biggest_win,
			biggest_loss = EXCLUDED.biggest_loss,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			fish_caught = EXCLUDED.fish_caught,
			fish_inventory = EXCLUDED.fish_inventory,
			updated_at = NOW()
	`

	_, err = r.q.Exec(ctx, query,
		guildID, userID,
		record.Wallet, record.Bank,
		float64(record.LastDailyAt), float64(record.LastWorkAt), float64(record.LastFishAt),
		record.GamblingWins, record.GamblingLosses, record.TotalWagered, record.BiggestWin, record.BiggestLoss,
		record.CurrentStreak, record.BestStreak, record.FishCaught, fishJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to set economy for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// ListEconomies returns every economy record of a guild
func (r *EconomyRepository) ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error) {
	query := `SELECT user_id,` + economyColumns + `
		FROM economies
		WHERE guild_id = $1`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list economies for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	out := make(map[string]*entities.EconomyRecord)
	for rows.Next() {
		var userID string
		rec, err := scanEconomy(rows, &userID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan economy row: %w", err)
		}
		out[userID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate economy rows: %w", err)
	}
	return out, nil
}
