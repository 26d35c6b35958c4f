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

// InventoryRepository stores inventories as one JSONB document per user
type InventoryRepository struct {
	q Queryable
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *database.DB) *InventoryRepository {
	return &InventoryRepository{q: db.Pool}
}

// GetInventory retrieves a user's inventory, nil when no row exists
func (r *InventoryRepository) GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error) {
	query := `
		SELECT items
		FROM inventories
		WHERE guild_id = $1 AND user_id = $2
	`

	var itemsJSON []byte
	err := r.q.QueryRow(ctx, query, guildID, userID).Scan(&itemsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory for user %s in guild %s: %w", userID, guildID, err)
	}

	inv := entities.NewInventory()
	if err := json.Unmarshal(itemsJSON, &inv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
	}
	if inv == nil {
		inv = entities.NewInventory()
	}
	return inv, nil
}

// SetInventory upserts a user's whole inventory
func (r *InventoryRepository) SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error {
	if inventory == nil {
		inventory = entities.NewInventory()
	}
	itemsJSON, err := json.Marshal(inventory)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}

	query := `
		INSERT INTO inventories (guild_id, user_id, items, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, userID, string(itemsJSON)); err != nil {
		return fmt.Errorf("failed to set inventory for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// AddToInventory increments an item's quantity in a single statement. The
// conflicting row is locked by the upsert so concurrent adds never lose an
// increment.
func (r *InventoryRepository) AddToInventory(ctx context.Context, guildID, userID, itemID string, purchasedAt entities.UnixTime, quantity int64) error {
	query := `
		INSERT INTO inventories (guild_id, user_id, items, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, jsonb_build_object('purchased', $4::float8, 'quantity', $5::bigint)), NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			items = inventories.items || jsonb_build_object(
				$3::text,
				jsonb_build_object(
					'purchased', $4::float8,
					'quantity', COALESCE((inventories.items -> $3::text ->> 'quantity')::bigint, 0) + $5::bigint
				)
			),
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, userID, itemID, float64(purchasedAt), quantity); err != nil {
		return fmt.Errorf("failed to add %s to inventory of user %s in guild %s: %w", itemID, userID, guildID, err)
	}
	return nil
}
