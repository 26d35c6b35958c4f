package application

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"tooly/domain"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/services"
	"tooly/storage/flatfile"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MigrationState reports what a migration run found
type MigrationState string

const (
	// MigrationStateNoLegacyFile means there was nothing to import
	MigrationStateNoLegacyFile MigrationState = "no-legacy-file"
	// MigrationStateMigrated means every record of the legacy file was written to the target
	MigrationStateMigrated MigrationState = "migrated"
)

// MigrationResult summarizes a migration run
type MigrationResult struct {
	RunID     string
	State     MigrationState
	Counts    map[string]int
	Conflicts []*domain.MigrationConflict
	// Skipped counts legacy records per section that failed validation and
	// were left out of the target
	Skipped map[string]int
}

// TotalSkipped returns the number of legacy records left out of the target
func (r *MigrationResult) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// MigrationRunner copies a legacy flat-file dataset into another ledger store.
// Every record is written with a replacing Set, so running it twice leaves
// the target exactly as running it once. Records failing the ledger's
// validation are skipped with a warning so one bad entry cannot stop a run
// half way. The legacy file is only read.
type MigrationRunner struct {
	target         interfaces.LedgerStore
	eventPublisher interfaces.EventPublisher
}

// NewMigrationRunner creates a runner writing into target
func NewMigrationRunner(target interfaces.LedgerStore, eventPublisher interfaces.EventPublisher) *MigrationRunner {
	return &MigrationRunner{
		target:         target,
		eventPublisher: eventPublisher,
	}
}

// Run imports the legacy file at path
func (r *MigrationRunner) Run(ctx context.Context, path string) (*MigrationResult, error) {
	result := &MigrationResult{
		RunID:   uuid.New().String(),
		Counts:  make(map[string]int),
		Skipped: make(map[string]int),
	}

	doc, exists, err := flatfile.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy data file: %w", err)
	}
	if !exists {
		result.State = MigrationStateNoLegacyFile
		log.WithFields(log.Fields{
			"runID": result.RunID,
			"path":  path,
		}).Info("No legacy data file found, skipping migration")
		return result, nil
	}

	logger := log.WithFields(log.Fields{
		"runID": result.RunID,
		"path":  path,
	})
	logger.Info("Migrating legacy data file")

	steps := []struct {
		section string
		migrate func(context.Context, *flatfile.Document, *MigrationResult) error
	}{
		{flatfile.SectionLevels, r.migrateLevels},
		{flatfile.SectionEconomy, r.migrateEconomy},
		{flatfile.SectionInventory, r.migrateInventory},
		{flatfile.SectionWarnings, r.migrateWarnings},
		{flatfile.SectionShopItems, r.migrateShopItems},
		{flatfile.SectionLeaderboardMessages, r.migrateLeaderboardPointers},
		{flatfile.SectionReactionRoles, r.migrateReactionRoles},
		{flatfile.SectionSettings, r.migrateSettings},
	}
	for _, step := range steps {
		if err := step.migrate(ctx, doc, result); err != nil {
			return nil, fmt.Errorf("failed to migrate %s: %w", step.section, err)
		}
	}

	result.State = MigrationStateMigrated
	logger.WithFields(log.Fields{
		"counts":    result.Counts,
		"conflicts": len(result.Conflicts),
		"skipped":   result.TotalSkipped(),
	}).Info("Legacy data migration completed")

	if r.eventPublisher != nil {
		event := events.LegacyMigrationCompletedEvent{
			RunID:     result.RunID,
			Source:    path,
			Counts:    result.Counts,
			Conflicts: len(result.Conflicts),
			Skipped:   result.TotalSkipped(),
		}
		if err := r.eventPublisher.Publish(event); err != nil {
			logger.WithError(err).Error("Failed to publish migration completed event")
		}
	}
	return result, nil
}

// skip records a legacy value that the target would reject. The record is
// left out and the run goes on; the legacy file still holds it.
func (r *MigrationRunner) skip(result *MigrationResult, collection, guildID, key string, err error) {
	result.Skipped[collection]++
	log.WithFields(log.Fields{
		"runID":      result.RunID,
		"collection": collection,
		"guildID":    guildID,
		"key":        key,
		"error":      err,
	}).Warn("Skipping invalid legacy record")
}

// conflict records a target value that the legacy value overwrites
func (r *MigrationRunner) conflict(result *MigrationResult, collection, guildID, key string) {
	c := &domain.MigrationConflict{Collection: collection, GuildID: guildID, Key: key}
	result.Conflicts = append(result.Conflicts, c)
	log.WithFields(log.Fields{
		"runID":      result.RunID,
		"collection": collection,
		"guildID":    guildID,
		"key":        key,
	}).Warn(c.Error())
}

func (r *MigrationRunner) migrateLevels(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, users := range doc.Levels {
		existing, err := r.target.ListLevels(ctx, guildID)
		if err != nil {
			return err
		}
		for userID, rec := range users {
			rec.Normalize()
			if err := services.ValidateLevel(rec); err != nil {
				r.skip(result, flatfile.SectionLevels, guildID, userID, err)
				continue
			}
			if prev, ok := existing[userID]; ok && *prev != *rec {
				r.conflict(result, flatfile.SectionLevels, guildID, userID)
			}
			if err := r.target.SetLevel(ctx, guildID, userID, rec); err != nil {
				return err
			}
			result.Counts[flatfile.SectionLevels]++
		}
	}
	return nil
}

func (r *MigrationRunner) migrateEconomy(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, users := range doc.Economy {
		existing, err := r.target.ListEconomies(ctx, guildID)
		if err != nil {
			return err
		}
		for userID, rec := range users {
			rec.Normalize()
			if err := services.ValidateEconomy(rec); err != nil {
				r.skip(result, flatfile.SectionEconomy, guildID, userID, err)
				continue
			}
			if prev, ok := existing[userID]; ok {
				prev.Normalize()
				if !reflect.DeepEqual(prev, rec) {
					r.conflict(result, flatfile.SectionEconomy, guildID, userID)
				}
			}
			if err := r.target.SetEconomy(ctx, guildID, userID, rec); err != nil {
				return err
			}
			result.Counts[flatfile.SectionEconomy]++
		}
	}
	return nil
}

func (r *MigrationRunner) migrateInventory(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, users := range doc.Inventory {
		for userID, inv := range users {
			inv.Normalize()
			if err := services.ValidateInventory(inv); err != nil {
				r.skip(result, flatfile.SectionInventory, guildID, userID, err)
				continue
			}
			prev, err := r.target.GetInventory(ctx, guildID, userID)
			if err != nil {
				return err
			}
			if len(prev) > 0 && !reflect.DeepEqual(prev, inv) {
				r.conflict(result, flatfile.SectionInventory, guildID, userID)
			}
			if err := r.target.SetInventory(ctx, guildID, userID, inv); err != nil {
				return err
			}
			result.Counts[flatfile.SectionInventory]++
		}
	}
	return nil
}

func (r *MigrationRunner) migrateWarnings(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, users := range doc.Warnings {
		for userID, warnings := range users {
			prev, err := r.target.GetWarnings(ctx, guildID, userID)
			if err != nil {
				return err
			}
			if len(prev) > 0 && !reflect.DeepEqual(prev, warnings) {
				r.conflict(result, flatfile.SectionWarnings, guildID, userID)
			}
			if err := r.target.SetWarnings(ctx, guildID, userID, warnings); err != nil {
				return err
			}
			result.Counts[flatfile.SectionWarnings]++
		}
	}
	return nil
}

func (r *MigrationRunner) migrateShopItems(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, items := range doc.ShopItems {
		existing, err := r.target.GetShopItems(ctx, guildID)
		if err != nil {
			return err
		}
		for itemID, item := range items {
			if item.ID == "" {
				item.ID = itemID
			}
			if err := services.ValidateShopItem(item); err != nil {
				r.skip(result, flatfile.SectionShopItems, guildID, itemID, err)
				continue
			}
			if prev, ok := existing[itemID]; ok && *prev != *item {
				r.conflict(result, flatfile.SectionShopItems, guildID, itemID)
			}
			if err := r.target.PutShopItem(ctx, guildID, item); err != nil {
				return err
			}
			result.Counts[flatfile.SectionShopItems]++
		}
	}
	return nil
}

func (r *MigrationRunner) migrateLeaderboardPointers(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	if len(doc.LeaderboardMessages) == 0 {
		return nil
	}
	existing, err := r.target.ListLeaderboardPointers(ctx)
	if err != nil {
		return err
	}
	for guildID, pointer := range doc.LeaderboardMessages {
		if !pointer.IsSet() {
			continue
		}
		if prev, ok := existing[guildID]; ok && *prev != *pointer {
			r.conflict(result, flatfile.SectionLeaderboardMessages, guildID, pointer.MessageID)
		}
		if err := r.target.SetLeaderboardPointer(ctx, guildID, pointer); err != nil {
			return err
		}
		result.Counts[flatfile.SectionLeaderboardMessages]++
	}
	return nil
}

func (r *MigrationRunner) migrateReactionRoles(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, roles := range doc.ReactionRoles {
		existing, err := r.target.GetReactionRoles(ctx, guildID)
		if err != nil {
			return err
		}
		for messageID, emojis := range roles {
			for emoji, roleID := range emojis {
				if prev, ok := existing[messageID][emoji]; ok && prev != roleID {
					r.conflict(result, flatfile.SectionReactionRoles, guildID, messageID+"/"+emoji)
				}
				if err := r.target.SetReactionRole(ctx, guildID, messageID, emoji, roleID); err != nil {
					return err
				}
				result.Counts[flatfile.SectionReactionRoles]++
			}
		}
	}
	return nil
}

func (r *MigrationRunner) migrateSettings(ctx context.Context, doc *flatfile.Document, result *MigrationResult) error {
	for guildID, settings := range doc.Settings {
		for key, value := range settings {
			prev, err := r.target.GetSetting(ctx, guildID, key)
			if err != nil {
				return err
			}
			if prev != nil && !sameJSON(prev, value) {
				r.conflict(result, flatfile.SectionSettings, guildID, key)
			}
			if err := r.target.SetSetting(ctx, guildID, key, value); err != nil {
				return err
			}
			result.Counts[flatfile.SectionSettings]++
		}
	}
	return nil
}

// sameJSON compares two documents ignoring formatting and key order
func sameJSON(a, b json.RawMessage) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return string(a) == string(b)
	}
	return reflect.DeepEqual(va, vb)
}
