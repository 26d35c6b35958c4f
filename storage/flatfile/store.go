package flatfile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// FlushMode controls when in-memory changes reach disk
type FlushMode string

const (
	// FlushImmediate saves the whole document before every write returns
	FlushImmediate FlushMode = "immediate"
	// FlushBatched saves dirty state on a ticker and on Close. Writes made
	// within the last interval can be lost on a crash.
	FlushBatched FlushMode = "batched"
)

// Options configures a Store
type Options struct {
	Path          string
	FlushMode     FlushMode
	FlushInterval time.Duration
}

var _ interfaces.LedgerStore = (*Store)(nil)

// Store is the flat-file ledger backend. The whole dataset lives in memory
// and every read returns a copy.
type Store struct {
	mu    sync.RWMutex
	path  string
	doc   *Document
	mode  FlushMode
	dirty bool

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// Open loads the document at opts.Path, creating it when absent
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("flat-file path is required")
	}
	if opts.FlushMode == "" {
		opts.FlushMode = FlushImmediate
	}
	if opts.FlushMode != FlushImmediate && opts.FlushMode != FlushBatched {
		return nil, fmt.Errorf("unknown flush mode %q", opts.FlushMode)
	}
	if opts.FlushMode == FlushBatched && opts.FlushInterval <= 0 {
		return nil, fmt.Errorf("batched flush mode requires a positive flush interval")
	}

	doc, exists, err := ReadFile(opts.Path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path: opts.Path,
		doc:  doc,
		mode: opts.FlushMode,
	}

	if !exists {
		log.WithField("path", opts.Path).Info("Creating new data file")
		if err := WriteFile(opts.Path, doc); err != nil {
			return nil, fmt.Errorf("failed to create data file: %w", err)
		}
	} else {
		log.WithFields(log.Fields{
			"path":   opts.Path,
			"guilds": len(doc.guildIDs()),
		}).Info("Loaded data file")
	}

	if s.mode == FlushBatched {
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		go s.flushLoop(opts.FlushInterval)
	}

	return s, nil
}

func (s *Store) flushLoop(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				log.WithError(err).Error("Failed to flush data file")
			}
		case <-s.stopCh:
			return
		}
	}
}

// Flush writes the document to disk if it has unsaved changes
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := WriteFile(s.path, s.doc); err != nil {
		return domain.NewStorageError("flush", err)
	}
	s.dirty = false
	return nil
}

// Close stops the flush loop and writes any pending changes
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			<-s.doneCh
		}
	})
	return s.Flush()
}

// persistLocked makes the current document durable according to the flush
// mode. On failure the caller must roll back its change. Must hold s.mu.
func (s *Store) persistLocked() error {
	if s.mode == FlushBatched {
		s.dirty = true
		return nil
	}
	if err := WriteFile(s.path, s.doc); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// commitLocked applies a change, persists it and reverts it when the write fails
func (s *Store) commitLocked(op string, apply, revert func()) error {
	apply()
	if err := s.persistLocked(); err != nil {
		revert()
		return domain.NewStorageError(op, err)
	}
	return nil
}

// materializeLocked persists a default record created by a read. A failed
// save leaves the record in memory for the next flush.
func (s *Store) materializeLocked(kind entities.RecordKind, guildID, userID string) {
	if err := s.persistLocked(); err != nil {
		s.dirty = true
		log.WithFields(log.Fields{
			"record":  kind,
			"guildID": guildID,
			"userID":  userID,
			"error":   err,
		}).Warn("Failed to persist default record")
	}
}

func userMap[T any](m map[string]map[string]T, guildID string) map[string]T {
	users, ok := m[guildID]
	if !ok {
		users = make(map[string]T)
		m[guildID] = users
	}
	return users
}

// restore puts back a previous value or removes the key if there was none
func restore[T any](m map[string]T, key string, prev T, had bool) {
	if had {
		m[key] = prev
	} else {
		delete(m, key)
	}
}

// GetLevel returns a user's level record, creating the default on first access
func (s *Store) GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error) {
	s.mu.RLock()
	rec, ok := s.doc.Levels[guildID][userID]
	if ok {
		c := *rec
		s.mu.RUnlock()
		return &c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	users := userMap(s.doc.Levels, guildID)
	if rec, ok := users[userID]; ok {
		c := *rec
		return &c, nil
	}
	rec = entities.NewLevelRecord()
	users[userID] = rec
	s.materializeLocked(entities.RecordKindLevel, guildID, userID)
	c := *rec
	return &c, nil
}

// SetLevel replaces a user's level record
func (s *Store) SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Levels, guildID)
	prev, had := users[userID]
	c := *record
	return s.commitLocked("set level",
		func() { users[userID] = &c },
		func() { restore(users, userID, prev, had) })
}

// ListLevels returns every level record of a guild
func (s *Store) ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.LevelRecord, len(s.doc.Levels[guildID]))
	for userID, rec := range s.doc.Levels[guildID] {
		c := *rec
		out[userID] = &c
	}
	return out, nil
}

// GetEconomy returns a user's economy record, creating the default on first access
func (s *Store) GetEconomy(ctx context.Context, guildID, userID string) (*entities.EconomyRecord, error) {
	s.mu.RLock()
	rec, ok := s.doc.Economy[guildID][userID]
	if ok {
		c := rec.Clone()
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	users := userMap(s.doc.Economy, guildID)
	if rec, ok := users[userID]; ok {
		return rec.Clone(), nil
	}
	rec = entities.NewEconomyRecord()
	users[userID] = rec
	s.materializeLocked(entities.RecordKindEconomy, guildID, userID)
	return rec.Clone(), nil
}

// SetEconomy replaces a user's economy record
func (s *Store) SetEconomy(ctx context.Context, guildID, userID string, record *entities.EconomyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Economy, guildID)
	prev, had := users[userID]
	c := record.Clone()
	return s.commitLocked("set economy",
		func() { users[userID] = c },
		func() { restore(users, userID, prev, had) })
}

// ListEconomies returns every economy record of a guild
func (s *Store) ListEconomies(ctx context.Context, guildID string) (map[string]*entities.EconomyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.EconomyRecord, len(s.doc.Economy[guildID]))
	for userID, rec := range s.doc.Economy[guildID] {
		out[userID] = rec.Clone()
	}
	return out, nil
}

// GetInventory returns a user's inventory, creating an empty one on first access
func (s *Store) GetInventory(ctx context.Context, guildID, userID string) (entities.Inventory, error) {
	s.mu.RLock()
	inv, ok := s.doc.Inventory[guildID][userID]
	if ok {
		c := inv.Clone()
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	users := userMap(s.doc.Inventory, guildID)
	if inv, ok := users[userID]; ok {
		return inv.Clone(), nil
	}
	inv = entities.NewInventory()
	users[userID] = inv
	s.materializeLocked(entities.RecordKindInventory, guildID, userID)
	return inv.Clone(), nil
}

// SetInventory replaces a user's inventory
func (s *Store) SetInventory(ctx context.Context, guildID, userID string, inventory entities.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Inventory, guildID)
	prev, had := users[userID]
	c := inventory.Clone()
	return s.commitLocked("set inventory",
		func() { users[userID] = c },
		func() { restore(users, userID, prev, had) })
}

// AddToInventory adds quantity of an item under the document lock
func (s *Store) AddToInventory(ctx context.Context, guildID, userID, itemID string, purchasedAt entities.UnixTime, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Inventory, guildID)
	prev, had := users[userID]
	next := entities.NewInventory()
	if had {
		next = prev.Clone()
	}
	next.Add(itemID, purchasedAt, quantity)
	return s.commitLocked("add to inventory",
		func() { users[userID] = next },
		func() { restore(users, userID, prev, had) })
}

// GetWarnings returns a copy of a user's warnings
func (s *Store) GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warnings, ok := s.doc.Warnings[guildID][userID]
	if !ok {
		return nil, nil
	}
	return append([]entities.Warning{}, warnings...), nil
}

// AddWarning appends a warning under the document lock
func (s *Store) AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Warnings, guildID)
	prev, had := users[userID]
	next := append(append([]entities.Warning{}, prev...), warning)
	err := s.commitLocked("add warning",
		func() { users[userID] = next },
		func() { restore(users, userID, prev, had) })
	if err != nil {
		return 0, err
	}
	return len(next), nil
}

// SetWarnings replaces a user's warning list
func (s *Store) SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Warnings, guildID)
	prev, had := users[userID]
	next := append([]entities.Warning{}, warnings...)
	return s.commitLocked("set warnings",
		func() { users[userID] = next },
		func() { restore(users, userID, prev, had) })
}

// ClearWarnings removes every warning of a user
func (s *Store) ClearWarnings(ctx context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := userMap(s.doc.Warnings, guildID)
	prev, had := users[userID]
	var undoKept func()
	return s.commitLocked("clear warnings",
		func() {
			delete(users, userID)
			undoKept = s.doc.forget(SectionWarnings, guildID, userID)
		},
		func() {
			restore(users, userID, prev, had)
			undoKept()
		})
}

// GetShopItems returns a copy of a guild's catalog
func (s *Store) GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.ShopItem, len(s.doc.ShopItems[guildID]))
	for id, item := range s.doc.ShopItems[guildID] {
		c := *item
		out[id] = &c
	}
	return out, nil
}

// CreateShopItem inserts an item unless its id is already taken
func (s *Store) CreateShopItem(ctx context.Context, guildID string, item *entities.ShopItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := userMap(s.doc.ShopItems, guildID)
	if _, exists := items[item.ID]; exists {
		return false, nil
	}
	c := *item
	err := s.commitLocked("create shop item",
		func() { items[item.ID] = &c },
		func() { delete(items, item.ID) })
	if err != nil {
		return false, err
	}
	return true, nil
}

// PutShopItem inserts or replaces an item
func (s *Store) PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := userMap(s.doc.ShopItems, guildID)
	prev, had := items[item.ID]
	c := *item
	return s.commitLocked("put shop item",
		func() { items[item.ID] = &c },
		func() { restore(items, item.ID, prev, had) })
}

// DeleteShopItem removes an item from the catalog. Owned copies are kept.
func (s *Store) DeleteShopItem(ctx context.Context, guildID, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := userMap(s.doc.ShopItems, guildID)
	prev, had := items[itemID]
	if !had {
		return false, nil
	}
	var undoKept func()
	err := s.commitLocked("delete shop item",
		func() {
			delete(items, itemID)
			undoKept = s.doc.forget(SectionShopItems, guildID, itemID)
		},
		func() {
			items[itemID] = prev
			undoKept()
		})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetLeaderboardPointer returns the guild's leaderboard pointer, nil when unset
func (s *Store) GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pointer, ok := s.doc.LeaderboardMessages[guildID]
	if !ok {
		return nil, nil
	}
	c := *pointer
	return &c, nil
}

// SetLeaderboardPointer replaces the guild's leaderboard pointer
func (s *Store) SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.LeaderboardMessages[guildID]
	c := *pointer
	return s.commitLocked("set leaderboard pointer",
		func() { s.doc.LeaderboardMessages[guildID] = &c },
		func() { restore(s.doc.LeaderboardMessages, guildID, prev, had) })
}

// DeleteLeaderboardPointer removes the guild's leaderboard pointer
func (s *Store) DeleteLeaderboardPointer(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.LeaderboardMessages[guildID]
	if !had {
		return nil
	}
	return s.commitLocked("delete leaderboard pointer",
		func() { delete(s.doc.LeaderboardMessages, guildID) },
		func() { s.doc.LeaderboardMessages[guildID] = prev })
}

// DeleteLeaderboardPointerIfMatches removes the pointer only while it still
// references messageID
func (s *Store) DeleteLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.LeaderboardMessages[guildID]
	if !had || prev.MessageID != messageID {
		return false, nil
	}
	err := s.commitLocked("delete leaderboard pointer",
		func() { delete(s.doc.LeaderboardMessages, guildID) },
		func() { s.doc.LeaderboardMessages[guildID] = prev })
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListLeaderboardPointers returns every stored pointer
func (s *Store) ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.LeaderboardPointer, len(s.doc.LeaderboardMessages))
	for guildID, pointer := range s.doc.LeaderboardMessages {
		c := *pointer
		out[guildID] = &c
	}
	return out, nil
}

// GetReactionRoles returns a copy of a guild's reaction role bindings
func (s *Store) GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneReactionRoles(s.doc.ReactionRoles[guildID]), nil
}

// SetReactionRole binds emoji on a message to a role
func (s *Store) SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.ReactionRoles[guildID]
	next := cloneReactionRoles(prev)
	if next[messageID] == nil {
		next[messageID] = make(map[string]string)
	}
	next[messageID][emoji] = roleID
	return s.commitLocked("set reaction role",
		func() { s.doc.ReactionRoles[guildID] = next },
		func() { restore(s.doc.ReactionRoles, guildID, prev, had) })
}

// RemoveReactionRole removes one binding, or every binding of the message
// when emoji is empty
func (s *Store) RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.doc.ReactionRoles[guildID]
	if !had || prev[messageID] == nil {
		return nil
	}
	next := cloneReactionRoles(prev)
	if emoji == "" {
		delete(next, messageID)
	} else {
		delete(next[messageID], emoji)
		if len(next[messageID]) == 0 {
			delete(next, messageID)
		}
	}
	return s.commitLocked("remove reaction role",
		func() { s.doc.ReactionRoles[guildID] = next },
		func() { s.doc.ReactionRoles[guildID] = prev })
}

func cloneReactionRoles(src entities.ReactionRoles) entities.ReactionRoles {
	out := make(entities.ReactionRoles, len(src))
	for messageID, roles := range src {
		c := make(map[string]string, len(roles))
		for emoji, roleID := range roles {
			c[emoji] = roleID
		}
		out[messageID] = c
	}
	return out
}

// GetSetting returns a guild setting, nil when unset
func (s *Store) GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.doc.Settings[guildID][key]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage{}, value...), nil
}

// SetSetting stores a guild setting
func (s *Store) SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := userMap(s.doc.Settings, guildID)
	prev, had := settings[key]
	next := append(json.RawMessage{}, value...)
	return s.commitLocked("set setting",
		func() { settings[key] = next },
		func() { restore(settings, key, prev, had) })
}

// ListGuilds returns every guild that owns a record in any section
func (s *Store) ListGuilds(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.guildIDs(), nil
}

// ResetGuildEconomy wipes the economy and inventory sections of a guild
func (s *Store) ResetGuildEconomy(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevEconomy, hadEconomy := s.doc.Economy[guildID]
	prevInventory, hadInventory := s.doc.Inventory[guildID]
	var undoEconomy, undoInventory func()
	return s.commitLocked("reset guild economy",
		func() {
			delete(s.doc.Economy, guildID)
			delete(s.doc.Inventory, guildID)
			undoEconomy = s.doc.forget(SectionEconomy, guildID, "")
			undoInventory = s.doc.forget(SectionInventory, guildID, "")
		},
		func() {
			restore(s.doc.Economy, guildID, prevEconomy, hadEconomy)
			restore(s.doc.Inventory, guildID, prevInventory, hadInventory)
			undoEconomy()
			undoInventory()
		})
}

func (d *Document) guildIDs() []string {
	seen := make(map[string]struct{})
	add := func(id string) { seen[id] = struct{}{} }
	for id := range d.Levels {
		add(id)
	}
	for id := range d.Economy {
		add(id)
	}
	for id := range d.Warnings {
		add(id)
	}
	for id := range d.ShopItems {
		add(id)
	}
	for id := range d.Inventory {
		add(id)
	}
	for id := range d.LeaderboardMessages {
		add(id)
	}
	for id := range d.ReactionRoles {
		add(id)
	}
	for id := range d.Settings {
		add(id)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
