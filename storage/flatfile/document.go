package flatfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"tooly/domain/entities"

	log "github.com/sirupsen/logrus"
)

// Section keys of the on-disk document
const (
	SectionLevels              = "levels"
	SectionEconomy             = "economy"
	SectionWarnings            = "warnings"
	SectionShopItems           = "shopItems"
	SectionInventory           = "inventory"
	SectionLeaderboardMessages = "leaderboardMessages"
	SectionReactionRoles       = "reactionRoles"
	SectionSettings            = "settings"

	legacySectionShopItems           = "shop_items"
	legacySectionLeaderboardMessages = "leaderboard_messages"
)

// Document mirrors the whole flat-file dataset. Per-user sections are keyed
// guild id -> user id, the shop catalog guild id -> item id.
type Document struct {
	Levels              map[string]map[string]*entities.LevelRecord   `json:"levels"`
	Economy             map[string]map[string]*entities.EconomyRecord `json:"economy"`
	Warnings            map[string]map[string][]entities.Warning      `json:"warnings"`
	ShopItems           map[string]map[string]*entities.ShopItem      `json:"shopItems"`
	Inventory           map[string]map[string]entities.Inventory      `json:"inventory"`
	LeaderboardMessages map[string]*entities.LeaderboardPointer       `json:"leaderboardMessages,omitempty"`
	ReactionRoles       map[string]entities.ReactionRoles             `json:"reactionRoles,omitempty"`
	Settings            map[string]map[string]json.RawMessage         `json:"settings,omitempty"`

	// extra holds top-level sections no record type models, written back as read
	extra map[string]json.RawMessage
	// kept holds the raw JSON of entries that did not decode, per section
	kept map[string]*keptSection
}

// keptSection is the undecodable remainder of one section. A decoded record
// written under the same guild and key replaces the raw entry.
type keptSection struct {
	whole   json.RawMessage
	guilds  map[string]json.RawMessage
	entries map[string]map[string]json.RawMessage
}

// NewDocument returns an empty document with every section present
func NewDocument() *Document {
	return &Document{
		Levels:              make(map[string]map[string]*entities.LevelRecord),
		Economy:             make(map[string]map[string]*entities.EconomyRecord),
		Warnings:            make(map[string]map[string][]entities.Warning),
		ShopItems:           make(map[string]map[string]*entities.ShopItem),
		Inventory:           make(map[string]map[string]entities.Inventory),
		LeaderboardMessages: make(map[string]*entities.LeaderboardPointer),
		ReactionRoles:       make(map[string]entities.ReactionRoles),
		Settings:            make(map[string]map[string]json.RawMessage),
	}
}

func (d *Document) keptFor(section string) *keptSection {
	if d.kept == nil {
		d.kept = make(map[string]*keptSection)
	}
	k, ok := d.kept[section]
	if !ok {
		k = &keptSection{
			guilds:  make(map[string]json.RawMessage),
			entries: make(map[string]map[string]json.RawMessage),
		}
		d.kept[section] = k
	}
	return k
}

func (d *Document) keepWhole(section string, raw json.RawMessage) {
	d.keptFor(section).whole = raw
}

func (d *Document) keepGuild(section, guildID string, raw json.RawMessage) {
	d.keptFor(section).guilds[guildID] = raw
}

func (d *Document) keepEntry(section, guildID, key string, raw json.RawMessage) {
	k := d.keptFor(section)
	if k.entries[guildID] == nil {
		k.entries[guildID] = make(map[string]json.RawMessage)
	}
	k.entries[guildID][key] = raw
}

// forget drops kept raw JSON superseded by a delete. An empty key drops the
// whole guild. The returned func puts it back.
func (d *Document) forget(section, guildID, key string) (undo func()) {
	k := d.kept[section]
	if k == nil {
		return func() {}
	}
	if key == "" {
		prevGuild, hadGuild := k.guilds[guildID]
		prevEntries, hadEntries := k.entries[guildID]
		delete(k.guilds, guildID)
		delete(k.entries, guildID)
		return func() {
			restore(k.guilds, guildID, prevGuild, hadGuild)
			restore(k.entries, guildID, prevEntries, hadEntries)
		}
	}
	prev, had := k.entries[guildID][key]
	if !had {
		return func() {}
	}
	delete(k.entries[guildID], key)
	return func() { k.entries[guildID][key] = prev }
}

// Encode serializes the document. Kept raw entries and unknown sections are
// merged back so a load followed by a save loses nothing.
func (d *Document) Encode() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.extra)+8)
	for key, raw := range d.extra {
		out[key] = raw
	}

	sections := []struct {
		key       string
		value     any
		empty     bool
		omitEmpty bool
	}{
		{SectionLevels, d.Levels, len(d.Levels) == 0, false},
		{SectionEconomy, d.Economy, len(d.Economy) == 0, false},
		{SectionWarnings, d.Warnings, len(d.Warnings) == 0, false},
		{SectionShopItems, d.ShopItems, len(d.ShopItems) == 0, false},
		{SectionInventory, d.Inventory, len(d.Inventory) == 0, false},
		{SectionLeaderboardMessages, d.LeaderboardMessages, len(d.LeaderboardMessages) == 0, true},
		{SectionReactionRoles, d.ReactionRoles, len(d.ReactionRoles) == 0, true},
		{SectionSettings, d.Settings, len(d.Settings) == 0, true},
	}
	for _, section := range sections {
		kept := d.kept[section.key]
		if section.empty && kept != nil && kept.whole != nil {
			out[section.key] = kept.whole
			continue
		}
		if section.empty && section.omitEmpty && kept.isEmpty() {
			continue
		}
		raw, err := encodeSection(section.value, kept)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", section.key, err)
		}
		out[section.key] = raw
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func (k *keptSection) isEmpty() bool {
	return k == nil || (len(k.guilds) == 0 && len(k.entries) == 0)
}

// encodeSection marshals a guild keyed section and fills in kept raw guilds
// and entries wherever no decoded record took their place
func encodeSection(value any, kept *keptSection) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if kept.isEmpty() {
		return raw, nil
	}

	var guilds map[string]json.RawMessage
	if err := json.Unmarshal(raw, &guilds); err != nil {
		return nil, err
	}
	if guilds == nil {
		guilds = make(map[string]json.RawMessage)
	}

	for guildID, guildRaw := range kept.guilds {
		if _, ok := guilds[guildID]; !ok {
			guilds[guildID] = guildRaw
		}
	}
	for guildID, entries := range kept.entries {
		if len(entries) == 0 {
			continue
		}
		merged := make(map[string]json.RawMessage, len(entries))
		if existing, ok := guilds[guildID]; ok {
			if err := json.Unmarshal(existing, &merged); err != nil {
				return nil, err
			}
		}
		for key, entryRaw := range entries {
			if _, ok := merged[key]; !ok {
				merged[key] = entryRaw
			}
		}
		b, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}
		guilds[guildID] = b
	}
	return json.Marshal(guilds)
}

// Decode parses a document section by section onto defaults. Unknown fields
// are ignored and missing fields keep their default value. Entries that do not
// have the guild -> user -> record shape are skipped with a warning, but
// their raw JSON is kept and written back by Encode, as are top-level
// sections no record type models.
func Decode(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := NewDocument()
	consumed := make(map[string]bool, len(top))
	take := func(keys ...string) json.RawMessage {
		for _, key := range keys {
			if raw, ok := top[key]; ok {
				consumed[key] = true
				return raw
			}
		}
		return nil
	}

	decodeUserSection(doc, take(SectionLevels), SectionLevels, doc.Levels, func(raw json.RawMessage) (*entities.LevelRecord, error) {
		rec := entities.NewLevelRecord()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, err
		}
		rec.Normalize()
		return rec, nil
	})

	decodeUserSection(doc, take(SectionEconomy), SectionEconomy, doc.Economy, func(raw json.RawMessage) (*entities.EconomyRecord, error) {
		rec := entities.NewEconomyRecord()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, err
		}
		rec.Normalize()
		return rec, nil
	})

	decodeUserSection(doc, take(SectionWarnings), SectionWarnings, doc.Warnings, func(raw json.RawMessage) ([]entities.Warning, error) {
		var warnings []entities.Warning
		if err := json.Unmarshal(raw, &warnings); err != nil {
			return nil, err
		}
		return warnings, nil
	})

	decodeUserSection(doc, take(SectionInventory), SectionInventory, doc.Inventory, func(raw json.RawMessage) (entities.Inventory, error) {
		inv := entities.NewInventory()
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, err
		}
		if inv == nil {
			inv = entities.NewInventory()
		}
		inv.Normalize()
		return inv, nil
	})

	decodeUserSection(doc, take(SectionShopItems, legacySectionShopItems), SectionShopItems, doc.ShopItems, func(raw json.RawMessage) (*entities.ShopItem, error) {
		item := &entities.ShopItem{}
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, err
		}
		return item, nil
	})
	// Legacy catalogs only carry the id as the map key
	for _, items := range doc.ShopItems {
		for id, item := range items {
			item.ID = id
		}
	}

	if raw := take(SectionLeaderboardMessages, legacySectionLeaderboardMessages); raw != nil {
		var guilds map[string]json.RawMessage
		if err := json.Unmarshal(raw, &guilds); err != nil {
			log.WithFields(log.Fields{
				"section": SectionLeaderboardMessages,
				"error":   err,
			}).Warn("Skipping malformed section")
			doc.keepWhole(SectionLeaderboardMessages, raw)
		}
		for guildID, entry := range guilds {
			pointer := &entities.LeaderboardPointer{}
			if err := json.Unmarshal(entry, pointer); err != nil || !pointer.IsSet() {
				log.WithFields(log.Fields{
					"section": SectionLeaderboardMessages,
					"guildID": guildID,
				}).Warn("Skipping malformed leaderboard pointer")
				doc.keepGuild(SectionLeaderboardMessages, guildID, entry)
				continue
			}
			doc.LeaderboardMessages[guildID] = pointer
		}
	}

	if raw := take(SectionReactionRoles); raw != nil {
		if err := json.Unmarshal(raw, &doc.ReactionRoles); err != nil {
			log.WithFields(log.Fields{
				"section": SectionReactionRoles,
				"error":   err,
			}).Warn("Skipping malformed section")
			doc.ReactionRoles = make(map[string]entities.ReactionRoles)
			doc.keepWhole(SectionReactionRoles, raw)
		}
	}

	if raw := take(SectionSettings); raw != nil {
		if err := json.Unmarshal(raw, &doc.Settings); err != nil {
			log.WithFields(log.Fields{
				"section": SectionSettings,
				"error":   err,
			}).Warn("Skipping malformed section")
			doc.Settings = make(map[string]map[string]json.RawMessage)
			doc.keepWhole(SectionSettings, raw)
		}
	}

	for key, raw := range top {
		if consumed[key] {
			continue
		}
		if doc.extra == nil {
			doc.extra = make(map[string]json.RawMessage)
		}
		doc.extra[key] = raw
	}

	return doc, nil
}

// decodeUserSection walks a guild -> key -> value section, skipping any entry
// that does not decode instead of failing the whole load
func decodeUserSection[T any](doc *Document, raw json.RawMessage, section string, dst map[string]map[string]T, decode func(json.RawMessage) (T, error)) {
	if raw == nil {
		return
	}

	var guilds map[string]json.RawMessage
	if err := json.Unmarshal(raw, &guilds); err != nil {
		log.WithFields(log.Fields{
			"section": section,
			"error":   err,
		}).Warn("Skipping malformed section")
		doc.keepWhole(section, raw)
		return
	}

	skipped := 0
	for guildID, guildRaw := range guilds {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(guildRaw, &entries); err != nil {
			skipped++
			doc.keepGuild(section, guildID, guildRaw)
			continue
		}

		for key, entryRaw := range entries {
			value, err := decode(entryRaw)
			if err != nil {
				if fixed, ok := wholeNumbers(entryRaw); ok {
					value, err = decode(fixed)
				}
			}
			if err != nil {
				skipped++
				doc.keepEntry(section, guildID, key, entryRaw)
				continue
			}
			if dst[guildID] == nil {
				dst[guildID] = make(map[string]T)
			}
			dst[guildID][key] = value
		}
	}

	if skipped > 0 {
		log.WithFields(log.Fields{
			"section": section,
			"skipped": skipped,
		}).Warn("Skipped malformed entries while loading document, keeping them as raw JSON")
	}
}

// wholeNumbers rewrites floats without a fractional part, such as 150.0, as
// integer literals. It reports false when the input had none.
func wholeNumbers(raw json.RawMessage) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	changed := false
	v = rewriteWholeNumbers(v, &changed)
	if !changed {
		return nil, false
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return out, true
}

func rewriteWholeNumbers(v any, changed *bool) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = rewriteWholeNumbers(e, changed)
		}
	case []any:
		for i, e := range t {
			t[i] = rewriteWholeNumbers(e, changed)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			*changed = true
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}
