package entities

// LevelRecord tracks a user's chat progression within a guild
type LevelRecord struct {
	Level         int64    `json:"level"`
	XP            int64    `json:"xp"`
	LastMessageAt UnixTime `json:"lastMessage"`
}

// NewLevelRecord returns the record a user starts with
func NewLevelRecord() *LevelRecord {
	return &LevelRecord{Level: 1}
}

// XPNeeded returns the experience required to leave the current level
func (l *LevelRecord) XPNeeded(xpPerLevel int64) int64 {
	return l.Level * xpPerLevel
}

// AddXP adds experience and applies a level up when the threshold is reached.
// It reports whether the record leveled up.
func (l *LevelRecord) AddXP(amount, xpPerLevel int64) bool {
	l.XP += amount
	if l.XP >= l.XPNeeded(xpPerLevel) {
		l.Level++
		l.XP = 0
		return true
	}
	return false
}

// Normalize repairs values a hand-edited or legacy document may carry
func (l *LevelRecord) Normalize() {
	if l.Level < 1 {
		l.Level = 1
	}
	if l.XP < 0 {
		l.XP = 0
	}
}
