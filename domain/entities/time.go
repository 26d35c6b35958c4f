package entities

import (
	"math"
	"time"
)

// UnixTime is a Unix timestamp in seconds. It is stored as a float so that
// fractional timestamps written by older versions of the bot round-trip
// without loss.
type UnixTime float64

// UnixTimeOf converts a time.Time into a UnixTime.
func UnixTimeOf(t time.Time) UnixTime {
	return UnixTime(float64(t.UnixNano()) / float64(time.Second))
}

// Time converts the timestamp back into a time.Time (UTC).
func (u UnixTime) Time() time.Time {
	sec, frac := math.Modf(float64(u))
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// IsZero reports whether the timestamp was never set.
func (u UnixTime) IsZero() bool {
	return u == 0
}

// Elapsed returns how much time has passed between the timestamp and now.
func (u UnixTime) Elapsed(now time.Time) time.Duration {
	return time.Duration((float64(UnixTimeOf(now)) - float64(u)) * float64(time.Second))
}

// CooldownRemaining returns how long is left before cooldown has elapsed
// since the timestamp. It returns 0 once the cooldown is over.
func (u UnixTime) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	elapsed := u.Elapsed(now)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}
