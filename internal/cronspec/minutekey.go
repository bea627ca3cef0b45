package cronspec

import "time"

// minuteKeyLayout has no seconds and no zone marker: the key identifies a
// calendar minute as seen on the wall clock of t's location.
const minuteKeyLayout = "2006-01-02T15:04"

// MinuteKey returns the idempotence token for t's calendar minute,
// e.g. "2026-08-29T14:30". Two times within the same minute yield the same
// key regardless of seconds or sub-second precision.
func MinuteKey(t time.Time) string {
	return t.Format(minuteKeyLayout)
}
