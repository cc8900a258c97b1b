package notify

import (
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
)

// ToTrigger returns the instant a reminder fires on now's calendar day.
// A time of day that has already passed stays on the same day.
func ToTrigger(r model.Reminder, now time.Time) (time.Time, error) {
	hour, minute, err := model.ParseClock(r.Time)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), nil
}

// NextTrigger is ToTrigger rolled forward one day when the result is not
// after now.
func NextTrigger(r model.Reminder, now time.Time) (time.Time, error) {
	at, err := ToTrigger(r, now)
	if err != nil {
		return time.Time{}, err
	}
	if !at.After(now) {
		at = time.Date(at.Year(), at.Month(), at.Day()+1, at.Hour(), at.Minute(), 0, 0, at.Location())
	}
	return at, nil
}

// NotificationID maps a reminder id to the positive 32-bit id notification
// services require. Ids that already fit are used unchanged; others (such
// as millisecond timestamps) are folded with FNV-1a.
func NotificationID(id string) int32 {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n >= 1 && n <= math.MaxInt32 {
		return int32(n)
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	folded := int32(h.Sum32() % math.MaxInt32)
	return folded + 1
}
