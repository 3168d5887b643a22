// Package expiry derives the days-to-expiry value stored on every item.
package expiry

import (
	"fmt"
	"time"

	"github.com/dukerupert/fridgly/internal/model"
)

const (
	day      = 24 * time.Hour
	msPerDay = int64(day / time.Millisecond)
)

// Select returns the expiration date that applies to an item: the
// refrigerated date when the item goes in the fridge, the room-temperature
// date otherwise.
func Select(refrigerated, roomTemp time.Time, goesInFridge model.YesNo) time.Time {
	if goesInFridge.Bool() {
		return refrigerated
	}
	return roomTemp
}

// Remaining is the signed time from now until the selected expiration date.
// It is negative once the item is overdue.
func Remaining(refrigerated, roomTemp time.Time, goesInFridge model.YesNo, now time.Time) time.Duration {
	return Select(refrigerated, roomTemp, goesInFridge).Sub(now)
}

// Days is the absolute distance between now and the selected expiration
// date in whole days, rounded up, at millisecond precision. A zero selected
// date yields 0.
//
// TODO: store a signed day count so overdue items can be told apart from
// items that are about to expire; the sign is currently discarded.
func Days(refrigerated, roomTemp time.Time, goesInFridge model.YesNo, now time.Time) int64 {
	selected := Select(refrigerated, roomTemp, goesInFridge)
	if selected.IsZero() {
		return 0
	}
	// Milliseconds, not time.Duration: Sub saturates beyond ~292 years.
	ms := selected.UnixMilli() - now.UnixMilli()
	if ms < 0 {
		ms = -ms
	}
	return (ms + msPerDay - 1) / msPerDay
}

// DaysToExpiry formats Days as "<N>d".
func DaysToExpiry(refrigerated, roomTemp time.Time, goesInFridge model.YesNo, now time.Time) string {
	return fmt.Sprintf("%dd", Days(refrigerated, roomTemp, goesInFridge, now))
}

// ForProperties recomputes the derived value from an item's properties.
func ForProperties(p model.Properties, now time.Time) string {
	return DaysToExpiry(p.ExpirationRefrigerated, p.ExpirationRoomTemp, p.GoesInFridge, now)
}
