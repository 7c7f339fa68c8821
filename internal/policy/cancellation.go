// Package policy holds pure business-rule checks with no I/O.
package policy

import "time"

// DefaultWindowHours is the minimum lead time before departure during which
// a rider may still cancel.
const DefaultWindowHours = 24

// Allowed reports whether a cancellation attempted at now is still permitted
// for a trip departing at departure, given a window in hours.
func Allowed(departure, now time.Time, windowHours int) bool {
	return departure.Sub(now) > time.Duration(windowHours)*time.Hour
}
