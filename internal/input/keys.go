// Package input normalizes key and pointer presses into tempo events.
package input

import "time"

// KeyPress is one key-down signal from any keyboard source.
type KeyPress struct {
	Key    string
	At     time.Time
	Repeat bool
}

// AcceptKey reports whether a key press counts as a tempo event.
// Auto-repeat signals are dropped.
func AcceptKey(k KeyPress) bool {
	return !k.Repeat
}
