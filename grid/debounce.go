// ABOUTME: Sequence-number debouncing for search input
// ABOUTME: Only the newest scheduled tick is allowed to apply its term
package grid

import "time"

// DefaultDebounce is the delay between the last keystroke and the search.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer hands out sequence numbers; a tick applies only if its number
// is still the latest one issued.
type Debouncer struct {
	seq uint64
}

// Next invalidates earlier ticks and returns the number for a new one.
func (d *Debouncer) Next() uint64 {
	d.seq++
	return d.seq
}

// Current reports whether seq is the latest issued number.
func (d *Debouncer) Current(seq uint64) bool {
	return seq == d.seq
}
