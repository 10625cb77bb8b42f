// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

// Notifier is a single-slot "new data available" flag. Any number of
// Signal calls before the consumer wakes collapse into one wakeup; a
// Signal that lands after the consumer took the slot sets it again, so
// no update is lost, it is just rendered on the next cycle.
type Notifier struct {
	ch chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Signal sets the flag. It never blocks.
func (n *Notifier) Signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C is the channel the single consumer waits on. Receiving clears the flag.
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// Clear drops a pending signal without waiting.
func (n *Notifier) Clear() {
	select {
	case <-n.ch:
	default:
	}
}
