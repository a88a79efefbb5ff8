// Package domain defines the core persistence models for the relay.
// This file formalizes the order print-status lifecycle as an explicit enum
// with a transition table, so illegal writes (e.g. printed → pending) are
// rejected at the point of write rather than silently stored.
package domain

// PrintStatus is the POS-delivery state of an order, distinct from its
// commerce status (confirmed, cancelled, ...).
//
// Normal progression is pending → sent_to_pos → printed. `failed` is
// reachable from any non-terminal state; a failed order may be retried via
// the pull path without a distinct "retrying" state.
type PrintStatus string

const (
	// PrintStatusPending means the order was never handed to a terminal.
	PrintStatusPending PrintStatus = "pending"
	// PrintStatusSentToPOS means the order was pushed or pulled but not yet
	// confirmed as processed.
	PrintStatusSentToPOS PrintStatus = "sent_to_pos"
	// PrintStatusPrinted means a terminal confirmed delivery and processing.
	// This state is terminal.
	PrintStatusPrinted PrintStatus = "printed"
	// PrintStatusFailed means delivery or processing errored. Failed orders
	// may be re-queued for another attempt.
	PrintStatusFailed PrintStatus = "failed"
)

// Valid reports whether s is a known print status.
func (s PrintStatus) Valid() bool {
	switch s {
	case PrintStatusPending, PrintStatusSentToPOS, PrintStatusPrinted, PrintStatusFailed:
		return true
	}
	return false
}

// printTransitions maps each state to the states it may move to. A nil
// `from` (order never sent) is treated as pending.
var printTransitions = map[PrintStatus]map[PrintStatus]bool{
	PrintStatusPending: {
		PrintStatusSentToPOS: true,
		PrintStatusPrinted:   true, // terminal may confirm a pull-delivered order directly
		PrintStatusFailed:    true,
	},
	PrintStatusSentToPOS: {
		PrintStatusPrinted: true,
		PrintStatusFailed:  true,
	},
	PrintStatusPrinted: {}, // terminal state
	PrintStatusFailed: {
		PrintStatusPending:   true, // manual retry re-queues the order
		PrintStatusSentToPOS: true,
	},
}

// CanTransition reports whether an order's print status may move from `from`
// to `to`. A nil `from` represents an order that was never sent and is
// treated as pending. Self-transitions are allowed: re-marking a state the
// order is already in is a no-op, not an error (the pull path re-delivers
// sent_to_pos orders by design).
func CanTransition(from *PrintStatus, to PrintStatus) bool {
	if !to.Valid() {
		return false
	}
	f := PrintStatusPending
	if from != nil {
		f = *from
	}
	if f == to {
		return true
	}
	allowed, ok := printTransitions[f]
	if !ok {
		return false
	}
	return allowed[to]
}
