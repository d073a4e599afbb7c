// Package status holds the booking lifecycle the storefront is allowed to drive.
package status

import (
	"fmt"

	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

var transitions = map[backend.BookingStatus][]backend.BookingStatus{
	backend.BookingPending:   {backend.BookingConfirmed, backend.BookingCancelled},
	backend.BookingConfirmed: {backend.BookingCompleted, backend.BookingCancelled},
}

// Next lists the statuses reachable from current. Completed and cancelled are terminal.
func Next(current backend.BookingStatus) []backend.BookingStatus {
	return transitions[current]
}

func CanTransition(from, to backend.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns to when the move is allowed, ErrInvalidTransition otherwise.
func Transition(from, to backend.BookingStatus) (backend.BookingStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("failed moving booking from %s to %s with error=%w", from, to, inErrors.ErrInvalidTransition)
	}
	return to, nil
}

// CustomerCancellable reports whether the customer may still cancel; only bookings nobody confirmed yet qualify.
func CustomerCancellable(current backend.BookingStatus) bool {
	return current == backend.BookingPending
}
