package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    backend.BookingStatus
		to      backend.BookingStatus
		allowed bool
	}{
		{name: "pending to confirmed", from: backend.BookingPending, to: backend.BookingConfirmed, allowed: true},
		{name: "pending to cancelled", from: backend.BookingPending, to: backend.BookingCancelled, allowed: true},
		{name: "pending to completed", from: backend.BookingPending, to: backend.BookingCompleted},
		{name: "confirmed to completed", from: backend.BookingConfirmed, to: backend.BookingCompleted, allowed: true},
		{name: "confirmed to cancelled", from: backend.BookingConfirmed, to: backend.BookingCancelled, allowed: true},
		{name: "confirmed to pending", from: backend.BookingConfirmed, to: backend.BookingPending},
		{name: "cancelled is terminal", from: backend.BookingCancelled, to: backend.BookingConfirmed},
		{name: "completed is terminal", from: backend.BookingCompleted, to: backend.BookingCancelled},
		{name: "unknown status", from: "archived", to: backend.BookingConfirmed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Transition(test.from, test.to)
			if test.allowed {
				assert.NoError(t, err)
				assert.Equal(t, test.to, got)
				return
			}
			assert.ErrorIs(t, err, inErrors.ErrInvalidTransition)
			assert.Equal(t, test.from, got)
		})
	}
}

func TestCustomerCancellable(t *testing.T) {
	assert.True(t, CustomerCancellable(backend.BookingPending))
	assert.False(t, CustomerCancellable(backend.BookingConfirmed))
	assert.False(t, CustomerCancellable(backend.BookingCancelled))
	assert.Empty(t, Next(backend.BookingCompleted))
}
