package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to completed", StatusConfirmed, StatusCompleted, true},
		{"confirmed back to pending", StatusConfirmed, StatusPending, false},
		{"cancelled is final", StatusCancelled, StatusConfirmed, false},
		{"completed is final", StatusCompleted, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_CanBeCancelled(t *testing.T) {
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
	assert.False(t, StatusCompleted.CanBeCancelled())
}

func TestBooking_EffectiveStatus(t *testing.T) {
	booking := &Booking{
		Status:  StatusConfirmed,
		Date:    "2026-09-07",
		EndTime: "19:00",
	}

	before := time.Date(2026, 9, 7, 18, 30, 0, 0, time.UTC)
	after := time.Date(2026, 9, 7, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, StatusConfirmed, booking.EffectiveStatus(before))
	assert.Equal(t, StatusCompleted, booking.EffectiveStatus(after), "slot end is inclusive for completion")

	// Only confirmed bookings lazily complete
	pending := &Booking{Status: StatusPending, Date: "2026-09-07", EndTime: "19:00"}
	assert.Equal(t, StatusPending, pending.EffectiveStatus(after))
}

func TestBooking_IsGuest(t *testing.T) {
	assert.True(t, (&Booking{}).IsGuest())
}
