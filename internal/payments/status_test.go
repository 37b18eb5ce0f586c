package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSuccess.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to success", StatusPending, StatusSuccess, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"success is final", StatusSuccess, StatusFailed, false},
		{"failed is final", StatusFailed, StatusSuccess, false},
		{"expired is final", StatusExpired, StatusSuccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeBooking.IsValid())
	assert.True(t, TypeMatchJoin.IsValid())
	assert.False(t, Type("REFUND").IsValid())
}
