package courts

import (
	"testing"
	"time"

	"courtside/internal/shared/utils/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-09-07 is a Monday, 2026-09-05 a Saturday
var (
	monday   = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
)

func baseInput(date time.Time) CalculatorInput {
	return CalculatorInput{
		Date:        date,
		OpeningTime: "06:00",
		ClosingTime: "10:00",
		SlotMinutes: 60,
		Rules: []PricingRule{
			{DayType: DayTypeWeekday, StartTime: "06:00", EndTime: "22:00", PricePerHour: 80000},
			{DayType: DayTypeWeekend, StartTime: "06:00", EndTime: "22:00", PricePerHour: 110000},
			{DayType: DayTypeHoliday, StartTime: "06:00", EndTime: "22:00", PricePerHour: 150000},
		},
	}
}

func TestResolveDayType(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		isHoliday bool
		want      DayType
	}{
		{"weekday", monday, false, DayTypeWeekday},
		{"weekend", saturday, false, DayTypeWeekend},
		{"holiday on weekday", monday, true, DayTypeHoliday},
		{"holiday wins over weekend", saturday, true, DayTypeHoliday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDayType(tt.date, tt.isHoliday))
		})
	}
}

func TestComputeDaySlots_Basic(t *testing.T) {
	slots, err := ComputeDaySlots(baseInput(monday))
	require.NoError(t, err)
	require.Len(t, slots, 4)

	assert.Equal(t, "06:00", slots[0].StartTime)
	assert.Equal(t, "07:00", slots[0].EndTime)
	assert.Equal(t, "09:00", slots[3].StartTime)
	assert.Equal(t, "10:00", slots[3].EndTime)
	for _, slot := range slots {
		assert.True(t, slot.Available)
		assert.Equal(t, 80000.0, slot.Price)
	}
}

func TestComputeDaySlots_NarrowestRuleWins(t *testing.T) {
	in := baseInput(monday)
	// Peak window overlaps the all-day rule; the narrower window must price
	// the slots it contains
	in.Rules = append(in.Rules, PricingRule{
		DayType: DayTypeWeekday, StartTime: "08:00", EndTime: "10:00", PricePerHour: 120000,
	})

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	assert.Equal(t, 80000.0, slots[0].Price)
	assert.Equal(t, 80000.0, slots[1].Price)
	assert.Equal(t, 120000.0, slots[2].Price)
	assert.Equal(t, 120000.0, slots[3].Price)
}

func TestComputeDaySlots_HolidayPricing(t *testing.T) {
	in := baseInput(saturday)
	in.IsHoliday = true

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.Equal(t, 150000.0, slot.Price, "holiday rate must beat the weekend rate")
	}
}

func TestComputeDaySlots_UnpricedSlotsExcluded(t *testing.T) {
	in := baseInput(monday)
	// Rule covers only the first two hours; the rest of the day has no price
	// and must be excluded, not offered for free
	in.Rules = []PricingRule{
		{DayType: DayTypeWeekday, StartTime: "06:00", EndTime: "08:00", PricePerHour: 80000},
	}

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "06:00", slots[0].StartTime)
	assert.Equal(t, "07:00", slots[1].StartTime)
}

func TestComputeDaySlots_FullDayClosure(t *testing.T) {
	in := baseInput(monday)
	in.Closures = []SubCourtClosure{{FullDay: true, Reason: "maintenance"}}

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	for _, slot := range slots {
		assert.False(t, slot.Available)
	}
}

func TestComputeDaySlots_PartialClosureHalfOpen(t *testing.T) {
	in := baseInput(monday)
	in.Closures = []SubCourtClosure{{StartTime: "07:00", EndTime: "08:00"}}

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	// [07:00,08:00) blocks only its own slot; the adjacent slots touch the
	// boundary without overlapping
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
	assert.True(t, slots[3].Available)
}

func TestComputeDaySlots_BookedInterval(t *testing.T) {
	in := baseInput(monday)
	in.Booked = []BookedInterval{{StartTime: "08:00", EndTime: "10:00"}}

	slots, err := ComputeDaySlots(in)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	assert.True(t, slots[0].Available)
	assert.True(t, slots[1].Available)
	assert.False(t, slots[2].Available)
	assert.False(t, slots[3].Available)
}

func TestComputeDaySlots_InvalidHours(t *testing.T) {
	in := baseInput(monday)
	in.OpeningTime = "22:00"
	in.ClosingTime = "06:00"

	_, err := ComputeDaySlots(in)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestQuoteInterval(t *testing.T) {
	in := baseInput(monday)
	in.Rules = append(in.Rules, PricingRule{
		DayType: DayTypeWeekday, StartTime: "08:00", EndTime: "10:00", PricePerHour: 120000,
	})

	t.Run("sums per-slot prices", func(t *testing.T) {
		total, err := QuoteInterval(in, "07:00", "09:00")
		require.NoError(t, err)
		// 07:00-08:00 at base rate plus 08:00-09:00 at peak rate
		assert.Equal(t, 200000.0, total)
	})

	t.Run("rejects misaligned interval", func(t *testing.T) {
		_, err := QuoteInterval(in, "07:00", "08:30")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects interval outside opening hours", func(t *testing.T) {
		_, err := QuoteInterval(in, "05:00", "07:00")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects inverted interval", func(t *testing.T) {
		_, err := QuoteInterval(in, "09:00", "08:00")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("conflict when a sub-slot is booked", func(t *testing.T) {
		blocked := in
		blocked.Booked = []BookedInterval{{StartTime: "08:00", EndTime: "09:00"}}
		_, err := QuoteInterval(blocked, "07:00", "09:00")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("conflict when a sub-slot is unpriced", func(t *testing.T) {
		unpriced := in
		unpriced.Rules = []PricingRule{
			{DayType: DayTypeWeekday, StartTime: "06:00", EndTime: "08:00", PricePerHour: 80000},
		}
		_, err := QuoteInterval(unpriced, "07:00", "09:00")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"05:30", 330, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:5", 0, true},
		{"0900", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "05:30", FormatClock(330))
	assert.Equal(t, "23:59", FormatClock(1439))
}
