package courts

import (
	"time"

	"courtside/internal/shared/utils/apperror"
)

// DefaultSlotMinutes is the discrete slot granularity across opening hours
const DefaultSlotMinutes = 60

// CalculatorInput is everything the calculator needs for one sub-court and
// date. The calculator itself is a pure function over this input: no side
// effects, deterministic, safe to call repeatedly from polling UIs.
type CalculatorInput struct {
	Date        time.Time
	IsHoliday   bool
	OpeningTime string
	ClosingTime string
	SlotMinutes int
	Rules       []PricingRule
	Closures    []SubCourtClosure
	Booked      []BookedInterval
}

// ResolveDayType classifies a date. Holiday takes precedence over the
// weekend/weekday split.
func ResolveDayType(date time.Time, isHoliday bool) DayType {
	if isHoliday {
		return DayTypeHoliday
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}

// ComputeDaySlots walks the opening hours in discrete slots, prices each
// slot from the matching rule, and marks slots unavailable when they overlap
// a confirmed booking or a closure window. Slots no rule prices are excluded
// from the result rather than defaulting to zero.
func ComputeDaySlots(in CalculatorInput) ([]Slot, error) {
	opening, err := ParseClock(in.OpeningTime)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid opening time", err)
	}
	closing, err := ParseClock(in.ClosingTime)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid closing time", err)
	}
	if closing <= opening {
		return nil, apperror.Validation("closing time must be after opening time")
	}

	slotMinutes := in.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	dayType := ResolveDayType(in.Date, in.IsHoliday)

	var slots []Slot
	for start := opening; start+slotMinutes <= closing; start += slotMinutes {
		end := start + slotMinutes

		price, ok, err := priceFor(in.Rules, dayType, start, end, slotMinutes)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Unpriced slot: excluded, not free
			continue
		}

		available, err := slotAvailable(in.Closures, in.Booked, start, end)
		if err != nil {
			return nil, err
		}

		slots = append(slots, Slot{
			StartTime: FormatClock(start),
			EndTime:   FormatClock(end),
			Price:     price,
			Available: available,
		})
	}

	return slots, nil
}

// QuoteInterval prices an arbitrary [start,end) interval by summing its
// granular slots, and reports whether the whole interval is free. A single
// unpriced or blocked sub-slot disqualifies the interval.
func QuoteInterval(in CalculatorInput, startTime, endTime string) (float64, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindValidation, "invalid start time", err)
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindValidation, "invalid end time", err)
	}
	if end <= start {
		return 0, apperror.Validation("end time must be after start time")
	}

	opening, err := ParseClock(in.OpeningTime)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindValidation, "invalid opening time", err)
	}
	closing, err := ParseClock(in.ClosingTime)
	if err != nil {
		return 0, apperror.Wrap(apperror.KindValidation, "invalid closing time", err)
	}
	if start < opening || end > closing {
		return 0, apperror.Validation("requested interval is outside opening hours")
	}

	slotMinutes := in.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if (end-start)%slotMinutes != 0 {
		return 0, apperror.Validation("requested interval does not align with the slot granularity")
	}

	dayType := ResolveDayType(in.Date, in.IsHoliday)

	var total float64
	for s := start; s < end; s += slotMinutes {
		e := s + slotMinutes

		price, ok, err := priceFor(in.Rules, dayType, s, e, slotMinutes)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, apperror.Conflict("requested interval is not priced")
		}

		available, err := slotAvailable(in.Closures, in.Booked, s, e)
		if err != nil {
			return 0, err
		}
		if !available {
			return 0, apperror.Conflict("requested interval is not available")
		}

		total += price
	}

	return total, nil
}

// priceFor selects the pricing rule whose window contains [start,end) and
// whose day type matches; the narrowest window wins when several match.
func priceFor(rules []PricingRule, dayType DayType, start, end, slotMinutes int) (float64, bool, error) {
	bestWidth := -1
	var bestPrice float64

	for _, rule := range rules {
		if rule.DayType != dayType {
			continue
		}
		ruleStart, err := ParseClock(rule.StartTime)
		if err != nil {
			return 0, false, apperror.Wrap(apperror.KindInternal, "malformed pricing rule", err)
		}
		ruleEnd, err := ParseClock(rule.EndTime)
		if err != nil {
			return 0, false, apperror.Wrap(apperror.KindInternal, "malformed pricing rule", err)
		}
		if ruleStart > start || end > ruleEnd {
			continue
		}

		width := ruleEnd - ruleStart
		if bestWidth == -1 || width < bestWidth {
			bestWidth = width
			bestPrice = rule.PricePerHour * float64(slotMinutes) / 60.0
		}
	}

	if bestWidth == -1 {
		return 0, false, nil
	}
	return bestPrice, true, nil
}

// slotAvailable checks the slot against closures and confirmed bookings,
// half-open interval semantics on both sides
func slotAvailable(closures []SubCourtClosure, booked []BookedInterval, start, end int) (bool, error) {
	for _, closure := range closures {
		if closure.FullDay {
			return false, nil
		}
		cStart, err := ParseClock(closure.StartTime)
		if err != nil {
			return false, apperror.Wrap(apperror.KindInternal, "malformed closure window", err)
		}
		cEnd, err := ParseClock(closure.EndTime)
		if err != nil {
			return false, apperror.Wrap(apperror.KindInternal, "malformed closure window", err)
		}
		if intervalsOverlap(start, end, cStart, cEnd) {
			return false, nil
		}
	}

	for _, b := range booked {
		bStart, err := ParseClock(b.StartTime)
		if err != nil {
			return false, apperror.Wrap(apperror.KindInternal, "malformed booking interval", err)
		}
		bEnd, err := ParseClock(b.EndTime)
		if err != nil {
			return false, apperror.Wrap(apperror.KindInternal, "malformed booking interval", err)
		}
		if intervalsOverlap(start, end, bStart, bEnd) {
			return false, nil
		}
	}

	return true, nil
}
