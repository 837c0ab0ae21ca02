package core

import "time"

// RepeatState describes where a transaction sits in the repetition lifecycle.
type RepeatState int

const (
	NotRepeating RepeatState = iota
	PendingFuture
	FutureCreated
)

func (s RepeatState) String() string {
	switch s {
	case PendingFuture:
		return "pending_future"
	case FutureCreated:
		return "future_created"
	default:
		return "not_repeating"
	}
}

// RepeatState derives the lifecycle state from the repeating flags.
func (t Transaction) RepeatState() RepeatState {
	if !t.Repeating {
		return NotRepeating
	}
	if t.FutureCreated {
		return FutureCreated
	}
	return PendingFuture
}

// NextOccurrence projects the next occurrence date: date + frequency*period.
// Month and year steps use calendar arithmetic with day-of-month clamping,
// so Jan 31 + 1 month lands on the last day of February instead of rolling
// into March. Total over its inputs; frequency below 1 is treated as 1.
func NextOccurrence(date time.Time, period Period, frequency int) time.Time {
	if frequency < 1 {
		frequency = 1
	}
	date = Day(date)
	switch period {
	case Daily:
		return date.AddDate(0, 0, frequency)
	case Weekly:
		return date.AddDate(0, 0, 7*frequency)
	case Monthly:
		return addMonthsClamped(date, frequency)
	case Yearly:
		return addMonthsClamped(date, 12*frequency)
	default:
		return date
	}
}

// ProjectFutureDate computes the FutureDate field for a transaction:
// the next occurrence when repeating, the far-future sentinel otherwise.
func (t Transaction) ProjectFutureDate() time.Time {
	if !t.Repeating {
		return FarFuture
	}
	return NextOccurrence(t.Date, t.Period, t.Frequency)
}

// addMonthsClamped adds n calendar months keeping the day-of-month where it
// exists and clamping to the last day of the target month where it does not.
func addMonthsClamped(date time.Time, n int) time.Time {
	year, month, day := date.Date()
	totalMonths := int(month) - 1 + n
	targetYear := year + totalMonths/12
	targetMonth := time.Month(totalMonths%12 + 1)
	if totalMonths < 0 {
		// Go's integer division truncates toward zero; fix up negatives.
		targetYear = year + (totalMonths-11)/12
		targetMonth = time.Month((totalMonths%12+12)%12 + 1)
	}
	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
