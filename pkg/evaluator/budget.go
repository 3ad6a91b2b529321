package evaluator

// gregorianCycle is the number of days after which the Gregorian
// calendar, weekdays included, repeats exactly (400 years).
const gregorianCycle = 146097

// DefaultHorizonDays covers one full calendar cycle plus the partially
// searched anchor day. Any schedule without year-qualified dates that
// has no match in this many days never matches.
const DefaultHorizonDays = gregorianCycle + 1

// Budget holds the limits of a single search.
type Budget struct {
	// HorizonDays is the number of calendar days examined, counting the
	// anchor's own day.
	HorizonDays int
}

// DefaultBudget returns the budget used by Next and Previous.
func DefaultBudget() Budget {
	return Budget{HorizonDays: DefaultHorizonDays}
}

func (b Budget) horizon() int {
	if b.HorizonDays <= 0 {
		return DefaultHorizonDays
	}
	return b.HorizonDays
}
