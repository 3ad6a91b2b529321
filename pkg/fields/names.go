package fields

import "strings"

var dayNames = [...]string{"", "sun", "mon", "tue", "wed", "thu", "fri", "sat"}

var monthNames = [...]string{"", "jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// DayNumber resolves a day name to 1 (Sunday) through 7 (Saturday).
func DayNumber(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "su", "sun", "sunday":
		return 1, true
	case "mo", "mon", "monday":
		return 2, true
	case "tu", "tue", "tues", "tuesday":
		return 3, true
	case "we", "wed", "weds", "wednesday":
		return 4, true
	case "th", "thu", "thur", "thurs", "thursday":
		return 5, true
	case "fr", "fri", "friday":
		return 6, true
	case "sa", "sat", "saturday":
		return 7, true
	}
	return 0, false
}

// MonthNumber resolves a month name to 1 through 12.
func MonthNumber(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "jan", "january":
		return 1, true
	case "feb", "february":
		return 2, true
	case "mar", "march":
		return 3, true
	case "apr", "april":
		return 4, true
	case "may":
		return 5, true
	case "jun", "june":
		return 6, true
	case "jul", "july":
		return 7, true
	case "aug", "august":
		return 8, true
	case "sep", "sept", "september":
		return 9, true
	case "oct", "october":
		return 10, true
	case "nov", "november":
		return 11, true
	case "dec", "december":
		return 12, true
	}
	return 0, false
}

// DayName returns the canonical abbreviation for day n, or "" when n is out of range.
func DayName(n int) string {
	if n < 1 || n >= len(dayNames) {
		return ""
	}
	return dayNames[n]
}

// MonthName returns the canonical abbreviation for month n, or "" when n is out of range.
func MonthName(n int) string {
	if n < 1 || n >= len(monthNames) {
		return ""
	}
	return monthNames[n]
}
