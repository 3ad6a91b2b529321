package evaluator

import "time"

// day is a calendar day in UTC with the derived values the rules test
// against. Stepping keeps them in sync without going through time.Time.
type day struct {
	year    int
	month   int // 1..12
	dom     int // 1..31
	weekday int // 1 = Sunday .. 7 = Saturday
	yday    int // 1..366
}

func dayOf(t time.Time) day {
	y, m, d := t.Date()
	return day{
		year:    y,
		month:   int(m),
		dom:     d,
		weekday: int(t.Weekday()) + 1,
		yday:    t.YearDay(),
	}
}

func (d *day) step(inc int) {
	if inc > 0 {
		d.dom++
		d.yday++
		if d.dom > daysInMonth(d.year, d.month) {
			d.dom = 1
			d.month++
			if d.month > 12 {
				d.month = 1
				d.year++
				d.yday = 1
			}
		}
		d.weekday = d.weekday%7 + 1
		return
	}

	d.dom--
	d.yday--
	if d.dom < 1 {
		d.month--
		if d.month < 1 {
			d.month = 12
			d.year--
			d.yday = daysInYear(d.year)
		}
		d.dom = daysInMonth(d.year, d.month)
	}
	d.weekday--
	if d.weekday < 1 {
		d.weekday = 7
	}
}

func (d day) at(hour, minute, second int) time.Time {
	return time.Date(d.year, time.Month(d.month), d.dom, hour, minute, second, 0, time.UTC)
}

func (d day) number() int {
	return dayNumber(d.year, d.month, d.dom)
}

func (d day) daysInMonth() int { return daysInMonth(d.year, d.month) }

func (d day) daysInPreviousMonth() int {
	if d.month == 1 {
		return 31
	}
	return daysInMonth(d.year, d.month-1)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// dayNumber counts days since 1970-01-01.
func dayNumber(year, month, dom int) int {
	return int(time.Date(year, time.Month(month), dom, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
