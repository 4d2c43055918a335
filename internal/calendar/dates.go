package calendar

import "time"

// DaysInYear returns 366 for leap years and 365 otherwise
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// ISOWeekday returns the weekday with Monday=1 through Sunday=7
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// ISOWeeksInYear returns 52 or 53, the number of ISO weeks of the week-year.
// December 28th always falls in the last ISO week.
func ISOWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// StartOfYear returns midnight of January 1st in loc
func StartOfYear(year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
}

// DateForOrdinal returns midnight of the 1-based ordinal day of year
func DateForOrdinal(year, ordinal int, loc *time.Location) time.Time {
	return StartOfYear(year, loc).AddDate(0, 0, ordinal-1)
}

// WeekSlot returns the Monday-start week of t counted within its own year.
// The week containing January 1st is slot 1, so the partial weeks at both ends
// of the year keep distinct slots. For years starting Monday to Thursday the
// slot equals the ISO week number of every day in that ISO year.
func WeekSlot(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	offset := ISOWeekday(jan1) - 1
	return (t.YearDay()-1+offset)/7 + 1
}

// WeekSlots returns the number of week slots of a year (53 or 54)
func WeekSlots(year int) int {
	return WeekSlot(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// DateForSlot resolves a week slot and ISO weekday to a date of year. It
// reports false when the combination lands in the partial first or last week
// outside the year.
func DateForSlot(year, slot, weekday int, loc *time.Location) (time.Time, bool) {
	if slot < 1 || slot > WeekSlots(year) || weekday < 1 || weekday > 7 {
		return time.Time{}, false
	}
	jan1 := StartOfYear(year, loc)
	monday := jan1.AddDate(0, 0, -(ISOWeekday(jan1) - 1))
	d := monday.AddDate(0, 0, (slot-1)*7+weekday-1)
	if d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// MonthRange returns the half-open range [first of month, first of next month)
// containing t, in t's location.
func MonthRange(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}

// YearRange returns the half-open range [Jan 1 year, Jan 1 year+1) in loc
func YearRange(year int, loc *time.Location) (time.Time, time.Time) {
	from := StartOfYear(year, loc)
	return from, from.AddDate(1, 0, 0)
}
