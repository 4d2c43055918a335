package geometry

import (
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
)

// Hit is a pointer position resolved to a calendar day
type Hit struct {
	Date    time.Time
	Week    int // week slot within the year
	Weekday int // 1=Monday..7=Sunday
	Polar   Polar
}

// DayPoint returns the offset from the centre of a day's marker
func (l Layout) DayPoint(date time.Time) Point {
	return l.Forward(calendar.WeekSlot(date), calendar.WeekSlots(date.Year()), calendar.ISOWeekday(date))
}

// HitTest resolves a pointer offset (relative to the panel's top-left corner)
// to a day of year. It reports false outside the ring band and on week slots
// of the partial first and last weeks that fall in a neighbouring year.
func HitTest(px, py float64, layout Layout, year int, loc *time.Location) (Hit, bool) {
	if !layout.Valid() {
		return Hit{}, false
	}

	polar := layout.Inverse(px, py)
	if !layout.InAnnulus(polar.Radius) {
		return Hit{}, false
	}

	weekday := layout.Weekday(polar.Radius)
	week := Week(polar.Theta, calendar.WeekSlots(year))

	date, ok := calendar.DateForSlot(year, week, weekday, loc)
	if !ok {
		return Hit{}, false
	}

	return Hit{
		Date:    date,
		Week:    week,
		Weekday: weekday,
		Polar:   polar,
	}, true
}
