package state

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
)

// DemoObservations generates perDay observations a day spread over year with a
// seasonal curve. The same seed yields the same observations.
func DemoObservations(series string, year int, perDay int, seed int64) []Observation {
	rng := rand.New(rand.NewSource(seed))
	start := calendar.StartOfYear(year, time.UTC)
	days := calendar.DaysInYear(year)

	observations := make([]Observation, 0, days*perDay)
	for day := 0; day < days; day++ {
		// quiet weekends and a few empty days
		date := start.AddDate(0, 0, day)
		if calendar.ISOWeekday(date) >= 6 && rng.Intn(3) > 0 {
			continue
		}
		if rng.Intn(10) == 0 {
			continue
		}

		season := 1 + math.Sin(2*math.Pi*float64(day)/float64(days))
		for i := 0; i < perDay; i++ {
			offset := time.Duration(rng.Int63n(int64(24 * time.Hour)))
			observations = append(observations, Observation{
				Series:    series,
				Timestamp: date.Add(offset).UnixMilli(),
				Value:     math.Round((1+10*season+rng.Float64()*5)*100) / 100,
			})
		}
	}
	return observations
}

// DemoSource serves generated observations in place of the DynamoDB table
type DemoSource struct {
	PerDay int
	Seed   int64
}

// LoadYear returns one generated frame per series. Calendar days are
// generated in UTC whatever loc is.
func (d DemoSource) LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error) {
	perDay := d.PerDay
	if perDay <= 0 {
		perDay = 1
	}

	frames := make([]calendar.Frame, 0, len(series))
	for i, name := range series {
		frames = append(frames, ToFrame(name, DemoObservations(name, year, perDay, d.Seed+int64(i))))
	}
	return calendar.NewDataSet(frames...), nil
}
