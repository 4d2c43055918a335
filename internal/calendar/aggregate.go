package calendar

import (
	"math"
	"time"
)

// DayBucket is the aggregate of the observations landing on one day
type DayBucket struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
	Sum   float64   `json:"sum"`
	Scale float64   `json:"scale"` // 0-1, min/max of Sum over touched days
}

// DayBucketInfo is the result of one aggregation pass over a year
type DayBucketInfo struct {
	Year    int         `json:"year"`
	Day     []DayBucket `json:"day"`
	Outside DayBucket   `json:"outside"` // Date is not meaningful

	// Dropped counts zero, NaN and null values left out of the buckets.
	Dropped       int `json:"dropped"`
	SkippedFrames int `json:"skippedFrames"`
}

// Bucket returns the bucket for a date of the aggregated year
func (info *DayBucketInfo) Bucket(date time.Time) (DayBucket, bool) {
	if info == nil || date.Year() != info.Year {
		return DayBucket{}, false
	}
	idx := date.YearDay() - 1
	if idx < 0 || idx >= len(info.Day) {
		return DayBucket{}, false
	}
	return info.Day[idx], true
}

// Touched returns the number of in-year buckets with at least one observation
func (info *DayBucketInfo) Touched() int {
	n := 0
	for _, b := range info.Day {
		if b.Count > 0 {
			n++
		}
	}
	return n
}

// Observations returns the number of values counted in day and outside buckets
func (info *DayBucketInfo) Observations() int {
	n := info.Outside.Count
	for _, b := range info.Day {
		n += b.Count
	}
	return n
}

// Aggregator buckets time series into the days of a year
type Aggregator struct {
	location *time.Location
}

// NewAggregator creates an aggregator resolving calendar days in loc.
// A nil location means UTC.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{location: loc}
}

// Location returns the zone used to resolve calendar days
func (a *Aggregator) Location() *time.Location {
	return a.location
}

// Aggregate buckets frames into the days of year using UTC days
func Aggregate(year int, frames []Frame) *DayBucketInfo {
	return NewAggregator(time.UTC).Aggregate(year, frames)
}

// Aggregate builds a fresh DayBucketInfo for year. Frames without a time
// field are skipped and only the first numeric field of a frame is used.
// Zero, NaN and null values are dropped.
func (a *Aggregator) Aggregate(year int, frames []Frame) *DayBucketInfo {
	start := StartOfYear(year, a.location)
	days := DaysInYear(year)

	info := &DayBucketInfo{
		Year:    year,
		Day:     make([]DayBucket, days),
		Outside: DayBucket{Date: start},
	}
	for i := range info.Day {
		info.Day[i].Date = start.AddDate(0, 0, i)
	}

	for _, frame := range frames {
		if frame == nil {
			info.SkippedFrames++
			continue
		}
		timeField, ok := frame.TimeField()
		if !ok {
			info.SkippedFrames++
			continue
		}
		numbers := frame.NumberFields()
		if len(numbers) == 0 {
			info.SkippedFrames++
			continue
		}
		a.accumulate(info, timeField, numbers[0])
	}

	normalize(info)
	return info
}

func (a *Aggregator) accumulate(info *DayBucketInfo, timeField, values Field) {
	for j, raw := range values.Values {
		value, ok := numberValue(raw)
		if !ok || value == 0 || math.IsNaN(value) {
			info.Dropped++
			continue
		}
		if j >= timeField.Len() {
			info.Dropped++
			continue
		}
		ts, ok := timeValue(timeField.Values[j])
		if !ok {
			info.Dropped++
			continue
		}
		ts = ts.In(a.location)

		bucket := &info.Outside
		if ts.Year() == info.Year {
			bucket = &info.Day[ts.YearDay()-1]
		}
		bucket.Count++
		bucket.Sum += value
	}
}

// normalize sets Scale from the min/max Sum of the touched in-year buckets
func normalize(info *DayBucketInfo) {
	min := math.Inf(1)
	max := math.Inf(-1)
	for _, b := range info.Day {
		if b.Count == 0 {
			continue
		}
		if b.Sum < min {
			min = b.Sum
		}
		if b.Sum > max {
			max = b.Sum
		}
	}

	dataRange := max - min
	if math.IsInf(dataRange, 0) || math.IsNaN(dataRange) || dataRange <= 0 {
		return
	}
	for i := range info.Day {
		if info.Day[i].Count > 0 {
			info.Day[i].Scale = (info.Day[i].Sum - min) / dataRange
		}
	}
}
