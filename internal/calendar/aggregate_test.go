package calendar

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func millis(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestAggregate_LengthMatchesYear(t *testing.T) {
	for _, year := range []int{2019, 2020, 2021, 2100} {
		info := Aggregate(year, nil)
		require.Len(t, info.Day, DaysInYear(year))
		assert.Equal(t, year, info.Year)
		assert.Equal(t, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), info.Day[0].Date)
		last := info.Day[len(info.Day)-1].Date
		assert.Equal(t, time.December, last.Month())
		assert.Equal(t, 31, last.Day())
	}
}

func TestAggregate_SingleObservation(t *testing.T) {
	frame := NewSeriesTable("value", []int64{millis(2021, time.March, 15)}, []float64{5})

	info := Aggregate(2021, []Frame{frame})

	require.Len(t, info.Day, 365)
	assert.Equal(t, 1, info.Day[73].Count)
	assert.Equal(t, 5.0, info.Day[73].Sum)
	assert.Equal(t, 0.0, info.Day[73].Scale)
	assert.Equal(t, 1, info.Touched())
}

func TestAggregate_MinMaxScale(t *testing.T) {
	frame := NewSeriesTable("value",
		[]int64{millis(2021, time.February, 1), millis(2021, time.June, 1)},
		[]float64{2, 8})

	info := Aggregate(2021, []Frame{frame})

	low, ok := info.Bucket(time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	high, ok := info.Bucket(time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 0.0, low.Scale)
	assert.Equal(t, 1.0, high.Scale)
}

func TestAggregate_ScaleStaysInRange(t *testing.T) {
	var ts []int64
	var vals []float64
	for i := 0; i < 200; i++ {
		ts = append(ts, millis(2020, time.January, 1)+int64(i)*36*int64(time.Hour/time.Millisecond))
		vals = append(vals, float64((i*37)%11)-3)
	}
	info := Aggregate(2020, []Frame{NewSeriesTable("v", ts, vals)})

	for _, b := range info.Day {
		assert.GreaterOrEqual(t, b.Scale, 0.0)
		assert.LessOrEqual(t, b.Scale, 1.0)
		if b.Count == 0 {
			assert.Equal(t, 0.0, b.Scale)
		}
	}
}

func TestAggregate_EqualSumsGiveZeroScale(t *testing.T) {
	frame := NewSeriesTable("value",
		[]int64{millis(2021, time.January, 5), millis(2021, time.May, 5), millis(2021, time.May, 9)},
		[]float64{3, 3, 3})

	info := Aggregate(2021, []Frame{frame})

	assert.Equal(t, 3, info.Touched())
	for _, b := range info.Day {
		assert.Equal(t, 0.0, b.Scale)
	}
}

func TestAggregate_OutsideYear(t *testing.T) {
	frame := NewSeriesTable("value", []int64{millis(2020, time.July, 4)}, []float64{7})

	info := Aggregate(2021, []Frame{frame})

	assert.Equal(t, 1, info.Outside.Count)
	assert.Equal(t, 7.0, info.Outside.Sum)
	for _, b := range info.Day {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Sum)
		assert.Zero(t, b.Scale)
	}
}

func TestAggregate_DropsFalsyValues(t *testing.T) {
	frame := &Table{
		Fields: []Field{
			{Name: "Time", Type: FieldTypeTime, Values: []any{
				millis(2021, time.April, 1),
				millis(2021, time.April, 2),
				millis(2021, time.April, 3),
				millis(2021, time.April, 4),
			}},
			{Name: "v", Type: FieldTypeNumber, Values: []any{0.0, nil, math.NaN(), 4}},
		},
	}

	info := Aggregate(2021, []Frame{frame})

	assert.Equal(t, 1, info.Observations())
	assert.Equal(t, 3, info.Dropped)
}

func TestAggregate_ObservationAccounting(t *testing.T) {
	frames := []Frame{
		NewSeriesTable("a",
			[]int64{millis(2021, time.January, 1), millis(2021, time.January, 1), millis(2022, time.January, 1)},
			[]float64{1, 2, 3}),
		NewSeriesTable("b",
			[]int64{millis(2021, time.December, 31), millis(2019, time.March, 3), millis(2021, time.August, 8)},
			[]float64{4, 0, -6}),
	}

	info := Aggregate(2021, frames)

	// six values, one dropped zero
	assert.Equal(t, 5, info.Observations())
	assert.Equal(t, 1, info.Dropped)
	assert.Equal(t, 1, info.Outside.Count)
	assert.Equal(t, 2, info.Day[0].Count)
	assert.Equal(t, 3.0, info.Day[0].Sum)
	assert.Equal(t, 1, info.Day[364].Count)
}

func TestAggregate_SkipsFramesWithoutTime(t *testing.T) {
	noTime := &Table{Fields: []Field{
		{Name: "v", Type: FieldTypeNumber, Values: []any{1.0, 2.0}},
	}}
	noNumbers := &Table{Fields: []Field{
		{Name: "Time", Type: FieldTypeTime, Values: []any{millis(2021, time.May, 1)}},
		{Name: "label", Type: FieldTypeString, Values: []any{"x"}},
	}}

	info := Aggregate(2021, []Frame{noTime, noNumbers, nil})

	assert.Equal(t, 0, info.Observations())
	assert.Equal(t, 3, info.SkippedFrames)
}

func TestAggregate_UsesFirstNumericFieldOnly(t *testing.T) {
	frame := &Table{Fields: []Field{
		{Name: "label", Type: FieldTypeString, Values: []any{"a"}},
		{Name: "first", Type: FieldTypeNumber, Values: []any{2.0}},
		{Name: "Time", Type: FieldTypeTime, Values: []any{millis(2021, time.May, 1)}},
		{Name: "second", Type: FieldTypeNumber, Values: []any{100.0}},
	}}

	info := Aggregate(2021, []Frame{frame})

	b, ok := info.Bucket(time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 1, b.Count)
	assert.Equal(t, 2.0, b.Sum)
}

func TestAggregate_TimeValueKinds(t *testing.T) {
	frame := &Table{Fields: []Field{
		{Name: "Time", Type: FieldTypeTime, Values: []any{
			time.Date(2021, time.May, 1, 10, 0, 0, 0, time.UTC),
			float64(millis(2021, time.May, 1)),
			json.Number("1619827200000"), // 2021-05-01T00:00:00Z
		}},
		{Name: "v", Type: FieldTypeNumber, Values: []any{1, int64(2), json.Number("3")}},
	}}

	info := Aggregate(2021, []Frame{frame})

	b, _ := info.Bucket(time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 6.0, b.Sum)
}

func TestAggregator_Location(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2021-12-31T20:00Z is already 2022-01-01 at UTC+10
	ts := time.Date(2021, time.December, 31, 20, 0, 0, 0, time.UTC).UnixMilli()

	info := NewAggregator(loc).Aggregate(2022, []Frame{NewSeriesTable("v", []int64{ts}, []float64{1})})

	assert.Equal(t, 1, info.Day[0].Count)
	assert.Equal(t, 0, info.Outside.Count)
	assert.Equal(t, loc, info.Day[0].Date.Location())
}

func TestDayBucketFrame(t *testing.T) {
	frame := NewSeriesTable("value",
		[]int64{millis(2021, time.March, 15), millis(2020, time.March, 15)},
		[]float64{5, 1})
	info := Aggregate(2021, []Frame{frame})

	table := DayBucketFrame(info)

	require.Len(t, table.Fields, 5)
	week, ok := table.Field("Week")
	require.True(t, ok)
	day, _ := table.Field("Day")
	count, _ := table.Field("Count")
	sum, _ := table.Field("Sum")
	assert.Equal(t, 365, count.Len())
	assert.Equal(t, 11, week.Values[73])
	assert.Equal(t, 1, day.Values[73])
	assert.Equal(t, 1, count.Values[73])
	assert.Equal(t, 5.0, sum.Values[73])
	// 2021-01-01 belongs to ISO week 53 of 2020
	assert.Equal(t, 53, week.Values[0])
	assert.Equal(t, 1, table.Meta["outside"])
}
