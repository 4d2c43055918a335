package calendar

// DayBucketFrame lays the aggregate out as a table with one row per day:
// Date, Week (ISO week number), Day (ISO weekday), Count and Sum. The number
// of outside-year observations is reported under Meta["outside"].
func DayBucketFrame(info *DayBucketInfo) *Table {
	n := len(info.Day)
	dates := make([]any, n)
	weeks := make([]any, n)
	weekdays := make([]any, n)
	counts := make([]any, n)
	sums := make([]any, n)

	for i, b := range info.Day {
		_, week := b.Date.ISOWeek()
		dates[i] = b.Date
		weeks[i] = week
		weekdays[i] = ISOWeekday(b.Date)
		counts[i] = b.Count
		sums[i] = b.Sum
	}

	return &Table{
		Name: "days",
		Fields: []Field{
			{Name: "Date", Type: FieldTypeOther, Values: dates},
			{Name: "Week", Type: FieldTypeNumber, Values: weeks},
			{Name: "Day", Type: FieldTypeNumber, Values: weekdays},
			{Name: "Count", Type: FieldTypeNumber, Values: counts},
			{Name: "Sum", Type: FieldTypeNumber, Values: sums},
		},
		Meta: map[string]any{
			"outside": info.Outside.Count,
		},
	}
}
