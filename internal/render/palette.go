package render

import (
	"image/color"
	"time"
)

var monthPalette = [12]color.RGBA{
	{31, 119, 180, 255},  // Jan
	{174, 199, 232, 255}, // Feb
	{44, 160, 44, 255},   // Mar
	{152, 223, 138, 255}, // Apr
	{188, 189, 34, 255},  // May
	{255, 187, 120, 255}, // Jun
	{255, 127, 14, 255},  // Jul
	{214, 39, 40, 255},   // Aug
	{255, 152, 150, 255}, // Sep
	{148, 103, 189, 255}, // Oct
	{140, 86, 75, 255},   // Nov
	{23, 190, 207, 255},  // Dec
}

var unknownMonth = color.RGBA{127, 127, 127, 255}

// ColorForMonth returns the marker colour of a calendar month
func ColorForMonth(month time.Month) color.RGBA {
	if month < time.January || month > time.December {
		return unknownMonth
	}
	return monthPalette[month-1]
}
