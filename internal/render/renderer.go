package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/geometry"
	"github.com/fogleman/gg"
)

// Surface is the drawing target of the calendar. *gg.Context implements it.
type Surface interface {
	SetColor(c color.Color)
	Clear()
	Push()
	Pop()
	Translate(x, y float64)
	Scale(x, y float64)
	SetLineWidth(lineWidth float64)
	DrawCircle(x, y, r float64)
	DrawRectangle(x, y, w, h float64)
	Fill()
	Stroke()
	DrawStringAnchored(s string, x, y, ax, ay float64)
	MeasureString(s string) (w, h float64)
}

var _ Surface = (*gg.Context)(nil)

// Config holds configuration for calendar rendering
type Config struct {
	Background        color.RGBA
	HoverColor        color.RGBA
	TextColor         color.RGBA
	TooltipBackground color.RGBA
	TooltipText       color.RGBA
	BaseRadius        float64 // marker radius of an empty day
	Amplitude         float64 // added to BaseRadius at scale 1
	LineWidth         float64
	HoverLineWidth    float64
	FontPath          string // optional TrueType font, gg's built-in face otherwise
	FontSize          float64
}

// DefaultConfig returns the default calendar rendering configuration
func DefaultConfig() *Config {
	return &Config{
		Background:        color.RGBA{17, 18, 23, 255},    // Dark panel
		HoverColor:        color.RGBA{255, 255, 255, 255}, // White
		TextColor:         color.RGBA{204, 204, 220, 255}, // Light gray
		TooltipBackground: color.RGBA{32, 34, 38, 230},
		TooltipText:       color.RGBA{255, 255, 255, 255},
		BaseRadius:        2.0,
		Amplitude:         5.0,
		LineWidth:         1.0,
		HoverLineWidth:    3.0,
		FontSize:          12,
	}
}

// Tooltip is the hover target shown next to the pointer
type Tooltip struct {
	X     float64 // pointer position in panel pixels
	Y     float64
	Date  time.Time
	Count int
	Sum   float64
}

// Lines returns the tooltip text, the counters only when nonzero
func (t Tooltip) Lines() []string {
	lines := []string{t.Date.Format("Monday, January 2, 2006")}
	if t.Count != 0 {
		lines = append(lines, fmt.Sprintf("Count: %d", t.Count))
	}
	if t.Sum != 0 {
		lines = append(lines, fmt.Sprintf("Sum: %s", formatSum(t.Sum)))
	}
	return lines
}

// View is everything drawn into one frame of the panel
type View struct {
	Info    *calendar.DayBucketInfo
	Layout  geometry.Layout
	Tooltip *Tooltip
	Series  int    // number of frames in the data set, shown in the footer
	Text    string // footer text from the panel options
}

// CalendarRenderer draws day bucket aggregates as a circular calendar
type CalendarRenderer struct {
	config *Config
}

// NewCalendarRenderer creates a new calendar renderer
func NewCalendarRenderer(config *Config) *CalendarRenderer {
	if config == nil {
		config = DefaultConfig()
	}
	return &CalendarRenderer{config: config}
}

// Config returns the renderer configuration
func (r *CalendarRenderer) Config() *Config {
	return r.config
}

// Render clears the surface and draws one marker per day of info. The
// hovered day, when set, is redrawn last with an emphasized outline.
func (r *CalendarRenderer) Render(s Surface, info *calendar.DayBucketInfo, hover *time.Time, layout geometry.Layout) {
	s.SetColor(r.config.Background)
	s.Clear()

	if info == nil || !layout.Valid() {
		return
	}

	s.Push()
	s.Translate(layout.Width/2, layout.Height/2)
	s.Scale(1, -1)

	for _, bucket := range info.Day {
		r.drawMarker(s, layout, bucket)
	}

	if hover != nil {
		if bucket, ok := info.Bucket(*hover); ok {
			r.drawHover(s, layout, bucket)
		}
	}

	s.Pop()
}

// RenderView draws the calendar, its labels and the tooltip
func (r *CalendarRenderer) RenderView(s Surface, v View) {
	var hover *time.Time
	if v.Tooltip != nil {
		hover = &v.Tooltip.Date
	}
	r.Render(s, v.Info, hover, v.Layout)

	if v.Info != nil && v.Layout.Valid() {
		r.drawMonthLabels(s, v.Info.Year, v.Layout)
		r.drawYearLabel(s, v.Info.Year, v.Layout)
	}
	r.drawFooter(s, v)
	if v.Tooltip != nil {
		r.DrawTooltip(s, *v.Tooltip)
	}
}

// RenderPNG creates a PNG image of the view
func (r *CalendarRenderer) RenderPNG(v View) ([]byte, error) {
	width := int(math.Max(1, v.Layout.Width))
	height := int(math.Max(1, v.Layout.Height))

	dc := gg.NewContext(width, height)
	if r.config.FontPath != "" {
		if err := dc.LoadFontFace(r.config.FontPath, r.config.FontSize); err != nil {
			_ = err // keep gg's built-in face
		}
	}

	r.RenderView(dc, v)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// MarkerRadius returns the marker radius of a bucket
func (r *CalendarRenderer) MarkerRadius(bucket calendar.DayBucket) float64 {
	return r.config.BaseRadius + r.config.Amplitude*bucket.Scale
}

func (r *CalendarRenderer) drawMarker(s Surface, layout geometry.Layout, bucket calendar.DayBucket) {
	p := layout.DayPoint(bucket.Date)

	s.SetColor(ColorForMonth(bucket.Date.Month()))
	s.DrawCircle(p.X, p.Y, r.MarkerRadius(bucket))
	if bucket.Count > 0 {
		s.Fill()
		return
	}
	s.SetLineWidth(r.config.LineWidth)
	s.Stroke()
}

func (r *CalendarRenderer) drawHover(s Surface, layout geometry.Layout, bucket calendar.DayBucket) {
	p := layout.DayPoint(bucket.Date)

	s.SetColor(r.config.HoverColor)
	s.SetLineWidth(r.config.HoverLineWidth)
	s.DrawCircle(p.X, p.Y, r.MarkerRadius(bucket)+r.config.HoverLineWidth)
	s.Stroke()
}

// drawMonthLabels writes month initials just outside the ring, at the week
// of each month's first day
func (r *CalendarRenderer) drawMonthLabels(s Surface, year int, layout geometry.Layout) {
	weeks := calendar.WeekSlots(year)
	distance := layout.Pad + layout.Size() + geometry.Margin*0.6

	s.SetColor(r.config.TextColor)
	for month := time.January; month <= time.December; month++ {
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		theta := geometry.Angle(calendar.WeekSlot(first), weeks)
		x, y := layout.ToScreen(geometry.Point{
			X: distance * math.Cos(theta),
			Y: distance * math.Sin(theta),
		})
		s.DrawStringAnchored(month.String()[:1], x, y, 0.5, 0.5)
	}
}

func (r *CalendarRenderer) drawYearLabel(s Surface, year int, layout geometry.Layout) {
	s.SetColor(r.config.TextColor)
	s.DrawStringAnchored(fmt.Sprintf("%d", year), layout.Width/2, layout.Height/2, 0.5, 0.5)
}

// drawFooter writes the series count and the options text in the bottom
// left corner
func (r *CalendarRenderer) drawFooter(s Surface, v View) {
	const lineHeight = 16.0

	y := v.Layout.Height - 10
	s.SetColor(r.config.TextColor)
	if v.Text != "" {
		s.DrawStringAnchored(v.Text, 10, y, 0, 0)
		y -= lineHeight
	}
	s.DrawStringAnchored(fmt.Sprintf("Count: %d", v.Series), 10, y, 0, 0)
}

// DrawTooltip draws the tooltip box 10px right of and below the pointer
func (r *CalendarRenderer) DrawTooltip(s Surface, tip Tooltip) {
	const (
		offset     = 10.0
		padding    = 6.0
		lineHeight = 16.0
	)

	lines := tip.Lines()
	width := 0.0
	for _, line := range lines {
		if w, _ := s.MeasureString(line); w > width {
			width = w
		}
	}

	x := tip.X + offset
	y := tip.Y + offset
	s.SetColor(r.config.TooltipBackground)
	s.DrawRectangle(x, y, width+2*padding, float64(len(lines))*lineHeight+2*padding)
	s.Fill()

	s.SetColor(r.config.TooltipText)
	for i, line := range lines {
		s.DrawStringAnchored(line, x+padding, y+padding+float64(i)*lineHeight, 0, 1)
	}
}

func formatSum(sum float64) string {
	if sum == math.Trunc(sum) && math.Abs(sum) < 1e15 {
		return fmt.Sprintf("%.0f", sum)
	}
	return fmt.Sprintf("%.2f", sum)
}
