package panel

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/geometry"
	"github.com/christophergentle/circalendar/internal/observability"
	"github.com/christophergentle/circalendar/internal/render"
	"github.com/jonboulle/clockwork"
)

// PointerEventType is the kind of a pointer event delivered to the panel
type PointerEventType string

const (
	PointerMove  PointerEventType = "move"
	PointerDown  PointerEventType = "down"
	PointerUp    PointerEventType = "up"
	PointerLeave PointerEventType = "leave"
)

// PointerEvent is a pointer event in panel-local pixels
type PointerEvent struct {
	Type    PointerEventType `json:"type"`
	OffsetX float64          `json:"offsetX"`
	OffsetY float64          `json:"offsetY"`
}

// Pointer is the last pointer position seen by the panel
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hover is the day under the pointer and its bucket values
type Hover struct {
	Pointer Pointer   `json:"pointer"`
	Date    time.Time `json:"date"`
	Week    int       `json:"week"`
	Weekday int       `json:"weekday"`
	Count   int       `json:"count"`
	Sum     float64   `json:"sum"`
}

// State is the controller's view of the panel. It is never mutated once
// published; every transition builds a new State.
type State struct {
	Year    int                     `json:"year"`
	Width   int                     `json:"width"`
	Height  int                     `json:"height"`
	Options Options                 `json:"options"`
	Info    *calendar.DayBucketInfo `json:"-"`
	Pointer *Pointer                `json:"pointer,omitempty"`
	Hover   *Hover                  `json:"hover,omitempty"`
}

// Layout returns the polar layout of the state's panel size and padding
func (s *State) Layout() geometry.Layout {
	return geometry.NewLayout(s.Width, s.Height, s.Options.Pad)
}

// Hovering reports whether a day is under the pointer
func (s *State) Hovering() bool {
	return s.Hover != nil
}

// Controller turns host props and pointer events into panel state, draw
// requests and navigation commands
type Controller struct {
	mu         sync.Mutex
	state      *State
	data       *calendar.DataSet
	navigator  Navigator
	aggregator *calendar.Aggregator
	renderer   *render.CalendarRenderer
	clock      clockwork.Clock
	metrics    *observability.Metrics
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithClock sets the clock used to pick the default year
func WithClock(clock clockwork.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLocation resolves calendar days and navigation ranges in loc
func WithLocation(loc *time.Location) ControllerOption {
	return func(c *Controller) {
		c.aggregator = calendar.NewAggregator(loc)
	}
}

// WithMetrics records aggregation, hit test and navigation metrics
func WithMetrics(metrics *observability.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = metrics
	}
}

// WithRenderer replaces the default calendar renderer
func WithRenderer(renderer *render.CalendarRenderer) ControllerOption {
	return func(c *Controller) {
		c.renderer = renderer
	}
}

// NewController creates a controller for the current year. A nil navigator
// discards navigation commands.
func NewController(navigator Navigator, opts ...ControllerOption) *Controller {
	c := &Controller{
		navigator:  navigator,
		aggregator: calendar.NewAggregator(time.UTC),
		renderer:   render.NewCalendarRenderer(nil),
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	year := c.clock.Now().In(c.aggregator.Location()).Year()
	c.state = &State{
		Year:    year,
		Options: DefaultOptions(),
		Info:    c.aggregator.Aggregate(year, nil),
	}
	return c
}

// State returns the current state. Callers must not modify it.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Data returns the data set of the last Update
func (c *Controller) Data() *calendar.DataSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Update applies new host props. The aggregation is recomputed only when the
// data set is a different value from the previous call.
func (c *Controller) Update(data *calendar.DataSet, width, height int, options Options) *State {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.state
	next.Width = width
	next.Height = height
	next.Options = options.Normalize()

	if data != c.data {
		c.data = data
		next.Info = c.aggregate(next.Year)
	}

	// a new layout invalidates the hover target
	if next.Width != c.state.Width || next.Height != c.state.Height || next.Options.Pad != c.state.Options.Pad {
		next.Hover = nil
	} else if next.Hover != nil {
		next.Hover = c.hoverFor(next.Info, *next.Hover)
	}

	c.state = &next
	return c.state
}

// SetYear switches the active year and recomputes the aggregation
func (c *Controller) SetYear(year int) *State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if year == c.state.Year {
		return c.state
	}

	next := *c.state
	next.Year = year
	next.Info = c.aggregate(year)
	next.Hover = nil
	c.state = &next
	return c.state
}

// AdvanceYear moves the active year by delta
func (c *Controller) AdvanceYear(delta int) *State {
	return c.SetYear(c.State().Year + delta)
}

// HandlePointer applies a pointer event. Releasing the pointer over a day
// asks the navigator to show that day's month.
func (c *Controller) HandlePointer(ctx context.Context, ev PointerEvent) (*State, error) {
	c.mu.Lock()
	next := *c.state
	var target *TimeRange

	switch ev.Type {
	case PointerMove:
		next.Pointer = &Pointer{X: ev.OffsetX, Y: ev.OffsetY}
		next.Hover = c.hitTest(&next, ev.OffsetX, ev.OffsetY)
	case PointerLeave:
		next.Pointer = nil
		next.Hover = nil
	case PointerDown:
		next.Pointer = &Pointer{X: ev.OffsetX, Y: ev.OffsetY}
	case PointerUp:
		next.Pointer = &Pointer{X: ev.OffsetX, Y: ev.OffsetY}
		if next.Hover != nil {
			r := NewTimeRange(calendar.MonthRange(next.Hover.Date))
			target = &r
		}
	default:
		c.mu.Unlock()
		return c.State(), fmt.Errorf("unknown pointer event type %q", ev.Type)
	}

	c.state = &next
	c.mu.Unlock()

	if target == nil {
		return &next, nil
	}
	return &next, c.navigate(ctx, "month", *target)
}

// ActivateYearLabel asks the navigator to show the whole active year
func (c *Controller) ActivateYearLabel(ctx context.Context) (TimeRange, error) {
	year := c.State().Year
	r := NewTimeRange(calendar.YearRange(year, c.aggregator.Location()))
	return r, c.navigate(ctx, "year", r)
}

// View returns the drawable view of the current state
func (c *Controller) View() render.View {
	c.mu.Lock()
	s := c.state
	series := 0
	if c.data != nil {
		series = len(c.data.Frames)
	}
	c.mu.Unlock()

	v := render.View{
		Info:   s.Info,
		Layout: s.Layout(),
		Series: series,
		Text:   s.Options.Text,
	}
	if s.Hover != nil {
		v.Tooltip = &render.Tooltip{
			X:     s.Hover.Pointer.X,
			Y:     s.Hover.Pointer.Y,
			Date:  s.Hover.Date,
			Count: s.Hover.Count,
			Sum:   s.Hover.Sum,
		}
	}
	return v
}

// Render draws the current state onto s
func (c *Controller) Render(s render.Surface) {
	c.renderer.RenderView(s, c.View())
}

// RenderPNG draws the current state into a PNG image
func (c *Controller) RenderPNG() ([]byte, error) {
	start := c.clock.Now()
	data, err := c.renderer.RenderPNG(c.View())
	if err != nil {
		return nil, fmt.Errorf("failed to render calendar: %w", err)
	}
	if c.metrics != nil {
		c.metrics.RenderDuration.Observe(c.clock.Since(start).Seconds())
	}
	return data, nil
}

func (c *Controller) aggregate(year int) *calendar.DayBucketInfo {
	var frames []calendar.Frame
	if c.data != nil {
		frames = c.data.Frames
	}

	start := c.clock.Now()
	info := c.aggregator.Aggregate(year, frames)

	if c.metrics != nil {
		c.metrics.Aggregations.Inc()
		c.metrics.ObservationsAggregated.Add(float64(info.Observations()))
		c.metrics.ObservationsDropped.Add(float64(info.Dropped))
		c.metrics.FramesSkipped.Add(float64(info.SkippedFrames))
		c.metrics.AggregationDuration.Observe(c.clock.Since(start).Seconds())
	}
	return info
}

func (c *Controller) hitTest(s *State, x, y float64) *Hover {
	hit, ok := geometry.HitTest(x, y, s.Layout(), s.Year, c.aggregator.Location())
	if c.metrics != nil {
		outcome := "miss"
		if ok {
			outcome = "hit"
		}
		c.metrics.HitTests.WithLabelValues(outcome).Inc()
	}
	if !ok {
		return nil
	}
	return c.hoverFor(s.Info, Hover{
		Pointer: Pointer{X: x, Y: y},
		Date:    hit.Date,
		Week:    hit.Week,
		Weekday: hit.Weekday,
	})
}

// hoverFor refreshes the bucket values of a hover target from info
func (c *Controller) hoverFor(info *calendar.DayBucketInfo, h Hover) *Hover {
	bucket, ok := info.Bucket(h.Date)
	if !ok {
		return nil
	}
	h.Count = bucket.Count
	h.Sum = bucket.Sum
	return &h
}

func (c *Controller) navigate(ctx context.Context, kind string, r TimeRange) error {
	if c.navigator == nil {
		return nil
	}

	err := c.navigator.SetTimeRange(ctx, r)
	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.Navigation.WithLabelValues(kind, outcome).Inc()
	}
	if err != nil {
		log.Printf("Failed to navigate to %s %s: %v", kind, r, err)
		return fmt.Errorf("failed to set time range: %w", err)
	}
	log.Printf("Navigated to %s %s", kind, r)
	return nil
}
